// Package spatial defines the scene queries the combat core consumes. The
// scene itself (geometry, navigation mesh, physics) lives outside the core.
package spatial

import (
	"github.com/cory-johannsen/duelpanto/internal/game/entity"
	"github.com/cory-johannsen/duelpanto/internal/game/geom"
)

// Mask selects which layers a query may strike.
type Mask uint32

const (
	// LayerWalls covers static scenery: obstacles and arena bounds.
	LayerWalls Mask = 1 << iota
	// LayerCombatants covers the player and adversary bodies.
	LayerCombatants
)

// MaskAll strikes every layer.
const MaskAll Mask = ^Mask(0)

// Has reports whether m includes every bit of layer.
func (m Mask) Has(layer Mask) bool { return m&layer == layer }

// Hit describes the first surface struck by a ray.
type Hit struct {
	// Entity is the struck object's handle; entity.None for anonymous scenery.
	Entity entity.ID
	// Layer is the single layer the struck surface belongs to.
	Layer Mask
	// Point is where the ray met the surface.
	Point geom.Vec3
	// Distance is measured from the ray origin to Point.
	Distance float64
}

// Raycaster answers line-of-sight queries.
type Raycaster interface {
	// Raycast casts from origin along direction up to maxDistance and reports the
	// nearest surface whose layer is in mask.
	//
	// Precondition: direction need not be normalized but must be non-degenerate.
	// Postcondition: ok is false when nothing is struck within maxDistance.
	Raycast(origin, direction geom.Vec3, maxDistance float64, mask Mask) (hit Hit, ok bool)
}

// Navigator answers walkable-surface queries and executes movement.
type Navigator interface {
	// FindWalkablePoint returns the walkable point nearest to near within radius.
	//
	// Postcondition: ok is false when no walkable point lies within radius.
	FindWalkablePoint(near geom.Vec3, radius float64) (point geom.Vec3, ok bool)
	// MoveTowards advances agent toward target by at most maxStep and returns the
	// agent's new position.
	MoveTowards(agent entity.ID, target geom.Vec3, maxStep float64) geom.Vec3
}

// Scene is a Raycaster that is also a Navigator.
type Scene interface {
	Raycaster
	Navigator
}
