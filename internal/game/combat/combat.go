// Package combat implements the combatant model and the per-tick ranged
// attack resolver.
package combat

import (
	"fmt"

	"github.com/cory-johannsen/duelpanto/internal/game/entity"
	"github.com/cory-johannsen/duelpanto/internal/game/geom"
	"github.com/cory-johannsen/duelpanto/internal/game/health"
)

// Kind distinguishes the human-controlled combatant from the adversary.
type Kind int

const (
	KindPlayer Kind = iota
	KindAdversary
)

// String returns a human-readable kind label.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindAdversary:
		return "adversary"
	default:
		return "unknown"
	}
}

// DefaultRadius is the body radius used for line-of-sight hits.
const DefaultRadius = 0.5

// Combatant is one participant of an encounter. It owns exactly one Health;
// the Health refers back to it only through ID.
type Combatant struct {
	ID     entity.ID
	Kind   Kind
	Name   string
	Radius float64
	// Position is the body centre in world space.
	Position geom.Vec3
	// Yaw is the facing in degrees (see package geom).
	Yaw float64
	// Active is false between defeat and the next Spawn.
	Active bool
	Health *health.Health
}

// NewCombatant creates an inactive combatant with a full health pool of maxHealth.
//
// Precondition: maxHealth > 0.
// Postcondition: Returns a combatant with a fresh ID and Active == false.
func NewCombatant(kind Kind, name string, maxHealth int) (*Combatant, error) {
	id := entity.NewID(kind.String())
	h, err := health.New(id, maxHealth)
	if err != nil {
		return nil, fmt.Errorf("creating %s %q: %w", kind, name, err)
	}
	return &Combatant{
		ID:     id,
		Kind:   kind,
		Name:   name,
		Radius: DefaultRadius,
		Health: h,
	}, nil
}

// IsPlayer reports whether this combatant is the human-controlled one.
func (c *Combatant) IsPlayer() bool { return c.Kind == KindPlayer }

// Forward returns the unit vector c is facing.
func (c *Combatant) Forward() geom.Vec3 { return geom.Forward(c.Yaw) }

// Spawn places c at position facing yaw, restores full health and activates it.
//
// Postcondition: Active is true; Health.Points() == Health.Max().
func (c *Combatant) Spawn(position geom.Vec3, yaw float64) {
	c.Position = position
	c.Yaw = geom.NormalizeDegrees(yaw)
	c.Health.Reset()
	c.Active = true
}

// Deactivate takes c out of play until the next Spawn.
func (c *Combatant) Deactivate() { c.Active = false }

// Aim turns c to face along dir, as reported by an external pointing device.
//
// Postcondition: returns false and leaves Yaw unchanged when dir has no
// horizontal component.
func (c *Combatant) Aim(dir geom.Vec3) bool {
	yaw, ok := geom.YawOf(dir)
	if !ok {
		return false
	}
	c.Yaw = yaw
	return true
}

// DeviationTo returns the angle in degrees between c's facing and the
// direction to point, and that direction.
//
// Postcondition: ok is false and deviation is 0 when point coincides with c.Position.
func (c *Combatant) DeviationTo(point geom.Vec3) (deviation float64, dir geom.Vec3, ok bool) {
	dir = point.Sub(c.Position)
	if dir.IsZero() {
		return 0, dir, false
	}
	return geom.AngleBetween(c.Forward(), dir), dir, true
}
