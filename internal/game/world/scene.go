package world

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/duelpanto/internal/game/combat"
	"github.com/cory-johannsen/duelpanto/internal/game/entity"
	"github.com/cory-johannsen/duelpanto/internal/game/geom"
	"github.com/cory-johannsen/duelpanto/internal/game/health"
	"github.com/cory-johannsen/duelpanto/internal/game/spatial"
)

// Scene answers raycast and navigation queries against an Arena and the
// combatant bodies registered in it.
//
// Scene implements spatial.Scene and combat.TargetLookup.
type Scene struct {
	mu     sync.RWMutex
	arena  *Arena
	grid   *navGrid
	bodies map[entity.ID]*combat.Combatant
	order  []entity.ID
	logger *zap.Logger
}

// NewScene builds a Scene over arena.
//
// Precondition: arena must be non-nil and valid; logger must be non-nil.
// Postcondition: the walkable grid is precomputed; no bodies are registered.
func NewScene(arena *Arena, logger *zap.Logger) *Scene {
	if arena == nil {
		panic("world.NewScene: arena must not be nil")
	}
	if logger == nil {
		panic("world.NewScene: logger must not be nil")
	}
	return &Scene{
		arena:  arena,
		grid:   newNavGrid(arena),
		bodies: make(map[entity.ID]*combat.Combatant),
		logger: logger.With(zap.String("arena", arena.ID)),
	}
}

// Arena returns the static layout.
func (s *Scene) Arena() *Arena { return s.arena }

// AddBody registers c so rays can strike it and MoveTowards can move it.
//
// Postcondition: Returns an error if a body with c.ID is already registered.
func (s *Scene) AddBody(c *combat.Combatant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bodies[c.ID]; exists {
		return fmt.Errorf("body %q already registered", c.ID)
	}
	s.bodies[c.ID] = c
	s.order = append(s.order, c.ID)
	return nil
}

// Body returns the combatant registered under id.
func (s *Scene) Body(id entity.ID) (*combat.Combatant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.bodies[id]
	return c, ok
}

// HealthOf returns the Health owned by the body id.
//
// Postcondition: Returns (nil, false) for walls and unknown entities.
func (s *Scene) HealthOf(id entity.ID) (*health.Health, bool) {
	c, ok := s.Body(id)
	if !ok || c.Health == nil {
		return nil, false
	}
	return c.Health, true
}

// Raycast casts along the horizontal projection of direction and reports the
// nearest wall, arena edge or active body within maxDistance. A body whose
// sphere contains origin is ignored so a shooter never strikes itself.
func (s *Scene) Raycast(origin, direction geom.Vec3, maxDistance float64, mask spatial.Mask) (spatial.Hit, bool) {
	unit, ok := direction.Flat().Normalized()
	if !ok || maxDistance <= 0 {
		return spatial.Hit{}, false
	}

	best := spatial.Hit{Distance: math.Inf(1)}
	consider := func(d float64, id entity.ID, layer spatial.Mask) {
		if d <= maxDistance && d < best.Distance {
			best = spatial.Hit{Entity: id, Layer: layer, Distance: d}
		}
	}

	if mask.Has(spatial.LayerWalls) {
		for _, w := range s.arena.Walls {
			if t, hit := rayRectT(origin, unit, maxDistance, w.Rect); hit {
				consider(t, entity.ID(w.ID), spatial.LayerWalls)
			}
		}
		consider(boundsExit(origin, unit, s.arena.Bounds), entity.None, spatial.LayerWalls)
	}

	if mask.Has(spatial.LayerCombatants) {
		s.mu.RLock()
		for _, id := range s.order {
			c := s.bodies[id]
			if !c.Active {
				continue
			}
			if t, hit := rayCircleT(origin, unit, c.Position, c.Radius); hit {
				consider(t, c.ID, spatial.LayerCombatants)
			}
		}
		s.mu.RUnlock()
	}

	if math.IsInf(best.Distance, 1) {
		return spatial.Hit{}, false
	}
	best.Point = origin.Add(unit.Scale(best.Distance))
	return best, true
}

// FindWalkablePoint returns the walkable cell centre nearest to near within
// radius.
func (s *Scene) FindWalkablePoint(near geom.Vec3, radius float64) (geom.Vec3, bool) {
	return s.grid.nearest(near, radius)
}

// MoveTowards advances agent toward target by at most maxStep. When walls
// block the straight line the agent follows an A* path over the walkable
// grid. The agent never enters a wall or another active body.
//
// Postcondition: Returns the agent's new position; an unknown agent is not
// moved and target is returned unchanged.
func (s *Scene) MoveTowards(agent entity.ID, target geom.Vec3, maxStep float64) geom.Vec3 {
	c, ok := s.Body(agent)
	if !ok {
		s.logger.Warn("move requested for unknown agent", zap.String("agent", string(agent)))
		return target
	}
	pos := c.Position
	target = geom.V(target.X, pos.Y, target.Z)
	if maxStep <= 0 || pos.Dist(target) < geom.Epsilon {
		return pos
	}

	waypoint := target
	if !s.segmentClear(pos, target) {
		if path := s.grid.findPath(s.grid.cellOf(pos), s.grid.cellOf(target)); len(path) > 1 {
			waypoint = s.furthestVisible(pos, path)
		}
	}

	next := s.advance(c, pos, waypoint, maxStep)
	s.mu.Lock()
	c.Position = next
	s.mu.Unlock()
	return next
}

// furthestVisible returns the last path cell centre reachable in a straight
// line from pos, skipping the cell pos stands in.
func (s *Scene) furthestVisible(pos geom.Vec3, path []cell) geom.Vec3 {
	waypoint := s.grid.centre(path[1])
	for i := len(path) - 1; i > 1; i-- {
		p := s.grid.centre(path[i])
		if s.segmentClear(pos, p) {
			return geom.V(p.X, pos.Y, p.Z)
		}
	}
	return geom.V(waypoint.X, pos.Y, waypoint.Z)
}

// advance steps from pos toward waypoint, backing off until the body fits.
func (s *Scene) advance(c *combat.Combatant, pos, waypoint geom.Vec3, maxStep float64) geom.Vec3 {
	dir := waypoint.Sub(pos)
	dist := dir.Len()
	if dist < geom.Epsilon {
		return pos
	}
	step := math.Min(maxStep, dist)
	unit := dir.Scale(1 / dist)
	const tries = 8
	for i := tries; i > 0; i-- {
		next := pos.Add(unit.Scale(step * float64(i) / tries))
		if s.arena.Clear(next) && !s.blockedByBody(c, pos, next) {
			return next
		}
	}
	return pos
}

// blockedByBody reports whether moving c from pos to next pushes it into
// another active body.
func (s *Scene) blockedByBody(c *combat.Combatant, pos, next geom.Vec3) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		other := s.bodies[id]
		if other == c || !other.Active {
			continue
		}
		reach := c.Radius + other.Radius
		d := next.Flat().Dist(other.Position.Flat())
		if d < reach && d < pos.Flat().Dist(other.Position.Flat()) {
			return true
		}
	}
	return false
}

// segmentClear reports whether a body can slide from a to b without touching
// a wall or leaving the arena.
func (s *Scene) segmentClear(a, b geom.Vec3) bool {
	if !s.arena.Clear(a) || !s.arena.Clear(b) {
		return false
	}
	dir := b.Sub(a).Flat()
	length := dir.Len()
	if length < geom.Epsilon {
		return true
	}
	unit := dir.Scale(1 / length)
	for _, w := range s.arena.Walls {
		if _, hit := rayRectT(a, unit, length, w.Rect.Expand(s.arena.AgentRadius)); hit {
			return false
		}
	}
	return true
}

// rayRectT returns the distance along unit from origin at which the ray
// enters r, if that happens within maxDistance. An origin inside r hits at 0.
func rayRectT(origin, unit geom.Vec3, maxDistance float64, r Rect) (float64, bool) {
	tMin, tMax := 0.0, maxDistance
	slab := func(o, d, lo, hi float64) bool {
		if math.Abs(d) < 1e-12 {
			return o >= lo && o <= hi
		}
		inv := 1 / d
		t1, t2 := (lo-o)*inv, (hi-o)*inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		return tMin <= tMax
	}
	if !slab(origin.X, unit.X, r.MinX, r.MaxX) || !slab(origin.Z, unit.Z, r.MinZ, r.MaxZ) {
		return 0, false
	}
	return tMin, true
}

// rayCircleT returns the distance along unit from origin to the first contact
// with the circle of radius r about centre on the floor plane. An origin
// inside the circle never hits.
func rayCircleT(origin, unit, centre geom.Vec3, r float64) (float64, bool) {
	oc := origin.Sub(centre).Flat()
	c := oc.Dot(oc) - r*r
	if c <= 0 {
		return 0, false
	}
	b := oc.Dot(unit)
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 {
		return 0, false
	}
	return t, true
}

// boundsExit returns the distance along unit at which a ray from origin
// leaves r. An origin already outside r exits at 0.
func boundsExit(origin, unit geom.Vec3, r Rect) float64 {
	if !r.Contains(origin) {
		return 0
	}
	exit := math.Inf(1)
	axis := func(o, d, lo, hi float64) {
		switch {
		case d > 1e-12:
			exit = math.Min(exit, (hi-o)/d)
		case d < -1e-12:
			exit = math.Min(exit, (lo-o)/d)
		}
	}
	axis(origin.X, unit.X, r.MinX, r.MaxX)
	axis(origin.Z, unit.Z, r.MinZ, r.MaxZ)
	return exit
}
