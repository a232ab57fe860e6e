// Package world provides the arena the duel is fought in: static walls, spawn
// points and a walkable grid, plus a Scene that answers the core's spatial
// queries against it.
package world

import (
	"fmt"
	"math"
	"strings"

	"github.com/cory-johannsen/duelpanto/internal/game/geom"
)

// Rect is an axis-aligned rectangle on the XZ floor plane. Y is ignored.
type Rect struct {
	MinX, MinZ float64
	MaxX, MaxZ float64
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p geom.Vec3) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Z >= r.MinZ && p.Z <= r.MaxZ
}

// Expand returns r grown by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{MinX: r.MinX - d, MinZ: r.MinZ - d, MaxX: r.MaxX + d, MaxZ: r.MaxZ + d}
}

func (r Rect) width() float64 { return r.MaxX - r.MinX }
func (r Rect) depth() float64 { return r.MaxZ - r.MinZ }

// Wall is a solid obstacle.
type Wall struct {
	// ID names the wall; empty for anonymous scenery.
	ID   string
	Rect Rect
}

// Spawn is where a combatant is placed at the start of an encounter.
type Spawn struct {
	Position geom.Vec3
	// Yaw is the initial facing in degrees.
	Yaw float64
}

// Arena is the static layout of the duel.
type Arena struct {
	// ID uniquely identifies this arena.
	ID string
	// Name is the display name of the arena.
	Name string
	// Bounds encloses the playable floor; its edges block movement and rays.
	Bounds Rect
	// CellSize is the edge length of one walkable grid cell.
	CellSize float64
	// AgentRadius is the clearance kept between walkable points and walls.
	AgentRadius float64
	Walls       []Wall
	// PlayerSpawn and AdversarySpawn are the encounter start points.
	PlayerSpawn    Spawn
	AdversarySpawn Spawn
}

// Validate checks arena invariants.
//
// Postcondition: Returns nil if valid, or an error listing every violation.
func (a *Arena) Validate() error {
	var errs []string
	if a.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if a.Bounds.width() <= 0 || a.Bounds.depth() <= 0 {
		errs = append(errs, fmt.Sprintf("bounds must have positive area, got %+v", a.Bounds))
	}
	if a.CellSize <= 0 {
		errs = append(errs, fmt.Sprintf("cell_size must be > 0, got %v", a.CellSize))
	}
	if a.AgentRadius < 0 {
		errs = append(errs, fmt.Sprintf("agent_radius must be >= 0, got %v", a.AgentRadius))
	}
	seen := make(map[string]bool, len(a.Walls))
	for i, w := range a.Walls {
		if w.Rect.width() <= 0 || w.Rect.depth() <= 0 {
			errs = append(errs, fmt.Sprintf("wall %d (%q) must have positive area", i, w.ID))
		}
		if w.ID != "" {
			if seen[w.ID] {
				errs = append(errs, fmt.Sprintf("duplicate wall id %q", w.ID))
			}
			seen[w.ID] = true
		}
	}
	spawns := []struct {
		name  string
		spawn Spawn
	}{{"player_spawn", a.PlayerSpawn}, {"adversary_spawn", a.AdversarySpawn}}
	for _, sp := range spawns {
		name, s := sp.name, sp.spawn
		if !a.Bounds.Contains(s.Position) {
			errs = append(errs, fmt.Sprintf("%s %v lies outside bounds", name, s.Position))
			continue
		}
		for _, w := range a.Walls {
			if w.Rect.Contains(s.Position) {
				errs = append(errs, fmt.Sprintf("%s lies inside wall %q", name, w.ID))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("arena %q: %s", a.ID, strings.Join(errs, "; "))
	}
	return nil
}

// gridSize returns the walkable grid dimensions.
func (a *Arena) gridSize() (cols, rows int) {
	cols = int(math.Ceil(a.Bounds.width() / a.CellSize))
	rows = int(math.Ceil(a.Bounds.depth() / a.CellSize))
	return cols, rows
}

// cellCentre returns the world position of cell (col, row).
func (a *Arena) cellCentre(col, row int) geom.Vec3 {
	return geom.V(
		a.Bounds.MinX+(float64(col)+0.5)*a.CellSize,
		0,
		a.Bounds.MinZ+(float64(row)+0.5)*a.CellSize,
	)
}

// cellOf returns the cell containing p, clamped to the grid.
func (a *Arena) cellOf(p geom.Vec3) (col, row int) {
	cols, rows := a.gridSize()
	col = clamp(int(math.Floor((p.X-a.Bounds.MinX)/a.CellSize)), 0, cols-1)
	row = clamp(int(math.Floor((p.Z-a.Bounds.MinZ)/a.CellSize)), 0, rows-1)
	return col, row
}

// Clear reports whether a body of the arena's agent radius can stand at p.
func (a *Arena) Clear(p geom.Vec3) bool {
	if !a.Bounds.Expand(-a.AgentRadius).Contains(p) {
		return false
	}
	for _, w := range a.Walls {
		if w.Rect.Expand(a.AgentRadius).Contains(p) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
