package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/duelpanto/internal/game/geom"
)

// Defaults applied when an arena file omits the field.
const (
	DefaultCellSize    = 0.5
	DefaultAgentRadius = 0.5
)

// yamlArenaFile is the top-level YAML structure for arena files.
type yamlArenaFile struct {
	Arena yamlArena `yaml:"arena"`
}

// yamlArena is the YAML representation of an arena. Points are [x, z] pairs
// on the floor plane.
type yamlArena struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Bounds      yamlRect   `yaml:"bounds"`
	CellSize    float64    `yaml:"cell_size"`
	AgentRadius *float64   `yaml:"agent_radius"`
	Walls       []yamlWall `yaml:"walls"`
	Spawns      struct {
		Player    yamlSpawn `yaml:"player"`
		Adversary yamlSpawn `yaml:"adversary"`
	} `yaml:"spawns"`
}

type yamlRect struct {
	Min []float64 `yaml:"min"`
	Max []float64 `yaml:"max"`
}

type yamlWall struct {
	ID  string    `yaml:"id"`
	Min []float64 `yaml:"min"`
	Max []float64 `yaml:"max"`
}

type yamlSpawn struct {
	Position []float64 `yaml:"position"`
	Yaw      float64   `yaml:"yaw"`
}

// LoadArenaFromFile reads and validates an arena YAML file.
//
// Precondition: path must point to a valid YAML arena file.
// Postcondition: Returns a validated Arena or a non-nil error.
func LoadArenaFromFile(path string) (*Arena, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading arena file %s: %w", path, err)
	}
	return LoadArenaFromBytes(data)
}

// LoadArenaFromBytes parses and validates an arena from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the arena schema.
// Postcondition: Returns a validated Arena or a non-nil error.
func LoadArenaFromBytes(data []byte) (*Arena, error) {
	var file yamlArenaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing arena YAML: %w", err)
	}

	arena, err := convertYAMLArena(file.Arena)
	if err != nil {
		return nil, err
	}
	if err := arena.Validate(); err != nil {
		return nil, fmt.Errorf("validating arena: %w", err)
	}
	return arena, nil
}

// convertYAMLArena converts the parsed YAML structures into domain types.
func convertYAMLArena(ya yamlArena) (*Arena, error) {
	bounds, err := convertRect("bounds", ya.Bounds.Min, ya.Bounds.Max)
	if err != nil {
		return nil, fmt.Errorf("arena %q: %w", ya.ID, err)
	}
	arena := &Arena{
		ID:          ya.ID,
		Name:        ya.Name,
		Bounds:      bounds,
		CellSize:    ya.CellSize,
		AgentRadius: DefaultAgentRadius,
	}
	if arena.Name == "" {
		arena.Name = ya.ID
	}
	if arena.CellSize == 0 {
		arena.CellSize = DefaultCellSize
	}
	if ya.AgentRadius != nil {
		arena.AgentRadius = *ya.AgentRadius
	}

	for i, yw := range ya.Walls {
		r, err := convertRect(fmt.Sprintf("wall %d", i), yw.Min, yw.Max)
		if err != nil {
			return nil, fmt.Errorf("arena %q: %w", ya.ID, err)
		}
		arena.Walls = append(arena.Walls, Wall{ID: yw.ID, Rect: r})
	}

	if arena.PlayerSpawn, err = convertSpawn("player", ya.Spawns.Player); err != nil {
		return nil, fmt.Errorf("arena %q: %w", ya.ID, err)
	}
	if arena.AdversarySpawn, err = convertSpawn("adversary", ya.Spawns.Adversary); err != nil {
		return nil, fmt.Errorf("arena %q: %w", ya.ID, err)
	}
	return arena, nil
}

func convertPoint(what string, xz []float64) (geom.Vec3, error) {
	if len(xz) != 2 {
		return geom.Vec3{}, fmt.Errorf("%s must be an [x, z] pair, got %v", what, xz)
	}
	return geom.V(xz[0], 0, xz[1]), nil
}

func convertRect(what string, lo, hi []float64) (Rect, error) {
	p0, err := convertPoint(what+" min", lo)
	if err != nil {
		return Rect{}, err
	}
	p1, err := convertPoint(what+" max", hi)
	if err != nil {
		return Rect{}, err
	}
	return Rect{MinX: p0.X, MinZ: p0.Z, MaxX: p1.X, MaxZ: p1.Z}, nil
}

func convertSpawn(what string, ys yamlSpawn) (Spawn, error) {
	p, err := convertPoint(what+" spawn position", ys.Position)
	if err != nil {
		return Spawn{}, err
	}
	return Spawn{Position: p, Yaw: geom.NormalizeDegrees(ys.Yaw)}, nil
}
