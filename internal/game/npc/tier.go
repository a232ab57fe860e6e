// Package npc provides adversary difficulty tiers loaded from YAML.
package npc

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode selects the adversary's behavior for a whole encounter.
type Mode int

const (
	// ModeSentinel perceives through a field of view and searches when contact is lost.
	ModeSentinel Mode = iota
	// ModePursuit always knows where the opponent is.
	ModePursuit
)

// String returns a human-readable mode label.
func (m Mode) String() string {
	switch m {
	case ModeSentinel:
		return "sentinel"
	case ModePursuit:
		return "pursuit"
	default:
		return "unknown"
	}
}

// Tier is the immutable behavior configuration of the adversary for one
// difficulty level.
type Tier struct {
	// ID names the tier.
	ID string
	// Name is the display name announced when the tier starts.
	Name string
	// MaxHealth is the adversary's health pool.
	MaxHealth int
	// Speed is the adversary's movement speed in units per second.
	Speed float64
	// Aim selects ModePursuit when true and ModeSentinel otherwise.
	Aim bool
	// TurnRate is the maximum facing change in degrees per tick.
	TurnRate float64
	// SearchRadius bounds the random offset used to pick a search point.
	SearchRadius float64
	// FieldOfView is the perception half-angle in degrees.
	FieldOfView float64
	// ReacquireDistance is the arrival radius around the last sighting: once
	// the adversary is this close to it without contact it searches at once
	// instead of waiting out TimeBeforeSearch. 0 disables it.
	ReacquireDistance float64
	// TimeBeforeSearch is how long contact must be lost before searching.
	TimeBeforeSearch time.Duration
	// Inaccuracy is the maximum yaw jitter in degrees applied on acquisition.
	Inaccuracy float64
	// ReturnsFire makes a hit from any direction reveal the shooter.
	ReturnsFire bool
	// AttackAtStart starts the encounter with contact already established.
	AttackAtStart bool
}

// Mode returns the behavior mode selected by t.Aim.
func (t Tier) Mode() Mode {
	if t.Aim {
		return ModePursuit
	}
	return ModeSentinel
}

// DefaultTier returns the baseline adversary configuration.
func DefaultTier() Tier {
	return Tier{
		ID:               "default",
		Name:             "Enemy",
		MaxHealth:        100,
		Speed:            3,
		TurnRate:         6,
		SearchRadius:     8,
		FieldOfView:      30,
		TimeBeforeSearch: 2 * time.Second,
		Inaccuracy:       0.2,
		ReturnsFire:      true,
		AttackAtStart:    true,
	}
}

// Validate checks that the tier satisfies its invariants.
//
// Postcondition: Returns nil iff every field is in range; otherwise an error
// listing every violation.
func (t Tier) Validate() error {
	var errs []string
	if t.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if t.MaxHealth < 1 {
		errs = append(errs, fmt.Sprintf("max_health must be >= 1, got %d", t.MaxHealth))
	}
	if t.Speed < 0 {
		errs = append(errs, fmt.Sprintf("speed must be >= 0, got %v", t.Speed))
	}
	if t.TurnRate <= 0 {
		errs = append(errs, fmt.Sprintf("turn_rate must be > 0, got %v", t.TurnRate))
	}
	if t.FieldOfView <= 0 || t.FieldOfView > 180 {
		errs = append(errs, fmt.Sprintf("field_of_view must be in (0, 180], got %v", t.FieldOfView))
	}
	if t.SearchRadius < 0 {
		errs = append(errs, fmt.Sprintf("search_radius must be >= 0, got %v", t.SearchRadius))
	}
	if t.ReacquireDistance < 0 {
		errs = append(errs, fmt.Sprintf("reacquire_distance must be >= 0, got %v", t.ReacquireDistance))
	}
	if t.TimeBeforeSearch < 0 {
		errs = append(errs, "time_before_search must not be negative")
	}
	if t.Inaccuracy < 0 {
		errs = append(errs, fmt.Sprintf("inaccuracy must be >= 0, got %v", t.Inaccuracy))
	}
	if len(errs) > 0 {
		return fmt.Errorf("npc tier %q: %s", t.ID, strings.Join(errs, "; "))
	}
	return nil
}

// yamlTierFile is the top-level YAML structure for tier files.
type yamlTierFile struct {
	Tiers []yamlTier `yaml:"tiers"`
}

// yamlTier is the YAML representation of a tier. Pointer fields fall back to
// DefaultTier when absent.
type yamlTier struct {
	ID                string   `yaml:"id"`
	Name              string   `yaml:"name"`
	MaxHealth         *int     `yaml:"max_health"`
	Speed             *float64 `yaml:"speed"`
	Aim               bool     `yaml:"aim"`
	TurnRate          *float64 `yaml:"turn_rate"`
	SearchRadius      *float64 `yaml:"search_radius"`
	FieldOfView       *float64 `yaml:"field_of_view"`
	ReacquireDistance float64  `yaml:"reacquire_distance"`
	TimeBeforeSearch  string   `yaml:"time_before_search"`
	Inaccuracy        *float64 `yaml:"inaccuracy"`
	ReturnsFire       *bool    `yaml:"returns_fire"`
	AttackAtStart     *bool    `yaml:"attack_at_start"`
}

func convertYAMLTier(y yamlTier) (Tier, error) {
	t := DefaultTier()
	t.ID = y.ID
	t.Name = y.Name
	if t.Name == "" {
		t.Name = y.ID
	}
	t.Aim = y.Aim
	t.ReacquireDistance = y.ReacquireDistance
	if y.MaxHealth != nil {
		t.MaxHealth = *y.MaxHealth
	}
	if y.Speed != nil {
		t.Speed = *y.Speed
	}
	if y.TurnRate != nil {
		t.TurnRate = *y.TurnRate
	}
	if y.SearchRadius != nil {
		t.SearchRadius = *y.SearchRadius
	}
	if y.FieldOfView != nil {
		t.FieldOfView = *y.FieldOfView
	}
	if y.Inaccuracy != nil {
		t.Inaccuracy = *y.Inaccuracy
	}
	if y.ReturnsFire != nil {
		t.ReturnsFire = *y.ReturnsFire
	}
	if y.AttackAtStart != nil {
		t.AttackAtStart = *y.AttackAtStart
	}
	if y.TimeBeforeSearch != "" {
		d, err := time.ParseDuration(y.TimeBeforeSearch)
		if err != nil {
			return Tier{}, fmt.Errorf("npc tier %q: time_before_search %q is not a valid duration: %w", y.ID, y.TimeBeforeSearch, err)
		}
		t.TimeBeforeSearch = d
	}
	return t, nil
}

// LoadTiersFromBytes parses an ordered tier list from raw YAML bytes.
//
// Precondition: data must be valid YAML with a top-level "tiers" list.
// Postcondition: Returns at least one validated Tier in file order with unique
// IDs, or an error.
func LoadTiersFromBytes(data []byte) ([]Tier, error) {
	var file yamlTierFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing tier YAML: %w", err)
	}
	if len(file.Tiers) == 0 {
		return nil, errors.New("tier file must define at least one tier")
	}

	seen := make(map[string]bool, len(file.Tiers))
	tiers := make([]Tier, 0, len(file.Tiers))
	for _, y := range file.Tiers {
		t, err := convertYAMLTier(y)
		if err != nil {
			return nil, err
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate npc tier id %q", t.ID)
		}
		seen[t.ID] = true
		tiers = append(tiers, t)
	}
	return tiers, nil
}

// LoadTiersFromFile reads and validates an ordered tier list.
//
// Precondition: path must point to a readable YAML tier file.
// Postcondition: Returns the validated tiers or a non-nil error.
func LoadTiersFromFile(path string) ([]Tier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tier file %s: %w", path, err)
	}
	tiers, err := LoadTiersFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return tiers, nil
}
