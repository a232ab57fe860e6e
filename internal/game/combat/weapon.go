package combat

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/duelpanto/internal/game/spatial"
)

// Weapon describes a hitscan gun fired once per tick.
type Weapon struct {
	// Damage is applied to the struck Health on every hit.
	Damage int
	// MaxRange bounds the ray.
	MaxRange float64
	// ConeHalfAngle is the assist-aim cone in degrees.
	ConeHalfAngle float64
	// Assist enables snapping the ray to a known target inside the cone.
	Assist bool
	// Mask selects the layers the ray may strike.
	Mask spatial.Mask
}

// DefaultWeapon returns the stock gun carried by both combatants.
func DefaultWeapon() Weapon {
	return Weapon{
		Damage:        2,
		MaxRange:      20,
		ConeHalfAngle: 2,
		Assist:        true,
		Mask:          spatial.LayerWalls | spatial.LayerCombatants,
	}
}

// Validate checks that the weapon satisfies its invariants.
//
// Postcondition: Returns nil iff Damage >= 1, MaxRange > 0, ConeHalfAngle in [0, 180],
// and Mask is non-zero.
func (w Weapon) Validate() error {
	var errs []string
	if w.Damage < 1 {
		errs = append(errs, fmt.Sprintf("damage must be >= 1, got %d", w.Damage))
	}
	if w.MaxRange <= 0 {
		errs = append(errs, fmt.Sprintf("max_range must be > 0, got %v", w.MaxRange))
	}
	if w.ConeHalfAngle < 0 || w.ConeHalfAngle > 180 {
		errs = append(errs, fmt.Sprintf("cone_half_angle must be in [0, 180], got %v", w.ConeHalfAngle))
	}
	if w.Mask == 0 {
		errs = append(errs, "mask must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon: %s", strings.Join(errs, "; "))
	}
	return nil
}
