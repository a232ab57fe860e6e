// Package health implements the damage/defeat ledger owned by each combatant.
package health

import (
	"fmt"

	"github.com/cory-johannsen/duelpanto/internal/game/entity"
)

// DamageEvent is raised when damage leaves the owner alive.
type DamageEvent struct {
	// Owner is the damaged combatant.
	Owner entity.ID
	// Source is the combatant that dealt the damage.
	Source entity.ID
	// Amount is the damage applied.
	Amount int
	// Remaining is the owner's points after the damage.
	Remaining int
}

// DefeatEvent is raised exactly once when the owner's points first reach zero.
type DefeatEvent struct {
	// Owner is the defeated combatant.
	Owner entity.ID
	// Source is the combatant that dealt the final damage.
	Source entity.ID
}

// Health tracks one combatant's hit points.
//
// Invariant: 0 <= points <= max at all times.
// Invariant: at most one DefeatEvent is raised between two Reset calls.
//
// Health is not safe for concurrent use; it is owned by the single
// simulation goroutine.
type Health struct {
	owner      entity.ID
	points     int
	max        int
	defeated   bool
	onDamaged  []func(DamageEvent)
	onDefeated []func(DefeatEvent)
}

// New creates a Health at full points for owner.
//
// Precondition: max > 0.
// Postcondition: Points() == max; IsDefeated() is false.
func New(owner entity.ID, max int) (*Health, error) {
	if max <= 0 {
		return nil, fmt.Errorf("health: max must be > 0, got %d", max)
	}
	return &Health{owner: owner, points: max, max: max}, nil
}

// Owner returns the handle this ledger reports in its notifications.
func (h *Health) Owner() entity.ID { return h.owner }

// Points returns the current hit points.
func (h *Health) Points() int { return h.points }

// Max returns the hit point pool size.
func (h *Health) Max() int { return h.max }

// IsDefeated reports whether the ledger has reached zero since the last Reset.
func (h *Health) IsDefeated() bool { return h.defeated }

// Fraction returns Points()/Max() in [0, 1].
func (h *Health) Fraction() float64 {
	return float64(h.points) / float64(h.max)
}

// OnDamaged registers fn to receive DamageEvents in registration order.
//
// Precondition: fn must not be nil.
func (h *Health) OnDamaged(fn func(DamageEvent)) {
	h.onDamaged = append(h.onDamaged, fn)
}

// OnDefeated registers fn to receive the DefeatEvent in registration order.
//
// Precondition: fn must not be nil.
func (h *Health) OnDefeated(fn func(DefeatEvent)) {
	h.onDefeated = append(h.onDefeated, fn)
}

// ApplyDamage removes amount points, attributing the damage to source.
// Non-positive amounts and calls on a defeated ledger change nothing.
//
// Postcondition: points is decremented and clamped at 0; exactly one of
// DamageEvent or DefeatEvent is raised for an accepted call.
func (h *Health) ApplyDamage(amount int, source entity.ID) {
	if amount <= 0 || h.defeated {
		return
	}
	h.points -= amount
	if h.points <= 0 {
		h.points = 0
		h.defeated = true
		ev := DefeatEvent{Owner: h.owner, Source: source}
		for _, fn := range h.onDefeated {
			fn(ev)
		}
		return
	}
	ev := DamageEvent{Owner: h.owner, Source: source, Amount: amount, Remaining: h.points}
	for _, fn := range h.onDamaged {
		fn(ev)
	}
}

// Heal restores amount points, clamped at max. No notification is raised.
// Non-positive amounts and calls on a defeated ledger change nothing.
func (h *Health) Heal(amount int) {
	if amount <= 0 || h.defeated {
		return
	}
	h.points = min(h.points+amount, h.max)
}

// Reset restores full points and clears the defeat latch.
//
// Postcondition: Points() == Max(); IsDefeated() is false.
func (h *Health) Reset() {
	h.points = h.max
	h.defeated = false
}

// Resize changes the pool size and resets to full. Used when a new tier
// assigns a different health pool to the same combatant.
//
// Precondition: max > 0.
// Postcondition: Max() == max; Points() == max.
func (h *Health) Resize(max int) error {
	if max <= 0 {
		return fmt.Errorf("health: max must be > 0, got %d", max)
	}
	h.max = max
	h.Reset()
	return nil
}
