// Package scoring computes the score awarded at the end of an encounter.
package scoring

import "time"

// Time thresholds for the speed multiplier, checked in order.
const (
	FastLimit   = 30 * time.Second
	MediumLimit = 45 * time.Second
	SlowLimit   = 60 * time.Second
)

// Result is the immutable outcome of one encounter.
type Result struct {
	PlayerHealth    int
	AdversaryHealth int
	Elapsed         time.Duration
	Tier            int
	TimeMultiplier  int
	TierMultiplier  int
	// LevelScoreDelta is added to the game score; it may be negative.
	LevelScoreDelta int
}

// TimeMultiplier returns 5, 3, 2 or 1 for an encounter that took elapsed.
func TimeMultiplier(elapsed time.Duration) int {
	switch {
	case elapsed < FastLimit:
		return 5
	case elapsed < MediumLimit:
		return 3
	case elapsed < SlowLimit:
		return 2
	default:
		return 1
	}
}

// TierMultiplier returns 2^tier + 1. Negative tiers count as tier 0.
//
// Precondition: tier < 62.
func TierMultiplier(tier int) int {
	if tier < 0 {
		tier = 0
	}
	return 1<<uint(tier) + 1
}

// Score returns the level score delta for an encounter.
//
// A positive health differential is multiplied by the time and tier
// multipliers; a zero or negative differential is returned unchanged.
//
// Precondition: 0 <= tier < 62.
// Postcondition: deterministic in its four arguments.
func Score(playerHealth, adversaryHealth int, elapsed time.Duration, tier int) int {
	return Evaluate(playerHealth, adversaryHealth, elapsed, tier).LevelScoreDelta
}

// Evaluate is Score with its intermediate values.
func Evaluate(playerHealth, adversaryHealth int, elapsed time.Duration, tier int) Result {
	r := Result{
		PlayerHealth:    playerHealth,
		AdversaryHealth: adversaryHealth,
		Elapsed:         elapsed,
		Tier:            tier,
		TimeMultiplier:  TimeMultiplier(elapsed),
		TierMultiplier:  TierMultiplier(tier),
	}
	raw := playerHealth - adversaryHealth
	if raw > 0 {
		r.LevelScoreDelta = raw * r.TimeMultiplier * r.TierMultiplier
	} else {
		r.LevelScoreDelta = raw
	}
	return r
}
