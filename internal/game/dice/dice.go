// Package dice provides the randomness abstraction used for aim jitter and
// search-point sampling.
package dice

import "math"

// Source is the randomness provider for all simulation draws.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}

// Uniform draws a value in [lo, hi) from src.
//
// Precondition: lo <= hi.
// Postcondition: lo <= result < hi, or result == lo when lo == hi.
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// InDisc draws a horizontal offset uniformly distributed over a disc of radius r.
//
// Precondition: r >= 0.
// Postcondition: dx*dx + dz*dz <= r*r.
func InDisc(src Source, r float64) (dx, dz float64) {
	dist := r * math.Sqrt(src.Float64())
	theta := 2 * math.Pi * src.Float64()
	return dist * math.Cos(theta), dist * math.Sin(theta)
}
