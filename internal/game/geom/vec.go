// Package geom provides the small amount of 3D vector and yaw arithmetic the
// combat core needs.
//
// Yaw is measured in degrees about the +Y axis. Yaw 0 faces +Z and yaw 90
// faces +X.
package geom

import "math"

// Epsilon is the length below which a vector is treated as degenerate.
const Epsilon = 1e-9

// Vec3 is a point or direction in world space.
type Vec3 struct {
	X, Y, Z float64
}

// V constructs a Vec3.
func V(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

// Add returns v+o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v-o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v*s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Dist returns the distance between v and o.
func (v Vec3) Dist(o Vec3) float64 { return v.Sub(o).Len() }

// Flat returns v with Y zeroed.
func (v Vec3) Flat() Vec3 { return Vec3{v.X, 0, v.Z} }

// IsZero reports whether v is shorter than Epsilon.
func (v Vec3) IsZero() bool { return v.Len() < Epsilon }

// Normalized returns the unit vector along v.
//
// Postcondition: ok is false and the zero vector is returned when v is degenerate.
func (v Vec3) Normalized() (unit Vec3, ok bool) {
	l := v.Len()
	if l < Epsilon {
		return Vec3{}, false
	}
	return v.Scale(1 / l), true
}

// AngleBetween returns the unsigned angle between a and b in degrees, in [0, 180].
//
// Postcondition: Returns 0 when either vector is degenerate.
func AngleBetween(a, b Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la < Epsilon || lb < Epsilon {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c) * 180 / math.Pi
}

// Forward returns the horizontal unit vector faced at yaw degrees.
func Forward(yaw float64) Vec3 {
	r := yaw * math.Pi / 180
	return Vec3{X: math.Sin(r), Z: math.Cos(r)}
}

// YawOf returns the yaw that faces along v's horizontal projection.
//
// Postcondition: ok is false when v has no horizontal component.
func YawOf(v Vec3) (yaw float64, ok bool) {
	if math.Hypot(v.X, v.Z) < Epsilon {
		return 0, false
	}
	return math.Atan2(v.X, v.Z) * 180 / math.Pi, true
}

// NormalizeDegrees wraps a to (-180, 180].
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}
	return a
}

// RotateTowards turns current toward target by at most maxDelta degrees along
// the shorter arc.
//
// Precondition: maxDelta >= 0.
// Postcondition: |NormalizeDegrees(result-current)| <= maxDelta; the result is
// normalized to (-180, 180].
func RotateTowards(current, target, maxDelta float64) float64 {
	diff := NormalizeDegrees(target - current)
	if math.Abs(diff) <= maxDelta {
		return NormalizeDegrees(target)
	}
	if diff > 0 {
		return NormalizeDegrees(current + maxDelta)
	}
	return NormalizeDegrees(current - maxDelta)
}
