package util

import "math"

// AbsFloat64 returns the absolute value of x.
func AbsFloat64(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// IsWhole reports whether x has no fractional part.
func IsWhole(x float64) bool {
	return x == math.Trunc(x)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
