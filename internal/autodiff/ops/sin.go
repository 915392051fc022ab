package ops

import "math"

// sin computes sin(x), with d(sin(x))/dx = cos(x).
func sin(x float64) (value, dx float64) {
	s, c := math.Sincos(x)
	return s, c
}
