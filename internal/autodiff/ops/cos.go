package ops

import "math"

// cos computes cos(x), with d(cos(x))/dx = -sin(x).
func cos(x float64) (value, dx float64) {
	s, c := math.Sincos(x)
	return c, -s
}
