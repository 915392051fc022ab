package ops

import "math"

// tan computes tan(x), with d(tan(x))/dx = 1 + tan²(x).
func tan(x float64) (value, dx float64) {
	value = math.Tan(x)
	return value, 1 + value*value
}
