package ops

import "math"

// log computes the natural logarithm ln(x), with d(ln(x))/dx = 1/x.
//
// x <= 0 yields NaN or -Inf, propagated rather than reported.
func log(x float64) (value, dx float64) {
	return math.Log(x), 1 / x
}
