package ops

import "math"

// exp computes e^x. d(exp(x))/dx = exp(x), so the value is reused.
func exp(x float64) (value, dx float64) {
	value = math.Exp(x)
	return value, value
}
