package ops

import "math"

// abs computes |x|.
//
// The local adjoint is the sign of x, with subgradient 0 at x = 0.
func abs(x float64) (value, dx float64) {
	switch {
	case x > 0:
		dx = 1
	case x < 0:
		dx = -1
	}
	return math.Abs(x), dx
}
