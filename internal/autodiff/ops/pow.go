package ops

import "math"

// pow computes a^b.
//
// Local adjoints:
//   - d(a^b)/da = b * a^(b-1)
//   - d(a^b)/db = a^b * ln(a)
//
// The exponent adjoint is NaN for a < 0 (and for a = 0 with b > 0). It only
// reaches a gradient when the exponent depends on a variable.
func pow(a, b float64) (value, da, db float64) {
	value = math.Pow(a, b)
	return value, b * math.Pow(a, b-1), value * math.Log(a)
}
