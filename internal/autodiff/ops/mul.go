package ops

// mul computes a * b.
//
// Local adjoints:
//   - d(a*b)/da = b
//   - d(a*b)/db = a
func mul(a, b float64) (value, da, db float64) {
	return a * b, b, a
}
