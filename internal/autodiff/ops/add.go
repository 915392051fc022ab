package ops

// add computes a + b.
//
// Local adjoints:
//   - d(a+b)/da = 1
//   - d(a+b)/db = 1
func add(a, b float64) (value, da, db float64) {
	return a + b, 1, 1
}
