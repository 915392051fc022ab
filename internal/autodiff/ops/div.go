package ops

// div computes a / b.
//
// Local adjoints:
//   - d(a/b)/da = 1/b
//   - d(a/b)/db = -a/b²
//
// b = 0 is not trapped: the value and both adjoints become ±Inf or NaN.
func div(a, b float64) (value, da, db float64) {
	return a / b, 1 / b, -a / (b * b)
}
