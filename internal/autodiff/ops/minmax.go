package ops

// minimum selects the smaller of a and b. The selected parent receives
// adjoint 1 and the other 0; on ties a is selected.
func minimum(a, b float64) (value, da, db float64) {
	if a <= b {
		return a, 1, 0
	}
	return b, 0, 1
}

// maximum selects the larger of a and b. The selected parent receives
// adjoint 1 and the other 0; on ties a is selected.
func maximum(a, b float64) (value, da, db float64) {
	if a >= b {
		return a, 1, 0
	}
	return b, 0, 1
}
