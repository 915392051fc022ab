package autodiff

// Gradient returns ∂output/∂x for every independent variable x, in
// declaration order, at the point of the last successful Evaluate.
//
// Algorithm:
//  1. Seed the accumulator with 1 at the output node, 0 elsewhere
//  2. Walk nodes from the output down to the first operation
//  3. For each parent p of node n: acc[p] += acc[n] * adjoint(n, p)
//
// Each edge is visited exactly once, so a subexpression shared by many
// consumers costs one visit while still receiving every consumer's
// contribution.
//
// Returns ErrNotEvaluated if Evaluate has not succeeded yet.
func (w *Workspace) Gradient() ([]float64, error) {
	grad := make([]float64, w.g.numVars)
	if err := w.GradientInto(grad); err != nil {
		return nil, err
	}
	return grad, nil
}

// GradientInto is Gradient writing into dst, which must have one slot per
// independent variable.
func (w *Workspace) GradientInto(dst []float64) error {
	if !w.evaluated {
		return ErrNotEvaluated
	}
	g := w.g
	if len(dst) != g.numVars {
		return &ArityError{Want: g.numVars, Got: len(dst)}
	}

	acc := w.acc
	clear(acc)
	acc[g.output] = 1

	for i := g.output; i >= g.numRoots; i-- {
		a := acc[i]
		n := &g.nodes[i]
		if p := n.Parents[0]; p != NoIndex {
			acc[p] += a * w.adjoints[i][0]
		}
		if p := n.Parents[1]; p != NoIndex {
			acc[p] += a * w.adjoints[i][1]
		}
	}

	copy(dst, acc[:g.numVars])
	return nil
}
