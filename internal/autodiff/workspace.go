package autodiff

import (
	"math"

	"github.com/born-ml/gradtape/internal/autodiff/ops"
)

// Workspace holds the per-point state of a Graph: the forward value and the
// two local adjoints of every node, plus the reverse-pass accumulator.
//
// A Workspace belongs to one goroutine at a time. Distinct workspaces of the
// same Graph share nothing mutable and may be used concurrently.
type Workspace struct {
	g         *Graph
	values    []float64
	adjoints  [][2]float64
	acc       []float64
	evaluated bool
}

// NewWorkspace returns an empty evaluation cache for g.
func (g *Graph) NewWorkspace() *Workspace {
	w := &Workspace{
		g:        g,
		values:   make([]float64, len(g.nodes)),
		adjoints: make([][2]float64, len(g.nodes)),
		acc:      make([]float64, len(g.nodes)),
	}
	for i, n := range g.nodes {
		w.values[i] = math.NaN()
		if n.IsRoot() && i >= g.numVars {
			w.values[i] = n.Value
		}
	}
	return w
}

// Graph returns the graph the workspace evaluates.
func (w *Workspace) Graph() *Graph {
	return w.g
}

// Evaluated reports whether Evaluate has succeeded at least once.
func (w *Workspace) Evaluated() bool {
	return w.evaluated
}

// Value returns the cached forward value of node i.
func (w *Workspace) Value(i int) float64 {
	return w.values[i]
}

// Adjoints returns the cached local adjoints of node i.
func (w *Workspace) Adjoints(i int) [2]float64 {
	return w.adjoints[i]
}

// Evaluate runs the forward pass at point and returns the output value.
//
// point must hold exactly one value per independent variable; otherwise an
// *ArityError is returned and the cache is left untouched. Every operation
// node is recomputed in tape order, storing its value and local adjoints.
func (w *Workspace) Evaluate(point []float64) (float64, error) {
	g := w.g
	if len(point) != g.numVars {
		return 0, &ArityError{Want: g.numVars, Got: len(point)}
	}

	copy(w.values, point)

	values, adjoints := w.values, w.adjoints
	for i := g.numRoots; i < len(g.nodes); i++ {
		n := &g.nodes[i]
		if g.interleaved && n.Op == ops.Root {
			continue
		}
		v1 := 0.0
		if p1 := n.Parents[1]; p1 != NoIndex {
			v1 = values[p1]
		}
		values[i], adjoints[i][0], adjoints[i][1] = ops.Forward(n.Op, values[n.Parents[0]], v1)
	}

	w.evaluated = true
	return values[g.output], nil
}

// EvaluateGradient runs Evaluate then Gradient.
func (w *Workspace) EvaluateGradient(point []float64) (Result, error) {
	value, err := w.Evaluate(point)
	if err != nil {
		return Result{}, err
	}
	grad, err := w.Gradient()
	if err != nil {
		return Result{}, err
	}
	return Result{Value: value, Gradient: grad}, nil
}
