package autodiff

import (
	"bufio"
	"fmt"
	"io"
)

// Graph is a recorded scalar function of NumVariables inputs.
//
// The node array is immutable once constructed and may be shared freely.
// Evaluate and Gradient use a workspace embedded in the Graph and are not
// safe for concurrent use; concurrent callers take their own Workspace from
// NewWorkspace or a copy from Clone.
type Graph struct {
	nodes       []Node
	numVars     int
	numRoots    int  // Length of the leading block of roots.
	interleaved bool // Some root appears after numRoots.
	output      int
	ws          *Workspace
}

// Stats summarises the shape of a graph.
type Stats struct {
	Nodes      int // Total nodes.
	Variables  int // Independent variables.
	Constants  int // Constant roots.
	Operations int // Non-root nodes.
	Edges      int // Parent references.
}

// Result is the value and gradient of a graph at one point.
type Result struct {
	Value    float64
	Gradient []float64
}

func newGraph(nodes []Node, numVars, numRoots, output int, hoisted bool) *Graph {
	g := &Graph{
		nodes:    nodes,
		numVars:  numVars,
		numRoots: numRoots,
		output:   output,
	}
	if !hoisted {
		for _, n := range nodes[numRoots:] {
			if n.IsRoot() {
				g.interleaved = true
				break
			}
		}
	}
	g.ws = g.NewWorkspace()
	return g
}

// FromNodes rebuilds a Graph from nodes previously read out of another
// Graph with Node, such as a deserialized tape. The first numVars nodes must
// be roots, every operation must reference earlier nodes with its exact
// arity, and output must index a node. Nothing is pruned or reordered.
func FromNodes(nodes []Node, numVars, output int) (*Graph, error) {
	if numVars < 0 || numVars > len(nodes) {
		return nil, fmt.Errorf("%w: %d variables for %d nodes", ErrInvalidGraph, numVars, len(nodes))
	}
	if output < 0 || output >= len(nodes) {
		return nil, fmt.Errorf("%w: output %d out of range [0, %d)", ErrInvalidGraph, output, len(nodes))
	}

	numRoots := 0
	for i, n := range nodes {
		if !n.Op.Valid() {
			return nil, fmt.Errorf("%w: node %d: unknown op %d", ErrInvalidGraph, i, n.Op)
		}
		if n.IsRoot() {
			if n.Parents != [2]int{NoIndex, NoIndex} {
				return nil, fmt.Errorf("%w: node %d: root with parents", ErrInvalidGraph, i)
			}
			if numRoots == i {
				numRoots++
			}
			continue
		}
		if i < numVars {
			return nil, fmt.Errorf("%w: node %d: variable slot holds %s", ErrInvalidGraph, i, n.Op)
		}
		for slot, p := range n.Parents {
			want := slot < n.Op.Arity()
			if !want && p != NoIndex {
				return nil, fmt.Errorf("%w: node %d: %s takes %d parent(s)", ErrInvalidGraph, i, n.Op, n.Op.Arity())
			}
			if want && (p < 0 || p >= i) {
				return nil, fmt.Errorf("%w: node %d: parent %d out of range [0, %d)", ErrInvalidGraph, i, p, i)
			}
		}
	}

	return newGraph(append([]Node(nil), nodes...), numVars, numRoots, output, false), nil
}

// NumVariables returns the number of independent variables.
func (g *Graph) NumVariables() int {
	return g.numVars
}

// NumRoots returns the number of leaves stored before the first operation.
// When constants are hoisted this is every leaf of the graph.
func (g *Graph) NumRoots() int {
	return g.numRoots
}

// NumConstants returns the number of constant roots.
func (g *Graph) NumConstants() int {
	return g.Stats().Constants
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Output returns the index of the output node.
func (g *Graph) Output() int {
	return g.output
}

// Node returns a copy of node i.
func (g *Graph) Node(i int) Node {
	return g.nodes[i]
}

// Stats counts the nodes and edges of the graph.
func (g *Graph) Stats() Stats {
	s := Stats{Nodes: len(g.nodes), Variables: g.numVars}
	for i, n := range g.nodes {
		switch {
		case !n.IsRoot():
			s.Operations++
			s.Edges += n.Op.Arity()
		case i >= g.numVars:
			s.Constants++
		}
	}
	return s
}

// WriteTo writes one line per node in tape order, marking variables and the
// output. It implements io.WriterTo.
func (g *Graph) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for i, n := range g.nodes {
		label := n.String()
		if i < g.numVars {
			label = fmt.Sprintf("var x%d", i)
		}
		marker := ""
		if i == g.output {
			marker = "  <- output"
		}
		written, err := fmt.Fprintf(bw, "%%%d = %s%s\n", i, label, marker)
		total += int64(written)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

// Clone returns a Graph sharing g's nodes with its own evaluation cache.
func (g *Graph) Clone() *Graph {
	c := *g
	c.ws = c.NewWorkspace()
	return &c
}

// Evaluate computes the output at point. See Workspace.Evaluate.
func (g *Graph) Evaluate(point []float64) (float64, error) {
	return g.ws.Evaluate(point)
}

// Gradient returns the gradient at the point of the last Evaluate.
// See Workspace.Gradient.
func (g *Graph) Gradient() ([]float64, error) {
	return g.ws.Gradient()
}

// EvaluateGradient evaluates point and returns its value and gradient.
func (g *Graph) EvaluateGradient(point []float64) (Result, error) {
	return g.ws.EvaluateGradient(point)
}
