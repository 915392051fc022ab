package autodiff

import (
	"fmt"
	"math"

	"github.com/born-ml/gradtape/internal/autodiff/ops"
)

// NoIndex marks an absent parent in Node.Parents.
const NoIndex = ops.NoIndex

// Node is one entry of a tape.
//
// Parents index earlier nodes of the same tape (NoIndex when absent). Value
// holds the constant for constant roots and is unused otherwise; per-point
// values live in a Workspace.
type Node struct {
	Op      ops.Kind
	Parents [2]int
	Value   float64
}

// IsRoot reports whether the node is a leaf.
func (n Node) IsRoot() bool {
	return n.Op == ops.Root
}

// String renders the node as "op %p0 %p1" or "root 2.5".
func (n Node) String() string {
	switch {
	case n.IsRoot():
		return fmt.Sprintf("root %g", n.Value)
	case n.Parents[1] == NoIndex:
		return fmt.Sprintf("%s %%%d", n.Op, n.Parents[0])
	default:
		return fmt.Sprintf("%s %%%d %%%d", n.Op, n.Parents[0], n.Parents[1])
	}
}

// Tape is an append-only arena of nodes in execution order.
//
// Every parent index is strictly less than the index of the node referring
// to it, so storage order is a topological order of the expression DAG.
// Bounds are checked once when a node is appended; the evaluation passes
// index the arena without further checks.
type Tape struct {
	nodes     []Node
	numVars   int
	constants map[uint64]int // Float64bits -> node index
}

// NewTape creates a tape whose first numVars nodes are independent variables.
func NewTape(numVars int) *Tape {
	t := &Tape{
		nodes:     make([]Node, 0, max(numVars, 64)), // Pre-allocate for common case
		numVars:   numVars,
		constants: make(map[uint64]int),
	}
	for range numVars {
		t.nodes = append(t.nodes, Node{Op: ops.Root, Parents: [2]int{NoIndex, NoIndex}, Value: math.NaN()})
	}
	return t
}

// Len returns the number of recorded nodes.
func (t *Tape) Len() int {
	return len(t.nodes)
}

// NumVariables returns the number of independent-variable slots.
func (t *Tape) NumVariables() int {
	return t.numVars
}

// Node returns the node at index i.
func (t *Tape) Node(i int) Node {
	return t.nodes[i]
}

// Constant returns the index of the root holding v, appending it on first use.
// Constants are deduplicated by bit pattern, so 0 and -0 are distinct and
// every NaN payload gets its own node.
func (t *Tape) Constant(v float64) int {
	key := math.Float64bits(v)
	if idx, ok := t.constants[key]; ok {
		return idx
	}
	idx := len(t.nodes)
	t.nodes = append(t.nodes, Node{Op: ops.Root, Parents: [2]int{NoIndex, NoIndex}, Value: v})
	t.constants[key] = idx
	return idx
}

// IsConstant reports whether node i is a constant root.
func (t *Tape) IsConstant(i int) bool {
	return i >= t.numVars && t.nodes[i].IsRoot()
}

// Record appends an operation node and returns its index. p1 must be NoIndex
// for unary operations.
//
// Record panics if the operation is unknown, if the number of parents does
// not match its arity, or if a parent does not precede the new node.
func (t *Tape) Record(op ops.Kind, p0, p1 int) int {
	idx := len(t.nodes)
	switch op.Arity() {
	case 1:
		if p1 != NoIndex {
			panic(fmt.Sprintf("autodiff: %s takes one operand", op))
		}
		t.checkParent(op, p0, idx)
	case 2:
		t.checkParent(op, p0, idx)
		t.checkParent(op, p1, idx)
	default:
		panic(fmt.Sprintf("autodiff: cannot record %s", op))
	}
	t.nodes = append(t.nodes, Node{Op: op, Parents: [2]int{p0, p1}})
	return idx
}

func (t *Tape) checkParent(op ops.Kind, p, idx int) {
	if p < 0 || p >= idx {
		panic(fmt.Sprintf("autodiff: %s operand %d out of range [0, %d)", op, p, idx))
	}
}
