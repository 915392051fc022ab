// Package ops defines the closed set of scalar operations recorded on a tape.
//
// Each operation provides, given its already computed parent values, the
// node's forward value and its local adjoints (the partial derivatives of the
// node with respect to each direct parent):
//   - Add: d(a+b)/da = 1, d(a+b)/db = 1
//   - Sub: d(a-b)/da = 1, d(a-b)/db = -1
//   - Mul: d(a*b)/da = b, d(a*b)/db = a
//   - Div: d(a/b)/da = 1/b, d(a/b)/db = -a/b²
//   - Pow: d(a^b)/da = b*a^(b-1), d(a^b)/db = a^b*ln(a)
//   - Exp, Log, Sin, Cos, Tan, Abs: single-parent rules
//   - Min, Max: subgradient selecting one parent, ties go to the first
//
// Root marks a leaf (independent variable or constant) and has no forward rule.
package ops

import "fmt"

// NoIndex marks an absent parent.
const NoIndex = -1

// Kind identifies a tape operation.
type Kind uint8

// Operation kinds.
const (
	Root Kind = iota
	Add
	Sub
	Mul
	Div
	Pow
	Exp
	Log
	Sin
	Cos
	Tan
	Abs
	Min
	Max

	numKinds
)

var kindNames = [numKinds]string{
	Root: "root",
	Add:  "add",
	Sub:  "sub",
	Mul:  "mul",
	Div:  "div",
	Pow:  "pow",
	Exp:  "exp",
	Log:  "log",
	Sin:  "sin",
	Cos:  "cos",
	Tan:  "tan",
	Abs:  "abs",
	Min:  "min",
	Max:  "max",
}

// String returns the lower-case operation name.
func (k Kind) String() string {
	if k >= numKinds {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Arity returns the number of parents the operation reads: 0 for Root,
// 1 for unary functions, 2 for binary operators.
func (k Kind) Arity() int {
	switch k {
	case Root:
		return 0
	case Exp, Log, Sin, Cos, Tan, Abs:
		return 1
	case Add, Sub, Mul, Div, Pow, Min, Max:
		return 2
	default:
		return -1
	}
}

// Valid reports whether k is a known operation.
func (k Kind) Valid() bool {
	return k < numKinds
}

// ParseKind returns the Kind with the given name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("ops: unknown operation %q", name)
}

// Forward computes the value of an operation from its parent values v0 and
// v1, together with the local adjoints d0 = ∂value/∂v0 and d1 = ∂value/∂v1.
// Unary operations ignore v1 and report d1 = 0. Root is not computed and
// returns v0 unchanged with zero adjoints.
//
// Floating-point domain errors (division by zero, log of a negative number)
// are not trapped and surface as NaN or ±Inf.
func Forward(k Kind, v0, v1 float64) (value, d0, d1 float64) {
	switch k {
	case Add:
		return add(v0, v1)
	case Sub:
		return sub(v0, v1)
	case Mul:
		return mul(v0, v1)
	case Div:
		return div(v0, v1)
	case Pow:
		return pow(v0, v1)
	case Exp:
		value, d0 = exp(v0)
	case Log:
		value, d0 = log(v0)
	case Sin:
		value, d0 = sin(v0)
	case Cos:
		value, d0 = cos(v0)
	case Tan:
		value, d0 = tan(v0)
	case Abs:
		value, d0 = abs(v0)
	case Min:
		return minimum(v0, v1)
	case Max:
		return maximum(v0, v1)
	default:
		return v0, 0, 0
	}
	return value, d0, 0
}
