package autodiff

import "github.com/born-ml/gradtape/internal/autodiff/ops"

// Builder is the construction-time context of a Graph. Arithmetic on Var
// handles appends nodes to the builder's tape while the builder is active.
//
// A Builder is created by Construct, handed to the BuildFunc and closed as
// soon as the BuildFunc returns. Handles that outlive it can no longer be
// combined. A Builder must only be used from the goroutine running the
// BuildFunc.
type Builder struct {
	tape   *Tape
	vars   []Var
	active bool
}

func newBuilder(numVars int) *Builder {
	b := &Builder{tape: NewTape(numVars)}
	b.vars = make([]Var, numVars)
	for i := range b.vars {
		b.vars[i] = Var{b: b, index: i}
	}
	return b
}

// Variables returns handles to the independent variables in declaration order.
func (b *Builder) Variables() []Var {
	return append([]Var(nil), b.vars...)
}

// Const returns a handle to a constant leaf holding v. Equal constants share
// one node.
func (b *Builder) Const(v float64) Var {
	b.mustBeActive("const")
	return Var{b: b, index: b.tape.Constant(v)}
}

// Len returns the number of nodes recorded so far.
func (b *Builder) Len() int {
	return b.tape.Len()
}

// Active reports whether handle arithmetic is currently allowed.
func (b *Builder) Active() bool {
	return b != nil && b.active
}

func (b *Builder) mustBeActive(op string) {
	if !b.Active() {
		panicUsage(op, ErrNoActiveContext)
	}
}

// Var is a handle to a node of the tape under construction. It carries no
// value of its own; all state lives in the tape. The zero Var is not bound
// to any builder.
type Var struct {
	b     *Builder
	index int
}

// Index returns the tape position of the handle.
func (v Var) Index() int {
	return v.index
}

// Builder returns the builder the handle was created by, or nil.
func (v Var) Builder() *Builder {
	return v.b
}

func (v Var) unary(op ops.Kind) Var {
	v.b.mustBeActive(op.String())
	return Var{b: v.b, index: v.b.tape.Record(op, v.index, NoIndex)}
}

func (v Var) binary(op ops.Kind, w Var) Var {
	v.b.mustBeActive(op.String())
	if !w.b.Active() {
		panicUsage(op.String(), ErrNoActiveContext)
	}
	if w.b != v.b {
		panicUsage(op.String(), ErrForeignHandle)
	}
	return Var{b: v.b, index: v.b.tape.Record(op, v.index, w.index)}
}

// Add returns v + w.
func (v Var) Add(w Var) Var { return v.binary(ops.Add, w) }

// Sub returns v - w.
func (v Var) Sub(w Var) Var { return v.binary(ops.Sub, w) }

// Mul returns v * w.
func (v Var) Mul(w Var) Var { return v.binary(ops.Mul, w) }

// Div returns v / w.
func (v Var) Div(w Var) Var { return v.binary(ops.Div, w) }

// Pow returns v raised to the power w.
func (v Var) Pow(w Var) Var { return v.binary(ops.Pow, w) }

// Min returns the smaller of v and w, preferring v on ties.
func (v Var) Min(w Var) Var { return v.binary(ops.Min, w) }

// Max returns the larger of v and w, preferring v on ties.
func (v Var) Max(w Var) Var { return v.binary(ops.Max, w) }

// Exp returns e^v.
func (v Var) Exp() Var { return v.unary(ops.Exp) }

// Log returns the natural logarithm of v.
func (v Var) Log() Var { return v.unary(ops.Log) }

// Sin returns sin(v).
func (v Var) Sin() Var { return v.unary(ops.Sin) }

// Cos returns cos(v).
func (v Var) Cos() Var { return v.unary(ops.Cos) }

// Tan returns tan(v).
func (v Var) Tan() Var { return v.unary(ops.Tan) }

// Abs returns |v|.
func (v Var) Abs() Var { return v.unary(ops.Abs) }

// Neg returns -v, recorded as 0 - v.
func (v Var) Neg() Var {
	v.b.mustBeActive("neg")
	return v.b.Const(0).Sub(v)
}

// AddConst returns v + c.
func (v Var) AddConst(c float64) Var { return v.binary(ops.Add, v.constant("add", c)) }

// SubConst returns v - c.
func (v Var) SubConst(c float64) Var { return v.binary(ops.Sub, v.constant("sub", c)) }

// MulConst returns v * c.
func (v Var) MulConst(c float64) Var { return v.binary(ops.Mul, v.constant("mul", c)) }

// DivConst returns v / c.
func (v Var) DivConst(c float64) Var { return v.binary(ops.Div, v.constant("div", c)) }

// PowConst returns v^c.
func (v Var) PowConst(c float64) Var { return v.binary(ops.Pow, v.constant("pow", c)) }

func (v Var) constant(op string, c float64) Var {
	v.b.mustBeActive(op)
	return v.b.Const(c)
}
