package expr

import (
	"fmt"
	"math"

	"github.com/born-ml/gradtape/internal/autodiff"
)

// Predefined constants, shadowed by variables of the same name.
var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

type function struct {
	arity int
	apply func(args []autodiff.Var) autodiff.Var
}

var functions = map[string]function{
	"exp": {1, func(a []autodiff.Var) autodiff.Var { return a[0].Exp() }},
	"log": {1, func(a []autodiff.Var) autodiff.Var { return a[0].Log() }},
	"sin": {1, func(a []autodiff.Var) autodiff.Var { return a[0].Sin() }},
	"cos": {1, func(a []autodiff.Var) autodiff.Var { return a[0].Cos() }},
	"tan": {1, func(a []autodiff.Var) autodiff.Var { return a[0].Tan() }},
	"abs": {1, func(a []autodiff.Var) autodiff.Var { return a[0].Abs() }},
	"min": {2, func(a []autodiff.Var) autodiff.Var { return a[0].Min(a[1]) }},
	"max": {2, func(a []autodiff.Var) autodiff.Var { return a[0].Max(a[1]) }},
	"pow": {2, func(a []autodiff.Var) autodiff.Var { return a[0].Pow(a[1]) }},
}

// Program is an expression checked against a list of variable names.
type Program struct {
	Source    string
	Root      Node
	Variables []string
	index     map[string]int
}

// Compile parses src and resolves every identifier against vars. Unknown
// names, unknown functions and wrong argument counts are reported as
// *SyntaxError.
func Compile(src string, vars []string) (*Program, error) {
	index := make(map[string]int, len(vars))
	for i, name := range vars {
		if name == "" {
			return nil, fmt.Errorf("expr: variable %d has no name", i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("expr: duplicate variable %q", name)
		}
		index[name] = i
	}

	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	p := &Program{Source: src, Root: root, Variables: append([]string(nil), vars...), index: index}
	if err := p.check(root); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Program) check(n Node) error {
	switch n := n.(type) {
	case *Ident:
		if _, ok := p.index[n.Name]; ok {
			return nil
		}
		if _, ok := constants[n.Name]; ok {
			return nil
		}
		return &SyntaxError{Pos: n.At, Msg: fmt.Sprintf("unknown variable %q", n.Name)}
	case *Unary:
		return p.check(n.X)
	case *Binary:
		if err := p.check(n.X); err != nil {
			return err
		}
		return p.check(n.Y)
	case *Call:
		fn, ok := functions[n.Func]
		if !ok {
			return &SyntaxError{Pos: n.At, Msg: fmt.Sprintf("unknown function %q", n.Func)}
		}
		if len(n.Args) != fn.arity {
			return &SyntaxError{Pos: n.At, Msg: fmt.Sprintf("%s takes %d argument(s), got %d", n.Func, fn.arity, len(n.Args))}
		}
		for _, a := range n.Args {
			if err := p.check(a); err != nil {
				return err
			}
		}
	}
	return nil
}

// Build records the program on b. It has the autodiff.BuildFunc signature.
func (p *Program) Build(b *autodiff.Builder, vars []autodiff.Var) (autodiff.Var, error) {
	if len(vars) != len(p.Variables) {
		return autodiff.Var{}, &autodiff.ArityError{Want: len(p.Variables), Got: len(vars)}
	}
	return p.emit(b, vars, p.Root), nil
}

// Graph constructs the program with cfg.
func (p *Program) Graph(cfg autodiff.Config) (*autodiff.Graph, error) {
	return autodiff.ConstructWithConfig(len(p.Variables), p.Build, cfg)
}

func (p *Program) emit(b *autodiff.Builder, vars []autodiff.Var, n Node) autodiff.Var {
	switch n := n.(type) {
	case *Number:
		return b.Const(n.Value)
	case *Ident:
		if i, ok := p.index[n.Name]; ok {
			return vars[i]
		}
		return b.Const(constants[n.Name])
	case *Unary:
		if num, ok := n.X.(*Number); ok && n.Op == '-' {
			return b.Const(-num.Value)
		}
		x := p.emit(b, vars, n.X)
		if n.Op == '-' {
			return x.Neg()
		}
		return x
	case *Binary:
		x := p.emit(b, vars, n.X)
		y := p.emit(b, vars, n.Y)
		switch n.Op {
		case '+':
			return x.Add(y)
		case '-':
			return x.Sub(y)
		case '*':
			return x.Mul(y)
		case '/':
			return x.Div(y)
		default:
			return x.Pow(y)
		}
	case *Call:
		args := make([]autodiff.Var, len(n.Args))
		for i, a := range n.Args {
			args[i] = p.emit(b, vars, a)
		}
		return functions[n.Func].apply(args)
	}
	panic(fmt.Sprintf("expr: unexpected node %T", n))
}
