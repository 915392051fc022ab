package expr

import (
	"strconv"
	"strings"
)

// Node is a parsed expression.
type Node interface {
	// Pos returns the byte offset of the node in the source.
	Pos() int
	String() string
}

// Number is a numeric literal.
type Number struct {
	At    int
	Value float64
}

// Ident names a variable or a predefined constant.
type Ident struct {
	At   int
	Name string
}

// Unary is a prefix operator applied to X. Op is '-' or '+'.
type Unary struct {
	At int
	Op byte
	X  Node
}

// Binary is X Op Y with Op one of + - * / ^.
type Binary struct {
	At   int
	Op   byte
	X, Y Node
}

// Call is a function application.
type Call struct {
	At   int
	Func string
	Args []Node
}

func (n *Number) Pos() int { return n.At }
func (n *Ident) Pos() int  { return n.At }
func (n *Unary) Pos() int  { return n.At }
func (n *Binary) Pos() int { return n.At }
func (n *Call) Pos() int   { return n.At }

func (n *Number) String() string { return strconv.FormatFloat(n.Value, 'g', -1, 64) }
func (n *Ident) String() string  { return n.Name }
func (n *Unary) String() string  { return "(" + string(n.Op) + n.X.String() + ")" }

func (n *Binary) String() string {
	return "(" + n.X.String() + " " + string(n.Op) + " " + n.Y.String() + ")"
}

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Func + "(" + strings.Join(args, ", ") + ")"
}
