// Package expr parses infix arithmetic expressions and compiles them into
// autodiff build functions.
//
// Grammar, loosest binding first:
//
//	expr   = expr ('+' | '-') expr
//	       | expr ('*' | '/') expr
//	       | ('-' | '+') expr
//	       | expr '^' expr            (right-associative)
//	       | number | ident | ident '(' expr {',' expr} ')' | '(' expr ')'
//
// Unary minus binds looser than '^', so -x^2 is -(x^2).
package expr

import (
	"errors"
	"fmt"
)

// ErrSyntax is matched by every *SyntaxError.
var ErrSyntax = errors.New("expr: syntax error")

// SyntaxError reports a problem at a byte offset of the source.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("expr: offset %d: %s", e.Pos, e.Msg)
}

// Is makes errors.Is(err, ErrSyntax) hold.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// Binding powers.
const (
	bpSum     = 10
	bpProduct = 20
	bpPrefix  = 30
	bpPower   = 40
)

type parser struct {
	toks []token
	pos  int
}

// Parse parses src into an expression tree.
func Parse(src string) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Pos: t.pos, Msg: "unexpected " + t.String()}
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(op string) error {
	t := p.next()
	if t.kind != tokOp || t.text != op {
		return &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("expected '%s', found %s", op, t)}
	}
	return nil
}

// infix returns the left and right binding powers of a binary operator.
func infix(t token) (left, right int, ok bool) {
	if t.kind != tokOp {
		return 0, 0, false
	}
	switch t.text {
	case "+", "-":
		return bpSum, bpSum + 1, true
	case "*", "/":
		return bpProduct, bpProduct + 1, true
	case "^":
		return bpPower, bpPower, true
	default:
		return 0, 0, false
	}
}

func (p *parser) expr(minBP int) (Node, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		lbp, rbp, ok := infix(t)
		if !ok || lbp < minBP {
			return left, nil
		}
		p.next()
		right, err := p.expr(rbp)
		if err != nil {
			return nil, err
		}
		left = &Binary{At: t.pos, Op: t.text[0], X: left, Y: right}
	}
}

func (p *parser) prefix() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &Number{At: t.pos, Value: t.value}, nil
	case tokIdent:
		if next := p.peek(); next.kind == tokOp && next.text == "(" {
			return p.call(t)
		}
		return &Ident{At: t.pos, Name: t.text}, nil
	case tokOp:
		switch t.text {
		case "(":
			n, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return n, nil
		case "-", "+":
			x, err := p.expr(bpPrefix)
			if err != nil {
				return nil, err
			}
			return &Unary{At: t.pos, Op: t.text[0], X: x}, nil
		}
	}
	return nil, &SyntaxError{Pos: t.pos, Msg: "unexpected " + t.String()}
}

func (p *parser) call(name token) (Node, error) {
	p.next() // (
	c := &Call{At: name.pos, Func: name.text}
	if t := p.peek(); t.kind == tokOp && t.text == ")" {
		p.next()
		return c, nil
	}
	for {
		arg, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		c.Args = append(c.Args, arg)

		t := p.next()
		if t.kind == tokOp && t.text == ")" {
			return c, nil
		}
		if t.kind != tokOp || t.text != "," {
			return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("expected ',' or ')', found %s", t)}
		}
	}
}
