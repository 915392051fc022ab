// Package autodiff implements reverse-mode automatic differentiation of
// scalar functions over a recorded tape.
//
// Architecture:
//   - Tape: append-only arena of nodes, parents stored as indices
//   - Var: handle to a tape position; arithmetic on handles records nodes
//   - Builder: explicit build-time context; active only while the BuildFunc runs
//   - Construct: runs the BuildFunc once, prunes dead nodes, hoists constants
//   - Workspace: per-caller value/adjoint cache for the forward and reverse passes
//
// Usage:
//
//	g, err := autodiff.Construct(2, func(b *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
//	    return x[0].Mul(x[1]).Add(x[0].Sin()), nil
//	})
//	value, _ := g.Evaluate([]float64{2, 3}) // 6 + sin(2)
//	grad, _ := g.Gradient()                 // [3 + cos(2), 2]
package autodiff

import (
	"errors"
	"fmt"
)

// BuildFunc records an expression on b using the independent variables vars
// and returns the handle of the output node.
type BuildFunc func(b *Builder, vars []Var) (Var, error)

// PruneMode selects how nodes not needed for the output are removed.
type PruneMode uint8

const (
	// PruneReachable keeps the variables and every node the output depends on.
	PruneReachable PruneMode = iota
	// PruneTruncate keeps every node recorded up to and including the output.
	// Nodes recorded earlier but never used survive.
	PruneTruncate
)

// String returns "reachable" or "truncate".
func (m PruneMode) String() string {
	switch m {
	case PruneReachable:
		return "reachable"
	case PruneTruncate:
		return "truncate"
	default:
		return fmt.Sprintf("prune(%d)", uint8(m))
	}
}

// ParsePruneMode is the inverse of PruneMode.String.
func ParsePruneMode(s string) (PruneMode, error) {
	switch s {
	case "reachable", "":
		return PruneReachable, nil
	case "truncate":
		return PruneTruncate, nil
	default:
		return 0, fmt.Errorf("autodiff: unknown prune mode %q", s)
	}
}

// Config controls graph construction.
type Config struct {
	Prune          PruneMode // Dead-node elimination strategy.
	HoistConstants bool      // Move constant roots ahead of all operations.
}

// DefaultConfig returns reachability pruning with constant hoisting.
func DefaultConfig() Config {
	return Config{
		Prune:          PruneReachable,
		HoistConstants: true,
	}
}

// Construct records build once on a fresh tape with numVars independent
// variables and returns the resulting Graph, using DefaultConfig.
func Construct(numVars int, build BuildFunc) (*Graph, error) {
	return ConstructWithConfig(numVars, build, DefaultConfig())
}

// ConstructWithConfig is Construct with explicit construction options.
//
// Errors returned by build, and usage errors raised by handle arithmetic
// inside build, are returned as *BuilderError. Other panics are propagated.
// In every case the builder is closed before ConstructWithConfig returns.
func ConstructWithConfig(numVars int, build BuildFunc, cfg Config) (*Graph, error) {
	if numVars < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVariableCount, numVars)
	}

	b := newBuilder(numVars)
	out, err := run(b, build)
	if err != nil {
		return nil, &BuilderError{Err: err}
	}

	switch {
	case out.b == nil:
		return nil, &BuilderError{Err: ErrInvalidOutput}
	case out.b != b:
		return nil, &BuilderError{Err: fmt.Errorf("output: %w", ErrForeignHandle)}
	}

	nodes, output, numRoots := compact(b.tape, out.index, cfg)
	return newGraph(nodes, numVars, numRoots, output, cfg.HoistConstants), nil
}

// run invokes build with b active and closes b however build exits.
func run(b *Builder, build BuildFunc) (out Var, err error) {
	b.active = true
	defer func() {
		b.active = false
		if r := recover(); r != nil {
			var up usagePanic
			if e, ok := r.(error); ok && errors.As(e, &up) {
				err = up.err
				return
			}
			panic(r)
		}
	}()
	return build(b, b.Variables())
}
