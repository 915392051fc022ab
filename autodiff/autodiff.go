// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation of scalar
// functions.
//
// A function is recorded once on a tape by a build callback and can then be
// evaluated and differentiated at any number of points. The cost of a
// gradient is a small constant multiple of the cost of one evaluation,
// independent of the number of variables.
//
// Example:
//
//	import "github.com/born-ml/gradtape/autodiff"
//
//	func main() {
//	    // f(x, y) = x*y + sin(x)
//	    g, err := autodiff.Construct(2, func(b *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
//	        return x[0].Mul(x[1]).Add(x[0].Sin()), nil
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    value, _ := g.Evaluate([]float64{2, 3}) // 6.909297...
//	    grad, _ := g.Gradient()                 // [2.583853..., 2]
//	}
//
// Handles (Var) are only valid inside the build callback. Using one after
// Construct returns panics with an error wrapping ErrNoActiveContext.
//
// A Graph is immutable but carries a default evaluation cache, so
// Graph.Evaluate and Graph.Gradient must not be called concurrently.
// Concurrent callers take their own Workspace from Graph.NewWorkspace.
package autodiff

import (
	"github.com/born-ml/gradtape/internal/autodiff"
)

// Graph is a recorded function of NumVariables inputs.
type Graph = autodiff.Graph

// Workspace is a per-goroutine evaluation cache for a Graph.
type Workspace = autodiff.Workspace

// Builder records operations while a BuildFunc runs.
type Builder = autodiff.Builder

// Var is a handle to a recorded value.
type Var = autodiff.Var

// BuildFunc describes a function by recording it on b.
type BuildFunc = autodiff.BuildFunc

// Config controls graph construction.
type Config = autodiff.Config

// PruneMode selects how unused nodes are removed.
type PruneMode = autodiff.PruneMode

// Result is a value and gradient at one point.
type Result = autodiff.Result

// Stats summarises the shape of a Graph.
type Stats = autodiff.Stats

// ArityError reports a slice of the wrong length.
type ArityError = autodiff.ArityError

// BuilderError wraps a failure raised while recording.
type BuilderError = autodiff.BuilderError

// Prune modes.
const (
	// PruneReachable keeps only nodes the output depends on.
	PruneReachable = autodiff.PruneReachable
	// PruneTruncate drops only nodes recorded after the output.
	PruneTruncate = autodiff.PruneTruncate
)

// Errors returned or raised by the engine.
var (
	ErrNoActiveContext      = autodiff.ErrNoActiveContext
	ErrForeignHandle        = autodiff.ErrForeignHandle
	ErrInvalidOutput        = autodiff.ErrInvalidOutput
	ErrInvalidVariableCount = autodiff.ErrInvalidVariableCount
	ErrArity                = autodiff.ErrArity
	ErrNotEvaluated         = autodiff.ErrNotEvaluated
)

// Construct records build with numVars variables and returns the Graph.
// Constants are hoisted and unreachable nodes are removed.
func Construct(numVars int, build BuildFunc) (*Graph, error) {
	return autodiff.Construct(numVars, build)
}

// ConstructWithConfig is Construct with explicit options.
func ConstructWithConfig(numVars int, build BuildFunc, cfg Config) (*Graph, error) {
	return autodiff.ConstructWithConfig(numVars, build, cfg)
}

// DefaultConfig returns the options used by Construct.
func DefaultConfig() Config {
	return autodiff.DefaultConfig()
}

// ParsePruneMode parses "reachable" or "truncate".
func ParsePruneMode(s string) (PruneMode, error) {
	return autodiff.ParsePruneMode(s)
}
