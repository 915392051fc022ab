// Package optim implements first-order optimization algorithms driven by
// tape gradients.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Gradient descent with momentum
//   - Adam: Adaptive Moment Estimation
//   - Minimize: Evaluate/Gradient/Step loop over an autodiff.Graph
//
// Example usage:
//
//	g, _ := autodiff.Construct(2, objective)
//	opt := optim.NewAdam(optim.AdamConfig{LR: 0.05})
//	res, err := optim.Minimize(ctx, g, []float64{0, 0}, opt, optim.MinimizeConfig{})
package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/born-ml/gradtape/internal/autodiff"
)

// ErrDiverged is returned when the objective or its gradient becomes NaN or
// infinite during minimization.
var ErrDiverged = errors.New("optim: objective diverged")

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply a gradient update to the parameters in place
//   - Reset: Clear internal state (momentum, moment estimates)
//   - GetLR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step updates params in place given grads of the same length.
	Step(params, grads []float64)

	// Reset clears accumulated state so the optimizer can start a new run.
	Reset()

	// GetLR returns the current learning rate.
	GetLR() float64
}

// MinimizeConfig controls Minimize.
type MinimizeConfig struct {
	MaxIter   int          // Maximum number of steps (default: 1000)
	Tolerance float64      // Stop when the gradient norm falls below it (default: 1e-8)
	LogEvery  int          // Log progress every N steps at debug level; 0 disables
	Logger    *slog.Logger // Defaults to slog.Default()
}

func (c MinimizeConfig) withDefaults() MinimizeConfig {
	if c.MaxIter == 0 {
		c.MaxIter = 1000
	}
	if c.Tolerance == 0 {
		c.Tolerance = 1e-8
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Result describes the end state of Minimize.
type Result struct {
	X         []float64 // Final parameters.
	Value     float64   // Objective at X.
	Gradient  []float64 // Gradient at X.
	Iter      int       // Steps taken.
	Converged bool      // Gradient norm reached Tolerance.
}

// Minimize runs opt on the objective g starting from x0 until the gradient
// norm drops below cfg.Tolerance, cfg.MaxIter steps have been taken, or ctx
// is done. x0 is not modified. g is evaluated through a private workspace.
//
// Returns ErrDiverged (with the last finite state in Result) if a value or
// gradient component stops being finite.
func Minimize(ctx context.Context, g *autodiff.Graph, x0 []float64, opt Optimizer, cfg MinimizeConfig) (Result, error) {
	cfg = cfg.withDefaults()
	ws := g.NewWorkspace()

	x := append([]float64(nil), x0...)
	grad := make([]float64, len(x))
	best := Result{X: append([]float64(nil), x...)}

	for iter := 0; ; iter++ {
		value, err := ws.Evaluate(x)
		if err != nil {
			return best, err
		}
		if err := ws.GradientInto(grad); err != nil {
			return best, err
		}
		if !finite(value, grad) {
			return best, fmt.Errorf("%w at step %d", ErrDiverged, iter)
		}

		norm := l2(grad)
		best = Result{
			X:        append(best.X[:0], x...),
			Value:    value,
			Gradient: append([]float64(nil), grad...),
			Iter:     iter,
		}

		if cfg.LogEvery > 0 && iter%cfg.LogEvery == 0 {
			cfg.Logger.Debug("minimize",
				slog.Int("iter", iter),
				slog.Float64("value", value),
				slog.Float64("grad_norm", norm),
				slog.Float64("lr", opt.GetLR()),
			)
		}

		if norm <= cfg.Tolerance {
			best.Converged = true
			return best, nil
		}
		if iter >= cfg.MaxIter {
			return best, nil
		}
		if err := ctx.Err(); err != nil {
			return best, err
		}

		opt.Step(x, grad)
	}
}

func finite(value float64, grad []float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	for _, g := range grad {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return false
		}
	}
	return true
}

func l2(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// New returns the optimizer registered under method ("sgd" or "adam") with
// learning rate lr. momentum only applies to SGD.
func New(method string, lr, momentum float64) (Optimizer, error) {
	switch method {
	case "sgd":
		return NewSGD(SGDConfig{LR: lr, Momentum: momentum}), nil
	case "adam", "":
		return NewAdam(AdamConfig{LR: lr}), nil
	default:
		return nil, fmt.Errorf("optim: unknown method %q", method)
	}
}
