// Package gradcheck verifies tape gradients against central finite
// differences.
package gradcheck

import (
	"fmt"
	"math"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/parallel"
)

// Config controls a gradient check.
type Config struct {
	Epsilon   float64         // Relative step size (default: 1e-6)
	Tolerance float64         // Maximum accepted relative error (default: 1e-3)
	Parallel  parallel.Config // One coordinate per work item.
}

// DefaultConfig returns the defaults documented on Config.
func DefaultConfig() Config {
	return Config{
		Epsilon:   1e-6,
		Tolerance: 1e-3,
		Parallel:  parallel.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	if c.Epsilon == 0 {
		c.Epsilon = 1e-6
	}
	if c.Tolerance == 0 {
		c.Tolerance = 1e-3
	}
	return c
}

// Report is the outcome of Check at one point.
type Report struct {
	Point       []float64
	Value       float64
	Tape        []float64 // Reverse-mode gradient.
	Numerical   []float64 // Finite-difference gradient.
	MaxRelError float64   // Largest RelativeError over all components.
	Worst       int       // Component with MaxRelError, -1 if there are none.
	OK          bool      // MaxRelError <= Tolerance.
}

// String summarises the report on one line.
func (r Report) String() string {
	status := "ok"
	if !r.OK {
		status = "MISMATCH"
	}
	if r.Worst < 0 {
		return fmt.Sprintf("%s value=%g (no variables)", status, r.Value)
	}
	return fmt.Sprintf("%s value=%g max_rel_err=%.3g at d/dx%d (tape %g, numerical %g)",
		status, r.Value, r.MaxRelError, r.Worst, r.Tape[r.Worst], r.Numerical[r.Worst])
}

// RelativeError is |a-b| scaled by the larger magnitude, or absolute when
// both are below 1.
func RelativeError(a, b float64) float64 {
	return math.Abs(a-b) / math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// Numerical approximates the gradient of g at point with central differences.
// The step for component i is Epsilon*max(1, |point[i]|). Coordinates are
// processed in parallel, each with its own workspace; g's own cache is not
// touched.
func Numerical(g *autodiff.Graph, point []float64, cfg Config) ([]float64, error) {
	cfg = cfg.withDefaults()
	if len(point) != g.NumVariables() {
		return nil, &autodiff.ArityError{Want: g.NumVariables(), Got: len(point)}
	}

	grad := make([]float64, len(point))
	parallel.For(len(point), func(i int) {
		ws := g.NewWorkspace()
		x := append([]float64(nil), point...)
		h := cfg.Epsilon * math.Max(1, math.Abs(point[i]))

		x[i] = point[i] + h
		plus, _ := ws.Evaluate(x)
		x[i] = point[i] - h
		minus, _ := ws.Evaluate(x)

		grad[i] = (plus - minus) / (2 * h)
	}, cfg.Parallel)
	return grad, nil
}

// Check compares the reverse-mode gradient of g at point with Numerical.
// It uses a fresh workspace, leaving g's cache untouched.
func Check(g *autodiff.Graph, point []float64, cfg Config) (Report, error) {
	cfg = cfg.withDefaults()

	res, err := g.NewWorkspace().EvaluateGradient(point)
	if err != nil {
		return Report{}, err
	}
	num, err := Numerical(g, point, cfg)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		Point:     append([]float64(nil), point...),
		Value:     res.Value,
		Tape:      res.Gradient,
		Numerical: num,
		Worst:     -1,
	}
	for i := range num {
		e := RelativeError(res.Gradient[i], num[i])
		if r.Worst < 0 || e > r.MaxRelError || math.IsNaN(e) {
			r.MaxRelError, r.Worst = e, i
		}
	}
	r.OK = r.MaxRelError <= cfg.Tolerance
	return r, nil
}
