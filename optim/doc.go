// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides first-order optimizers driven by tape gradients.
//
// # Overview
//
// This package contains:
//   - SGD: Gradient descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//   - Minimize: the evaluate, differentiate, step loop over an autodiff.Graph
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/gradtape/autodiff"
//	    "github.com/born-ml/gradtape/optim"
//	)
//
//	func main() {
//	    // Rosenbrock: (1-x)^2 + 100(y-x^2)^2
//	    g, _ := autodiff.Construct(2, func(b *autodiff.Builder, v []autodiff.Var) (autodiff.Var, error) {
//	        x, y := v[0], v[1]
//	        a := b.Const(1).Sub(x)
//	        c := y.Sub(x.Mul(x))
//	        return a.Mul(a).Add(c.Mul(c).MulConst(100)), nil
//	    })
//
//	    opt := optim.NewAdam(optim.AdamConfig{LR: 0.01})
//	    res, err := optim.Minimize(context.Background(), g, []float64{-1, 1}, opt,
//	        optim.MinimizeConfig{MaxIter: 20000, Tolerance: 1e-6})
//	}
//
// # Custom Loops
//
// Optimizers update a parameter slice in place from a gradient slice, so a
// hand-written loop needs only a Workspace:
//
//	ws := g.NewWorkspace()
//	grad := make([]float64, len(x))
//	for range steps {
//	    ws.Evaluate(x)
//	    ws.GradientInto(grad)
//	    opt.Step(x, grad)
//	}
package optim
