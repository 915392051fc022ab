// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"context"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD(config SGDConfig) *SGD {
	return optim.NewSGD(config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
func NewAdam(config AdamConfig) *Adam {
	return optim.NewAdam(config)
}

// New returns the optimizer named by method ("sgd" or "adam").
func New(method string, lr, momentum float64) (Optimizer, error) {
	return optim.New(method, lr, momentum)
}

// Minimization

// MinimizeConfig controls Minimize.
type MinimizeConfig = optim.MinimizeConfig

// Result describes where Minimize stopped.
type Result = optim.Result

// ErrDiverged is returned when the objective stops being finite.
var ErrDiverged = optim.ErrDiverged

// Minimize runs opt on g from x0 until convergence, MaxIter or ctx is done.
func Minimize(ctx context.Context, g *autodiff.Graph, x0 []float64, opt Optimizer, cfg MinimizeConfig) (Result, error) {
	return optim.Minimize(ctx, g, x0, opt, cfg)
}
