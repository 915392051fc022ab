package optim

// SGD implements gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Momentum helps accelerate SGD in relevant directions and dampens oscillations.
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD struct {
	lr       float64
	momentum float64
	velocity []float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		lr:       config.LR,
		momentum: config.Momentum,
	}
}

// Step performs a single optimization step.
//
// Applies gradient descent update to all parameters:
//   - Without momentum: param -= lr * grad
//   - With momentum: velocity = momentum * velocity + grad, param -= lr * velocity
func (s *SGD) Step(params, grads []float64) {
	if s.momentum == 0 {
		for i, g := range grads {
			params[i] -= s.lr * g
		}
		return
	}

	if len(s.velocity) != len(params) {
		s.velocity = make([]float64, len(params))
	}
	for i, g := range grads {
		s.velocity[i] = s.momentum*s.velocity[i] + g
		params[i] -= s.lr * s.velocity[i]
	}
}

// Reset clears the velocity buffer.
func (s *SGD) Reset() {
	s.velocity = nil
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}

// Velocity returns a copy of the momentum buffer, nil before the first
// momentum step.
func (s *SGD) Velocity() []float64 {
	return append([]float64(nil), s.velocity...)
}
