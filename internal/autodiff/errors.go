package autodiff

import (
	"errors"
	"fmt"
)

// Usage errors. They are always surfaced to the caller.
var (
	ErrNoActiveContext      = errors.New("autodiff: handle used outside of an active builder")
	ErrForeignHandle        = errors.New("autodiff: handle belongs to a different builder")
	ErrInvalidOutput        = errors.New("autodiff: builder returned an invalid output handle")
	ErrInvalidVariableCount = errors.New("autodiff: negative number of independent variables")
	ErrArity                = errors.New("autodiff: wrong number of values")
	ErrNotEvaluated         = errors.New("autodiff: gradient requested before evaluate")
)

// ErrInvalidGraph is returned by FromNodes for a node list that is not a
// well-formed tape.
var ErrInvalidGraph = errors.New("autodiff: invalid graph")

// ArityError reports an input slice whose length does not match the number
// of independent variables.
type ArityError struct {
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("autodiff: expected %d values, got %d", e.Want, e.Got)
}

// Is makes errors.Is(err, ErrArity) hold.
func (e *ArityError) Is(target error) bool {
	return target == ErrArity
}

// BuilderError wraps a failure raised while running a BuildFunc. The builder
// is always closed before a BuilderError is returned.
type BuilderError struct {
	Err error
}

func (e *BuilderError) Error() string {
	return "autodiff: build failed: " + e.Err.Error()
}

func (e *BuilderError) Unwrap() error {
	return e.Err
}

// usagePanic is the value operators panic with. Construct recovers it and
// returns the wrapped error as a BuilderError.
type usagePanic struct {
	err error
}

func (p usagePanic) Error() string { return p.err.Error() }

func (p usagePanic) Unwrap() error { return p.err }

func panicUsage(op string, err error) {
	panic(usagePanic{err: fmt.Errorf("%s: %w", op, err)})
}
