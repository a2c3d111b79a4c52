package ode

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrMalformedTableau indicates tableau coefficients with inconsistent
	// dimensions. Construction-time only, never recovered.
	ErrMalformedTableau = errors.New("ode: malformed tableau")

	// ErrNonFiniteState indicates the vector field produced NaN or Inf.
	ErrNonFiniteState = errors.New("ode: non-finite state (NaN or Inf detected)")

	// ErrStepSizeUnderflow indicates the adaptive step shrank below the
	// configured minimum; the tolerance cannot be met for this dynamics.
	ErrStepSizeUnderflow = errors.New("ode: step size below minimum")

	// ErrMaxStepsExceeded guards against runaway accept/reject loops.
	ErrMaxStepsExceeded = errors.New("ode: max steps exceeded")
)

// StepError wraps a solver failure with the step and time at which it occurred.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
