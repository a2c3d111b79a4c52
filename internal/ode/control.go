package ode

import (
	"fmt"
	"math"

	"github.com/odelab/odeflow/internal/tensor"
)

// StepControl decides step acceptance from a local error estimate and
// computes the next trial step size. The error norm is the scaled
// root-mean-square over all state elements:
//
//	e = sqrt(mean((err_i / (atol + rtol*max(|y_i|, |ynext_i|)))^2))
//
// A step is accepted iff e <= 1. The next step is
//
//	hNext = h * clamp(safety * e^(-1/(order+1)), minFactor, maxFactor)
//
// which shrinks rejected steps and grows comfortably accepted ones while
// the safety factor and clamp bounds damp oscillation.
type StepControl struct {
	Atol      float64
	Rtol      float64
	Safety    float64
	MinFactor float64
	MaxFactor float64
	MinStep   float64
}

func DefaultStepControl() StepControl {
	return StepControl{
		Atol:      1e-6,
		Rtol:      1e-6,
		Safety:    0.9,
		MinFactor: 0.2,
		MaxFactor: 5.0,
		MinStep:   1e-10,
	}
}

// Decision is the controller's verdict on one attempted step.
type Decision struct {
	Accept    bool
	NextStep  float64
	ErrorNorm float64
}

// ErrorNorm computes the scaled RMS norm of errEst against the current and
// candidate states.
func (c StepControl) ErrorNorm(errEst, y, yNext *tensor.Tensor) float64 {
	ed := errEst.Data()
	yd := y.Data()
	nd := yNext.Data()

	sum := 0.0
	for i := range ed {
		scale := c.Atol + c.Rtol*math.Max(math.Abs(yd[i]), math.Abs(nd[i]))
		r := ed[i] / scale
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(ed)))
}

// Decide evaluates one attempted step of size h. A nil error estimate means
// fixed-step mode: the step is always accepted and h passes through
// unchanged. On rejection the shrunken step is checked against MinStep;
// falling below it surfaces ErrStepSizeUnderflow since further shrinking
// cannot meet the tolerance.
func (c StepControl) Decide(errEst, y, yNext *tensor.Tensor, h float64, order int) (Decision, error) {
	if errEst == nil {
		return Decision{Accept: true, NextStep: h}, nil
	}

	e := c.ErrorNorm(errEst, y, yNext)

	factor := c.MaxFactor
	if e > 0 {
		factor = c.Safety * math.Pow(e, -1.0/float64(order+1))
		factor = math.Min(math.Max(factor, c.MinFactor), c.MaxFactor)
	}

	d := Decision{
		Accept:    e <= 1.0,
		NextStep:  h * factor,
		ErrorNorm: e,
	}

	if !d.Accept && d.NextStep < c.MinStep {
		return d, fmt.Errorf("%w: h=%.3g < %.3g", ErrStepSizeUnderflow, d.NextStep, c.MinStep)
	}
	return d, nil
}
