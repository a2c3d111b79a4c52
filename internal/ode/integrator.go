package ode

import (
	"context"
	"fmt"
	"math"

	"github.com/odelab/odeflow/internal/tensor"
)

// Observer receives one event per attempted step, accepted or rejected.
type Observer interface {
	OnStep(t, h, errNorm float64, accepted bool)
}

// Config holds per-integration parameters. Tolerances live in StepControl;
// Dt is the fixed step for non-embedded tableaus and the initial trial step
// for adaptive ones.
type Config struct {
	T0         float64
	T1         float64
	Dt         float64
	MaxSteps   int
	Trajectory bool
}

func DefaultConfig() Config {
	return Config{
		T0:       0,
		T1:       1.0,
		Dt:       0.1,
		MaxSteps: 10000,
	}
}

// Result is the endpoint state plus step statistics. Times/States hold the
// accepted trajectory (including the initial state) when requested.
type Result struct {
	T      float64
	Y      *tensor.Tensor
	Times  []float64
	States []*tensor.Tensor

	Steps    int // accepted steps
	Rejected int
	Evals    int // vector-field evaluations
}

// Integrator drives a Stepper and StepControl across a time interval. The
// loop is strictly sequential: each step depends on the previously accepted
// state, so there is no intra-integration parallelism here. Any parallelism
// inside one field evaluation is the field's own business.
type Integrator struct {
	stepper   *Stepper
	control   StepControl
	observers []Observer
}

func New(tb *Tableau, control StepControl) *Integrator {
	return &Integrator{
		stepper: NewStepper(tb),
		control: control,
	}
}

func (in *Integrator) Tableau() *Tableau    { return in.stepper.Tableau() }
func (in *Integrator) Control() StepControl { return in.control }

func (in *Integrator) AddObserver(o Observer) {
	in.observers = append(in.observers, o)
}

func (in *Integrator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("ode: dt must be positive, got %g", cfg.Dt)
	}
	if cfg.MaxSteps <= 0 {
		return fmt.Errorf("ode: max steps must be positive, got %d", cfg.MaxSteps)
	}
	if cfg.T1 < cfg.T0 {
		return fmt.Errorf("ode: backward integration not supported (t1=%g < t0=%g)", cfg.T1, cfg.T0)
	}
	return nil
}

// timeEps bounds the floating-point slack at the interval endpoint.
const timeEps = 1e-12

// Integrate walks from (cfg.T0, y0) to cfg.T1 and returns the endpoint
// state. The final step is clamped so the trajectory lands exactly on T1.
// A degenerate interval (T0 == T1) returns y0 unchanged with zero steps.
// The context is checked between steps only; a running field evaluation is
// never interrupted.
func (in *Integrator) Integrate(ctx context.Context, field Field, y0 *tensor.Tensor, cfg Config) (*Result, error) {
	if err := in.validateConfig(cfg); err != nil {
		return nil, err
	}

	res := &Result{T: cfg.T0, Y: y0.Clone()}
	if cfg.Trajectory {
		res.Times = append(res.Times, cfg.T0)
		res.States = append(res.States, y0.Clone())
	}

	if cfg.T1-cfg.T0 <= timeEps {
		return res, nil
	}

	adaptive := in.stepper.Tableau().IsEmbedded()
	order := in.stepper.Tableau().Order

	t := cfg.T0
	y := res.Y
	h := cfg.Dt

	for attempts := 0; cfg.T1-t > timeEps; attempts++ {
		select {
		case <-ctx.Done():
			res.T, res.Y = t, y
			return res, ctx.Err()
		default:
		}

		if attempts >= cfg.MaxSteps {
			res.T, res.Y = t, y
			return res, &StepError{Step: res.Steps, Time: t, Wrapped: ErrMaxStepsExceeded}
		}

		hTrial := math.Min(h, cfg.T1-t)

		out, err := in.stepper.Step(field, t, y, hTrial)
		res.Evals += in.stepper.Tableau().Stages()
		if err != nil {
			res.T, res.Y = t, y
			return res, &StepError{Step: res.Steps, Time: t, Wrapped: err}
		}

		dec, decErr := in.control.Decide(out.Err, y, out.Y, hTrial, order)
		for _, o := range in.observers {
			o.OnStep(t, hTrial, dec.ErrorNorm, dec.Accept)
		}
		if decErr != nil {
			res.T, res.Y = t, y
			return res, &StepError{Step: res.Steps, Time: t, Wrapped: decErr}
		}

		if dec.Accept {
			t += hTrial
			y = out.Y
			res.Steps++
			if cfg.Trajectory {
				res.Times = append(res.Times, t)
				res.States = append(res.States, y.Clone())
			}
			if adaptive {
				h = dec.NextStep
			}
		} else {
			res.Rejected++
			h = dec.NextStep
		}
	}

	res.T = t
	res.Y = y
	return res, nil
}
