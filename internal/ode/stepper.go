package ode

import (
	"fmt"

	"github.com/odelab/odeflow/internal/tensor"
)

// StepOutcome is the result of one attempted step. Y is the candidate next
// state (the BLow combination). Err is the local error estimate, the
// difference between the high- and low-order combinations; nil when the
// tableau has no embedded pair.
type StepOutcome struct {
	Y   *tensor.Tensor
	Err *tensor.Tensor
}

// Stepper evaluates one step of an explicit Runge-Kutta tableau. Stage
// derivatives are kept in reusable scratch buffers sized on first use, so a
// Stepper is not safe for concurrent use.
type Stepper struct {
	tableau *Tableau
	k       []*tensor.Tensor
	stage   *tensor.Tensor
}

func NewStepper(tb *Tableau) *Stepper {
	return &Stepper{
		tableau: tb,
		k:       make([]*tensor.Tensor, tb.Stages()),
	}
}

func (s *Stepper) Tableau() *Tableau { return s.tableau }

func (s *Stepper) ensureScratch(y *tensor.Tensor) {
	if s.stage != nil && s.stage.SameShape(y) {
		return
	}
	for i := range s.k {
		s.k[i] = tensor.New(y.Shape()...)
	}
	s.stage = tensor.New(y.Shape()...)
}

// Step advances (t, y) by h. The input state is never mutated; the returned
// outcome owns fresh tensors. A non-finite candidate state surfaces
// ErrNonFiniteState via a single reduction over the step, not per stage.
func (s *Stepper) Step(field Field, t float64, y *tensor.Tensor, h float64) (StepOutcome, error) {
	tb := s.tableau
	s.ensureScratch(y)

	yd := y.Data()
	n := len(yd)

	for i := 0; i < tb.Stages(); i++ {
		sd := s.stage.Data()
		copy(sd, yd)
		for j, a := range tb.A[i] {
			if a == 0 {
				continue
			}
			kd := s.k[j].Data()
			ha := h * a
			for m := 0; m < n; m++ {
				sd[m] += ha * kd[m]
			}
		}

		ki := field.Evaluate(t+tb.C[i]*h, s.stage)
		if !ki.SameShape(y) {
			return StepOutcome{}, fmt.Errorf("ode: field returned shape %v, want %v", ki.Shape(), y.Shape())
		}
		copy(s.k[i].Data(), ki.Data())
	}

	yNext := y.Clone()
	nd := yNext.Data()
	for i, b := range tb.BLow {
		if b == 0 {
			continue
		}
		kd := s.k[i].Data()
		hb := h * b
		for m := 0; m < n; m++ {
			nd[m] += hb * kd[m]
		}
	}

	out := StepOutcome{Y: yNext}

	if tb.IsEmbedded() {
		errEst := tensor.New(y.Shape()...)
		ed := errEst.Data()
		for i := range tb.BLow {
			db := tb.BHigh[i] - tb.BLow[i]
			if db == 0 {
				continue
			}
			kd := s.k[i].Data()
			hd := h * db
			for m := 0; m < n; m++ {
				ed[m] += hd * kd[m]
			}
		}
		out.Err = errEst
	}

	if !out.Y.IsFinite() || (out.Err != nil && !out.Err.IsFinite()) {
		return StepOutcome{}, ErrNonFiniteState
	}

	return out, nil
}
