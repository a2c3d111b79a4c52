package ode

import (
	"errors"
	"math"
	"testing"

	"github.com/odelab/odeflow/internal/tensor"
)

func TestErrorNormScaledRMS(t *testing.T) {
	c := DefaultStepControl()
	c.Atol = 1e-3
	c.Rtol = 0

	errEst, _ := tensor.FromSlice([]float64{1e-3, 1e-3}, 2)
	y := tensor.New(2)
	yNext := tensor.New(2)

	// Every element scales to exactly 1, so the RMS is 1.
	e := c.ErrorNorm(errEst, y, yNext)
	if math.Abs(e-1) > 1e-12 {
		t.Errorf("expected norm 1, got %f", e)
	}
}

func TestErrorNormUsesLargerState(t *testing.T) {
	c := StepControl{Atol: 0, Rtol: 0.1}

	errEst, _ := tensor.FromSlice([]float64{1}, 1)
	y := scalar(1)
	yNext := scalar(10)

	// scale = 0.1*max(1,10) = 1, so e = 1.
	e := c.ErrorNorm(errEst, y, yNext)
	if math.Abs(e-1) > 1e-12 {
		t.Errorf("expected norm 1, got %f", e)
	}
}

func TestDecideFixedStep(t *testing.T) {
	c := DefaultStepControl()

	dec, err := c.Decide(nil, scalar(1), scalar(2), 0.1, 1)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if !dec.Accept {
		t.Error("fixed-step mode must always accept")
	}
	if dec.NextStep != 0.1 {
		t.Errorf("fixed-step mode must keep h, got %f", dec.NextStep)
	}
}

func TestDecideAcceptBoundary(t *testing.T) {
	c := DefaultStepControl()
	c.Atol = 1
	c.Rtol = 0

	// e == 1.0 exactly: still accepted.
	dec, err := c.Decide(scalar(1), scalar(0), scalar(0), 0.1, 1)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if !dec.Accept {
		t.Error("e == 1 should be accepted")
	}

	// Slightly above: rejected, step shrinks.
	dec, err = c.Decide(scalar(1.01), scalar(0), scalar(0), 0.1, 1)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if dec.Accept {
		t.Error("e > 1 should be rejected")
	}
	if dec.NextStep >= 0.1 {
		t.Errorf("rejected step should shrink, got %f", dec.NextStep)
	}
}

func TestDecideGrowthClamp(t *testing.T) {
	c := DefaultStepControl()
	c.Atol = 1
	c.Rtol = 0

	// Tiny error: growth clamped at MaxFactor.
	dec, err := c.Decide(scalar(1e-12), scalar(0), scalar(0), 0.1, 1)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if math.Abs(dec.NextStep-0.1*c.MaxFactor) > 1e-12 {
		t.Errorf("expected clamped growth %f, got %f", 0.1*c.MaxFactor, dec.NextStep)
	}

	// Zero error: same clamp.
	dec, err = c.Decide(scalar(0), scalar(0), scalar(0), 0.1, 1)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if math.Abs(dec.NextStep-0.1*c.MaxFactor) > 1e-12 {
		t.Errorf("expected clamped growth for zero error, got %f", dec.NextStep)
	}
}

func TestDecideShrinkClamp(t *testing.T) {
	c := DefaultStepControl()
	c.Atol = 1
	c.Rtol = 0
	c.MinStep = 0 // keep underflow out of this test

	// Huge error: shrink clamped at MinFactor.
	dec, err := c.Decide(scalar(1e12), scalar(0), scalar(0), 0.1, 1)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if math.Abs(dec.NextStep-0.1*c.MinFactor) > 1e-12 {
		t.Errorf("expected clamped shrink %f, got %f", 0.1*c.MinFactor, dec.NextStep)
	}
}

func TestDecideOrderExponent(t *testing.T) {
	c := DefaultStepControl()
	c.Atol = 1
	c.Rtol = 0

	e := 2.0
	dec, _ := c.Decide(scalar(e), scalar(0), scalar(0), 1.0, 4)
	want := c.Safety * math.Pow(e, -1.0/5.0)
	if math.Abs(dec.NextStep-want) > 1e-12 {
		t.Errorf("expected factor %.12f, got %.12f", want, dec.NextStep)
	}
}

func TestDecideUnderflow(t *testing.T) {
	c := DefaultStepControl()
	c.Atol = 1
	c.Rtol = 0
	c.MinStep = 1e-3

	_, err := c.Decide(scalar(1e12), scalar(0), scalar(0), 1e-3, 1)
	if !errors.Is(err, ErrStepSizeUnderflow) {
		t.Errorf("expected ErrStepSizeUnderflow, got %v", err)
	}
}
