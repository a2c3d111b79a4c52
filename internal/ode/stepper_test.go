package ode

import (
	"errors"
	"math"
	"testing"

	"github.com/odelab/odeflow/internal/tensor"
)

// decayField is dy/dt = -y, with the analytic solution y0*exp(-t).
var decayField = FieldFunc(func(t float64, y *tensor.Tensor) *tensor.Tensor {
	return y.Scale(-1)
})

func scalar(v float64) *tensor.Tensor {
	y, _ := tensor.FromSlice([]float64{v}, 1)
	return y
}

func TestEulerStepDecay(t *testing.T) {
	s := NewStepper(ExplicitEuler())

	out, err := s.Step(decayField, 0, scalar(1), 0.1)
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if math.Abs(out.Y.Data()[0]-0.9) > 1e-15 {
		t.Errorf("expected 0.9, got %.15f", out.Y.Data()[0])
	}
	if out.Err != nil {
		t.Error("fixed tableau should not produce an error estimate")
	}
}

func TestRK4StepDecay(t *testing.T) {
	s := NewStepper(RK4())
	h := 0.1

	out, err := s.Step(decayField, 0, scalar(1), h)
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}

	// One RK4 step on dy=-y equals the degree-4 Taylor polynomial of exp(-h).
	want := 1 - h + h*h/2 - h*h*h/6 + h*h*h*h/24
	if math.Abs(out.Y.Data()[0]-want) > 1e-15 {
		t.Errorf("expected %.15f, got %.15f", want, out.Y.Data()[0])
	}
}

func TestEmbeddedErrorEstimate(t *testing.T) {
	s := NewStepper(BogackiShampine())

	out, err := s.Step(decayField, 0, scalar(1), 0.1)
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if out.Err == nil {
		t.Fatal("embedded tableau should produce an error estimate")
	}
	if out.Err.Data()[0] == 0 {
		t.Error("error estimate should be nonzero for a finite step")
	}

	// Local error of the propagated 3rd-order solution is O(h^4); the
	// estimate should be small but track the true deviation's magnitude.
	if math.Abs(out.Err.Data()[0]) > 1e-3 {
		t.Errorf("error estimate suspiciously large: %g", out.Err.Data()[0])
	}
}

func TestStepDoesNotMutateInput(t *testing.T) {
	s := NewStepper(RK4())
	y := scalar(1)

	if _, err := s.Step(decayField, 0, y, 0.5); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if y.Data()[0] != 1 {
		t.Errorf("input state mutated: %f", y.Data()[0])
	}
}

func TestStepNonFiniteField(t *testing.T) {
	nanField := FieldFunc(func(t float64, y *tensor.Tensor) *tensor.Tensor {
		return tensor.Full(math.NaN(), y.Shape()...)
	})

	for _, tb := range []*Tableau{ExplicitEuler(), DormandPrince()} {
		s := NewStepper(tb)
		_, err := s.Step(nanField, 0, scalar(1), 0.1)
		if !errors.Is(err, ErrNonFiniteState) {
			t.Errorf("%s: expected ErrNonFiniteState, got %v", tb.Name, err)
		}
	}
}

func TestStepShapeMismatch(t *testing.T) {
	badField := FieldFunc(func(t float64, y *tensor.Tensor) *tensor.Tensor {
		return tensor.New(2)
	})

	s := NewStepper(ExplicitEuler())
	if _, err := s.Step(badField, 0, scalar(1), 0.1); err == nil {
		t.Error("expected error for shape-changing field")
	}
}

func TestScratchResize(t *testing.T) {
	s := NewStepper(RK4())

	if _, err := s.Step(decayField, 0, scalar(1), 0.1); err != nil {
		t.Fatalf("scalar step failed: %v", err)
	}

	y := tensor.Full(1, 2, 3)
	out, err := s.Step(decayField, 0, y, 0.1)
	if err != nil {
		t.Fatalf("reshaped step failed: %v", err)
	}
	if !out.Y.SameShape(y) {
		t.Errorf("unexpected output shape %v", out.Y.Shape())
	}
}
