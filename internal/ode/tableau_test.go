package ode

import (
	"errors"
	"math"
	"testing"
)

func TestNamedTableaus(t *testing.T) {
	tests := []struct {
		tb       *Tableau
		stages   int
		order    int
		embedded bool
	}{
		{ExplicitEuler(), 1, 1, false},
		{Midpoint(), 2, 2, false},
		{RK4(), 4, 4, false},
		{BogackiShampine(), 4, 2, true},
		{DormandPrince(), 7, 4, true},
	}

	for _, tt := range tests {
		if tt.tb.Stages() != tt.stages {
			t.Errorf("%s: expected %d stages, got %d", tt.tb.Name, tt.stages, tt.tb.Stages())
		}
		if tt.tb.Order != tt.order {
			t.Errorf("%s: expected order %d, got %d", tt.tb.Name, tt.order, tt.tb.Order)
		}
		if tt.tb.IsEmbedded() != tt.embedded {
			t.Errorf("%s: embedded = %v, want %v", tt.tb.Name, tt.tb.IsEmbedded(), tt.embedded)
		}
	}
}

func TestWeightsSumToOne(t *testing.T) {
	// Not enforced by the constructor, but every shipped method satisfies it.
	for _, tb := range []*Tableau{ExplicitEuler(), Midpoint(), RK4(), BogackiShampine(), DormandPrince()} {
		sum := 0.0
		for _, b := range tb.BLow {
			sum += b
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("%s: low weights sum to %.15f", tb.Name, sum)
		}
		if tb.IsEmbedded() {
			sum = 0
			for _, b := range tb.BHigh {
				sum += b
			}
			if math.Abs(sum-1) > 1e-12 {
				t.Errorf("%s: high weights sum to %.15f", tb.Name, sum)
			}
		}
	}
}

func TestNewTableauValidation(t *testing.T) {
	tests := []struct {
		name  string
		c     []float64
		a     [][]float64
		bLow  []float64
		bHigh []float64
		order int
	}{
		{"no stages", []float64{}, [][]float64{}, []float64{}, nil, 1},
		{"bLow mismatch", []float64{0}, [][]float64{{}}, []float64{1, 0}, nil, 1},
		{"bHigh mismatch", []float64{0}, [][]float64{{}}, []float64{1}, []float64{1, 0}, 1},
		{"row count", []float64{0, 0.5}, [][]float64{{}}, []float64{0, 1}, nil, 2},
		{"not lower triangular", []float64{0, 0.5}, [][]float64{{}, {0.5, 0.5}}, []float64{0, 1}, nil, 2},
		{"implicit diagonal", []float64{0}, [][]float64{{1}}, []float64{1}, nil, 1},
		{"zero order", []float64{0}, [][]float64{{}}, []float64{1}, nil, 0},
	}

	for _, tt := range tests {
		_, err := NewTableau(tt.name, tt.order, tt.c, tt.a, tt.bLow, tt.bHigh)
		if !errors.Is(err, ErrMalformedTableau) {
			t.Errorf("%s: expected ErrMalformedTableau, got %v", tt.name, err)
		}
	}
}

func TestNewTableauCopiesInputs(t *testing.T) {
	c := []float64{0}
	bLow := []float64{1}
	tb, err := NewTableau("euler", 1, c, [][]float64{{}}, bLow, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c[0] = 99
	bLow[0] = 99
	if tb.C[0] != 0 || tb.BLow[0] != 1 {
		t.Error("tableau aliases caller slices")
	}
}
