package ode

import "fmt"

// Tableau is an immutable Butcher tableau for an explicit Runge-Kutta
// method. C holds the stage time offsets, A the strictly lower-triangular
// stage coupling (row i has exactly i entries), BLow the weights of the
// propagated solution and BHigh, when present, the weights of the companion
// solution used only for error estimation. Order is the order driving the
// step-size controller exponent: the lower order of an embedded pair, or
// the method order for fixed-step tableaus.
//
// Tableaus are read-only after construction and may be shared across
// concurrent integrations.
type Tableau struct {
	Name  string
	C     []float64
	A     [][]float64
	BLow  []float64
	BHigh []float64
	Order int
}

// NewTableau validates the coefficient dimensions and returns the tableau.
// Inputs are copied so callers cannot alias the internal slices.
func NewTableau(name string, order int, c []float64, a [][]float64, bLow, bHigh []float64) (*Tableau, error) {
	stages := len(c)
	if stages < 1 {
		return nil, fmt.Errorf("%w: need at least one stage", ErrMalformedTableau)
	}
	if order < 1 {
		return nil, fmt.Errorf("%w: order must be >= 1, got %d", ErrMalformedTableau, order)
	}
	if len(bLow) != stages {
		return nil, fmt.Errorf("%w: %d stages but %d low-order weights", ErrMalformedTableau, stages, len(bLow))
	}
	if bHigh != nil && len(bHigh) != stages {
		return nil, fmt.Errorf("%w: %d stages but %d high-order weights", ErrMalformedTableau, stages, len(bHigh))
	}
	if len(a) != stages {
		return nil, fmt.Errorf("%w: %d stages but %d coupling rows", ErrMalformedTableau, stages, len(a))
	}
	for i, row := range a {
		if len(row) != i {
			return nil, fmt.Errorf("%w: coupling row %d has %d entries, want %d (explicit method)", ErrMalformedTableau, i, len(row), i)
		}
	}

	tb := &Tableau{
		Name:  name,
		C:     append([]float64(nil), c...),
		A:     make([][]float64, stages),
		BLow:  append([]float64(nil), bLow...),
		Order: order,
	}
	for i, row := range a {
		tb.A[i] = append([]float64(nil), row...)
	}
	if bHigh != nil {
		tb.BHigh = append([]float64(nil), bHigh...)
	}
	return tb, nil
}

func (t *Tableau) Stages() int { return len(t.C) }

// IsEmbedded reports whether the tableau carries a second weight vector and
// therefore supports adaptive step-size control.
func (t *Tableau) IsEmbedded() bool { return t.BHigh != nil }

func mustTableau(name string, order int, c []float64, a [][]float64, bLow, bHigh []float64) *Tableau {
	tb, err := NewTableau(name, order, c, a, bLow, bHigh)
	if err != nil {
		panic(err)
	}
	return tb
}

// ExplicitEuler is the one-stage first-order method. No embedded pair:
// integrations with it run in fixed-step mode.
func ExplicitEuler() *Tableau {
	return mustTableau("euler", 1,
		[]float64{0},
		[][]float64{{}},
		[]float64{1},
		nil,
	)
}

// Midpoint is the two-stage second-order explicit midpoint method.
func Midpoint() *Tableau {
	return mustTableau("midpoint", 2,
		[]float64{0, 0.5},
		[][]float64{{}, {0.5}},
		[]float64{0, 1},
		nil,
	)
}

// RK4 is the classic four-stage fourth-order method.
func RK4() *Tableau {
	return mustTableau("rk4", 4,
		[]float64{0, 0.5, 0.5, 1},
		[][]float64{
			{},
			{0.5},
			{0, 0.5},
			{0, 0, 1},
		},
		[]float64{1.0 / 6.0, 1.0 / 3.0, 1.0 / 3.0, 1.0 / 6.0},
		nil,
	)
}

// BogackiShampine is the 3(2) embedded pair. The third-order solution is
// propagated; the second-order companion feeds the error estimate.
func BogackiShampine() *Tableau {
	return mustTableau("bs23", 2,
		[]float64{0, 0.5, 0.75, 1},
		[][]float64{
			{},
			{0.5},
			{0, 0.75},
			{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0},
		},
		[]float64{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0, 0},
		[]float64{7.0 / 24.0, 0.25, 1.0 / 3.0, 0.125},
	)
}

// DormandPrince is the 5(4) embedded pair. The fifth-order solution is
// propagated; step control runs at the fourth order of the companion.
func DormandPrince() *Tableau {
	return mustTableau("dopri5", 4,
		[]float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1, 1},
		[][]float64{
			{},
			{1.0 / 5.0},
			{3.0 / 40.0, 9.0 / 40.0},
			{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
			{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
			{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
			{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
		},
		[]float64{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0, 0},
		[]float64{5179.0 / 57600.0, 0, 7571.0 / 16695.0, 393.0 / 640.0, -92097.0 / 339200.0, 187.0 / 2100.0, 1.0 / 40.0},
	)
}
