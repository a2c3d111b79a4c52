package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odelab/odeflow/internal/ode"
	"github.com/odelab/odeflow/internal/tensor"
)

func identityField(size int) *LinearField {
	f := NewLinearField(size, NewReLU(), false, rand.New(rand.NewSource(1)))
	zeroParams(f)
	w1 := f.lin1.weight.Tensor().Data()
	w2 := f.lin2.weight.Tensor().Data()
	for i := 0; i < size; i++ {
		w1[i*size+i] = 1
		w2[i*size+i] = 1
	}
	return f
}

func TestODELayerZeroFieldIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	field := NewLinearField(4, NewTanh(), true, rng)
	zeroParams(field)

	layer := NewODELayer(field, ode.DormandPrince(), ode.DefaultStepControl(), ode.DefaultConfig())

	x := tensor.Randn(rng, 3, 4)
	y := layer.Forward(x)

	require.Equal(t, x.Shape(), y.Shape())
	for i, v := range x.Data() {
		assert.InDelta(t, v, y.Data()[i], 1e-12)
	}
}

func TestODELayerEulerMatchesManualSteps(t *testing.T) {
	// W1 = W2 = I with relu makes f(y) = y on positive states, so each
	// Euler step multiplies the state by (1 + dt).
	field := identityField(2)

	cfg := ode.Config{T0: 0, T1: 1, Dt: 0.25, MaxSteps: 100}
	layer := NewODELayer(field, ode.ExplicitEuler(), ode.DefaultStepControl(), cfg)

	x, err := tensor.FromSlice([]float64{1, 2}, 1, 2)
	require.NoError(t, err)

	y := layer.Forward(x)
	want := math.Pow(1.25, 4)
	assert.InDelta(t, want, y.Data()[0], 1e-12)
	assert.InDelta(t, 2*want, y.Data()[1], 1e-12)
}

func TestODELayerAdaptiveTracksExponential(t *testing.T) {
	field := identityField(2)

	control := ode.DefaultStepControl()
	control.Atol, control.Rtol = 1e-8, 1e-8
	layer := NewODELayer(field, ode.DormandPrince(), control, ode.DefaultConfig())

	x, err := tensor.FromSlice([]float64{1, 0.5}, 1, 2)
	require.NoError(t, err)

	y := layer.Forward(x)
	assert.InDelta(t, math.E, y.Data()[0], 1e-6)
	assert.InDelta(t, 0.5*math.E, y.Data()[1], 1e-6)
}

func TestODELayerPanicsOnDivergence(t *testing.T) {
	field := identityField(1)
	// An enormous weight makes the dynamics blow up past overflow.
	field.lin1.weight.Tensor().Data()[0] = 1e300

	cfg := ode.Config{T0: 0, T1: 1, Dt: 0.1, MaxSteps: 100}
	layer := NewODELayer(field, ode.ExplicitEuler(), ode.DefaultStepControl(), cfg)

	x, err := tensor.FromSlice([]float64{1}, 1, 1)
	require.NoError(t, err)

	assert.Panics(t, func() { layer.Forward(x) })
}

func TestODELayerParametersDelegate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	field := NewConvField(4, NewReLU(), true, rng)
	layer := NewODELayer(field, ode.RK4(), ode.DefaultStepControl(), ode.DefaultConfig())

	assert.Equal(t, len(field.Parameters()), len(layer.Parameters()))
	assert.Same(t, field, layer.Field())
}

func TestODELayerConvShapePreserved(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	field := NewConvField(2, NewTanh(), false, rng)

	cfg := ode.Config{T0: 0, T1: 0.5, Dt: 0.25, MaxSteps: 100}
	layer := NewODELayer(field, ode.Midpoint(), ode.DefaultStepControl(), cfg)

	x := tensor.Randn(rng, 1, 2, 4, 4)
	y := layer.Forward(x)
	assert.Equal(t, []int{1, 2, 4, 4}, y.Shape())
}
