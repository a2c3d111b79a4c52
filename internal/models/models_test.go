package models

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odelab/odeflow/internal/config"
	"github.com/odelab/odeflow/internal/ode"
	"github.com/odelab/odeflow/internal/tensor"
)

func smallConfig() config.ModelConfig {
	return config.ModelConfig{
		Activation: "relu",
		InChannels: 1,
		Channels:   4,
		Blocks:     2,
		Kernel:     3,
		DownBlocks: 2,
		InputSize:  16,
		OutputSize: 10,
	}
}

func solverArgs() (*ode.Tableau, ode.StepControl, ode.Config) {
	return ode.ExplicitEuler(), ode.DefaultStepControl(), ode.Config{T0: 0, T1: 1, Dt: 0.25, MaxSteps: 100}
}

func TestResNetLinearShapes(t *testing.T) {
	cfg := smallConfig()
	m, err := NewResNetLinear(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	logits := m.Forward(tensor.New(3, 16))
	assert.Equal(t, []int{3, 10}, logits.Shape())

	// 4D input is flattened.
	logits = m.Forward(tensor.New(3, 1, 4, 4))
	assert.Equal(t, []int{3, 10}, logits.Shape())
}

func TestResNetConvShapes(t *testing.T) {
	cfg := smallConfig()
	m, err := NewResNetConv(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	logits := m.Forward(tensor.New(2, 1, 16, 16))
	assert.Equal(t, []int{2, 10}, logits.Shape())
}

func TestConvODEClassifierShapes(t *testing.T) {
	cfg := smallConfig()
	tb, control, solver := solverArgs()

	m, err := NewConvODEClassifier(cfg, tb, control, solver, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	logits := m.Forward(tensor.New(2, 1, 16, 16))
	assert.Equal(t, []int{2, 10}, logits.Shape())
	assert.NotEmpty(t, m.ODELayer().Parameters())
}

func TestLinearODEClassifierShapes(t *testing.T) {
	cfg := smallConfig()
	tb, control, solver := solverArgs()

	m, err := NewLinearODEClassifier(cfg, tb, control, solver, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	logits := m.Forward(tensor.New(5, 16))
	assert.Equal(t, []int{5, 10}, logits.Shape())
}

func TestNewByName(t *testing.T) {
	cfg := smallConfig()
	tb, control, solver := solverArgs()

	for _, arch := range Archs() {
		cfg.Arch = arch
		m, err := New(cfg, tb, control, solver, rand.New(rand.NewSource(1)))
		require.NoError(t, err, arch)
		assert.NotEmpty(t, m.Parameters(), arch)
	}

	cfg.Arch = "transformer"
	_, err := New(cfg, tb, control, solver, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestSeededInitIsDeterministic(t *testing.T) {
	cfg := smallConfig()
	cfg.Arch = "conv_ode"
	tb, control, solver := solverArgs()

	a, err := New(cfg, tb, control, solver, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	b, err := New(cfg, tb, control, solver, rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	x := tensor.Randn(rand.New(rand.NewSource(3)), 1, 1, 16, 16)
	ya := a.Forward(x)
	yb := b.Forward(x)
	assert.Equal(t, ya.Data(), yb.Data())
}

func TestUnknownActivationRejected(t *testing.T) {
	cfg := smallConfig()
	cfg.Activation = "softplus"

	_, err := NewResNetLinear(cfg, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}
