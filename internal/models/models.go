// Package models assembles classifiers from the nn building blocks: plain
// residual networks and their continuous-depth counterparts where the
// residual stack is replaced by a single ODE layer.
package models

import (
	"fmt"
	"math/rand"

	"github.com/odelab/odeflow/internal/config"
	"github.com/odelab/odeflow/internal/nn"
	"github.com/odelab/odeflow/internal/ode"
	"github.com/odelab/odeflow/internal/tensor"
)

// flatten reshapes any input to [batch, features] for the dense models.
func flatten(x *tensor.Tensor) *tensor.Tensor {
	batch := x.Dim(0)
	return x.Reshape(batch, x.Len()/batch)
}

// ResNetLinear is a dense residual classifier on flattened input.
type ResNetLinear struct {
	blocks *nn.Sequential
	norm   *nn.BatchNorm
	head   *nn.LinearHead
}

func NewResNetLinear(cfg config.ModelConfig, rng *rand.Rand) (*ResNetLinear, error) {
	act, err := nn.NewActivation(cfg.Activation)
	if err != nil {
		return nil, err
	}

	blocks := make([]nn.Module, cfg.Blocks)
	for i := range blocks {
		blocks[i] = nn.NewLinearResidualBlock(cfg.InputSize, act, cfg.WithNorm, rng)
	}

	m := &ResNetLinear{
		blocks: nn.NewSequential(blocks...),
		head:   nn.NewLinearHead(cfg.InputSize, cfg.OutputSize, act, rng),
	}
	if cfg.WithNorm {
		m.norm = nn.NewBatchNorm(cfg.InputSize)
	}
	return m, nil
}

func (m *ResNetLinear) Forward(x *tensor.Tensor) *tensor.Tensor {
	x = m.blocks.Forward(flatten(x))
	if m.norm != nil {
		x = m.norm.Forward(x)
	}
	return m.head.Forward(x)
}

func (m *ResNetLinear) Parameters() []*nn.Parameter {
	params := m.blocks.Parameters()
	if m.norm != nil {
		params = append(params, m.norm.Parameters()...)
	}
	return append(params, m.head.Parameters()...)
}

// ResNetConv is the convolutional residual classifier: downsampler,
// residual stack, classification head.
type ResNetConv struct {
	down   *nn.ConvDownsampler
	blocks *nn.Sequential
	head   *nn.ConvHead
}

func NewResNetConv(cfg config.ModelConfig, rng *rand.Rand) (*ResNetConv, error) {
	act, err := nn.NewActivation(cfg.Activation)
	if err != nil {
		return nil, err
	}

	blocks := make([]nn.Module, cfg.Blocks)
	for i := range blocks {
		blocks[i] = nn.NewConvResidualBlock(cfg.Channels, act, cfg.WithNorm, rng)
	}

	return &ResNetConv{
		down:   nn.NewConvDownsampler(cfg.InChannels, cfg.Channels, cfg.Kernel, cfg.DownBlocks, act, cfg.WithNorm, rng),
		blocks: nn.NewSequential(blocks...),
		head:   nn.NewConvHead(cfg.Channels, cfg.OutputSize, act, rng),
	}, nil
}

func (m *ResNetConv) Forward(x *tensor.Tensor) *tensor.Tensor {
	return m.head.Forward(m.blocks.Forward(m.down.Forward(x)))
}

func (m *ResNetConv) Parameters() []*nn.Parameter {
	params := append(m.down.Parameters(), m.blocks.Parameters()...)
	return append(params, m.head.Parameters()...)
}

// ConvODEClassifier swaps the residual stack for a continuous-depth layer:
// downsampler, ODE layer over a convolutional field, classification head.
type ConvODEClassifier struct {
	down  *nn.ConvDownsampler
	layer *nn.ODELayer
	head  *nn.ConvHead
}

func NewConvODEClassifier(cfg config.ModelConfig, tb *ode.Tableau, control ode.StepControl, solver ode.Config, rng *rand.Rand) (*ConvODEClassifier, error) {
	act, err := nn.NewActivation(cfg.Activation)
	if err != nil {
		return nil, err
	}

	field := nn.NewConvField(cfg.Channels, act, cfg.WithNorm, rng)
	return &ConvODEClassifier{
		down:  nn.NewConvDownsampler(cfg.InChannels, cfg.Channels, cfg.Kernel, cfg.DownBlocks, act, cfg.WithNorm, rng),
		layer: nn.NewODELayer(field, tb, control, solver),
		head:  nn.NewConvHead(cfg.Channels, cfg.OutputSize, act, rng),
	}, nil
}

func (m *ConvODEClassifier) Forward(x *tensor.Tensor) *tensor.Tensor {
	return m.head.Forward(m.layer.Forward(m.down.Forward(x)))
}

func (m *ConvODEClassifier) Parameters() []*nn.Parameter {
	params := append(m.down.Parameters(), m.layer.Parameters()...)
	return append(params, m.head.Parameters()...)
}

// ODELayer exposes the continuous-depth layer, mainly for tests.
func (m *ConvODEClassifier) ODELayer() *nn.ODELayer { return m.layer }

// LinearODEClassifier is the dense continuous-depth classifier: the flattened
// input evolves under a dense field, then a linear head reads out logits.
type LinearODEClassifier struct {
	layer *nn.ODELayer
	head  *nn.LinearHead
}

func NewLinearODEClassifier(cfg config.ModelConfig, tb *ode.Tableau, control ode.StepControl, solver ode.Config, rng *rand.Rand) (*LinearODEClassifier, error) {
	act, err := nn.NewActivation(cfg.Activation)
	if err != nil {
		return nil, err
	}

	field := nn.NewLinearField(cfg.InputSize, act, cfg.WithNorm, rng)
	return &LinearODEClassifier{
		layer: nn.NewODELayer(field, tb, control, solver),
		head:  nn.NewLinearHead(cfg.InputSize, cfg.OutputSize, act, rng),
	}, nil
}

func (m *LinearODEClassifier) Forward(x *tensor.Tensor) *tensor.Tensor {
	return m.head.Forward(m.layer.Forward(flatten(x)))
}

func (m *LinearODEClassifier) Parameters() []*nn.Parameter {
	return append(m.layer.Parameters(), m.head.Parameters()...)
}

func (m *LinearODEClassifier) ODELayer() *nn.ODELayer { return m.layer }

// New builds the architecture named by cfg.Arch. The solver arguments only
// matter for the ODE variants.
func New(cfg config.ModelConfig, tb *ode.Tableau, control ode.StepControl, solver ode.Config, rng *rand.Rand) (nn.Module, error) {
	switch cfg.Arch {
	case "resnet_linear":
		return NewResNetLinear(cfg, rng)
	case "resnet_conv":
		return NewResNetConv(cfg, rng)
	case "conv_ode":
		return NewConvODEClassifier(cfg, tb, control, solver, rng)
	case "linear_ode":
		return NewLinearODEClassifier(cfg, tb, control, solver, rng)
	default:
		return nil, fmt.Errorf("models: unknown architecture %q", cfg.Arch)
	}
}

// Archs lists the buildable architecture names.
func Archs() []string {
	return []string{"conv_ode", "linear_ode", "resnet_conv", "resnet_linear"}
}
