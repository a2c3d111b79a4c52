package nn

import (
	"math/rand"

	"github.com/odelab/odeflow/internal/tensor"
)

// FieldModule is a learned vector field: a Module that can also serve as
// the right-hand side of the ODE layer's dynamics. The solver only ever
// sees the Evaluate side; parameters stay opaque behind Parameters().
type FieldModule interface {
	Module
	Evaluate(t float64, y *tensor.Tensor) *tensor.Tensor
}

// LinearField is a time-autonomous dense vector field on [batch, size]
// state: f(t, y) = W2 act(norm(W1 y)).
type LinearField struct {
	lin1 *Linear
	lin2 *Linear
	norm *BatchNorm
	act  Module
}

func NewLinearField(size int, act Module, withNorm bool, rng *rand.Rand) *LinearField {
	f := &LinearField{
		lin1: NewLinear(size, size, rng),
		lin2: NewLinear(size, size, rng),
		act:  act,
	}
	if withNorm {
		f.norm = NewBatchNorm(size)
	}
	return f
}

func (f *LinearField) Evaluate(t float64, y *tensor.Tensor) *tensor.Tensor {
	h := f.lin1.Forward(y)
	if f.norm != nil {
		h = f.norm.Forward(h)
	}
	return f.lin2.Forward(f.act.Forward(h))
}

func (f *LinearField) Forward(x *tensor.Tensor) *tensor.Tensor {
	return f.Evaluate(0, x)
}

func (f *LinearField) Parameters() []*Parameter {
	params := append(f.lin1.Parameters(), f.lin2.Parameters()...)
	if f.norm != nil {
		params = append(params, f.norm.Parameters()...)
	}
	return append(params, f.act.Parameters()...)
}

// ConvField is the convolutional vector field on [batch, ch, h, w] state:
// two channel-preserving same-padding convolutions around the activation.
type ConvField struct {
	conv1 *Conv2D
	conv2 *Conv2D
	norm  *BatchNorm
	act   Module
}

func NewConvField(channels int, act Module, withNorm bool, rng *rand.Rand) *ConvField {
	f := &ConvField{
		conv1: NewConv2D(channels, channels, 3, 1, 1, rng),
		conv2: NewConv2D(channels, channels, 3, 1, 1, rng),
		act:   act,
	}
	if withNorm {
		f.norm = NewBatchNorm(channels)
	}
	return f
}

func (f *ConvField) Evaluate(t float64, y *tensor.Tensor) *tensor.Tensor {
	h := f.conv1.Forward(y)
	if f.norm != nil {
		h = f.norm.Forward(h)
	}
	return f.conv2.Forward(f.act.Forward(h))
}

func (f *ConvField) Forward(x *tensor.Tensor) *tensor.Tensor {
	return f.Evaluate(0, x)
}

func (f *ConvField) Parameters() []*Parameter {
	params := append(f.conv1.Parameters(), f.conv2.Parameters()...)
	if f.norm != nil {
		params = append(params, f.norm.Parameters()...)
	}
	return append(params, f.act.Parameters()...)
}
