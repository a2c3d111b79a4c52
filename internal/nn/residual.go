package nn

import (
	"math/rand"

	"github.com/odelab/odeflow/internal/tensor"
)

// LinearResidualBlock computes x + act(norm(W x + b)) on [batch, size]
// input. The norm is optional.
type LinearResidualBlock struct {
	lin  *Linear
	norm *BatchNorm
	act  Module
}

func NewLinearResidualBlock(size int, act Module, withNorm bool, rng *rand.Rand) *LinearResidualBlock {
	b := &LinearResidualBlock{
		lin: NewLinear(size, size, rng),
		act: act,
	}
	if withNorm {
		b.norm = NewBatchNorm(size)
	}
	return b
}

func (b *LinearResidualBlock) Forward(x *tensor.Tensor) *tensor.Tensor {
	h := b.lin.Forward(x)
	if b.norm != nil {
		h = b.norm.Forward(h)
	}
	return x.Add(b.act.Forward(h))
}

func (b *LinearResidualBlock) Parameters() []*Parameter {
	params := b.lin.Parameters()
	if b.norm != nil {
		params = append(params, b.norm.Parameters()...)
	}
	return append(params, b.act.Parameters()...)
}

// ConvResidualBlock is the convolutional analogue on [batch, ch, h, w]:
// a channel-preserving 3x3 convolution with same padding.
type ConvResidualBlock struct {
	conv *Conv2D
	norm *BatchNorm
	act  Module
}

func NewConvResidualBlock(channels int, act Module, withNorm bool, rng *rand.Rand) *ConvResidualBlock {
	b := &ConvResidualBlock{
		conv: NewConv2D(channels, channels, 3, 1, 1, rng),
		act:  act,
	}
	if withNorm {
		b.norm = NewBatchNorm(channels)
	}
	return b
}

func (b *ConvResidualBlock) Forward(x *tensor.Tensor) *tensor.Tensor {
	h := b.conv.Forward(x)
	if b.norm != nil {
		h = b.norm.Forward(h)
	}
	return x.Add(b.act.Forward(h))
}

func (b *ConvResidualBlock) Parameters() []*Parameter {
	params := b.conv.Parameters()
	if b.norm != nil {
		params = append(params, b.norm.Parameters()...)
	}
	return append(params, b.act.Parameters()...)
}
