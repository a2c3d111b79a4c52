package nn

import (
	"fmt"
	"math/rand"

	"github.com/odelab/odeflow/internal/tensor"
)

// ConvHead maps [batch, ch, h, w] features to [batch, classes] logits via
// activation, global average pooling and a final linear layer.
type ConvHead struct {
	act Module
	lin *Linear
}

func NewConvHead(inCh, classes int, act Module, rng *rand.Rand) *ConvHead {
	return &ConvHead{
		act: act,
		lin: NewLinear(inCh, classes, rng),
	}
}

func (h *ConvHead) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Dims() != 4 {
		panic(fmt.Sprintf("nn: conv head expects 4D input, got %v", x.Shape()))
	}
	x = h.act.Forward(x)

	batch, ch := x.Dim(0), x.Dim(1)
	inner := x.Dim(2) * x.Dim(3)

	pooled := tensor.New(batch, ch)
	xd := x.Data()
	pd := pooled.Data()
	for n := 0; n < batch; n++ {
		for c := 0; c < ch; c++ {
			base := (n*ch + c) * inner
			sum := 0.0
			for i := 0; i < inner; i++ {
				sum += xd[base+i]
			}
			pd[n*ch+c] = sum / float64(inner)
		}
	}
	return h.lin.Forward(pooled)
}

func (h *ConvHead) Parameters() []*Parameter {
	return append(h.act.Parameters(), h.lin.Parameters()...)
}

// LinearHead maps [batch, size] features to [batch, classes] logits.
type LinearHead struct {
	act Module
	lin *Linear
}

func NewLinearHead(size, classes int, act Module, rng *rand.Rand) *LinearHead {
	return &LinearHead{
		act: act,
		lin: NewLinear(size, classes, rng),
	}
}

func (h *LinearHead) Forward(x *tensor.Tensor) *tensor.Tensor {
	return h.lin.Forward(h.act.Forward(x))
}

func (h *LinearHead) Parameters() []*Parameter {
	return append(h.act.Parameters(), h.lin.Parameters()...)
}
