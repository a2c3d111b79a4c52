package nn

import (
	"fmt"
	"math/rand"

	"github.com/odelab/odeflow/internal/tensor"
)

// Linear is a fully connected layer: y = x W^T + b for x of shape
// [batch, in]. Weight shape is [out, in], bias [out].
type Linear struct {
	in, out int
	weight  *Parameter
	bias    *Parameter
}

func NewLinear(in, out int, rng *rand.Rand) *Linear {
	return &Linear{
		in:     in,
		out:    out,
		weight: NewParameter("weight", xavier(rng, in, out, out, in)),
		bias:   NewParameter("bias", tensor.New(out)),
	}
}

func (l *Linear) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Dims() != 2 || x.Dim(1) != l.in {
		panic(fmt.Sprintf("nn: linear expects [batch, %d], got %v", l.in, x.Shape()))
	}
	batch := x.Dim(0)

	y := tensor.New(batch, l.out)
	xd := x.Data()
	yd := y.Data()
	wd := l.weight.Tensor().Data()
	bd := l.bias.Tensor().Data()

	for n := 0; n < batch; n++ {
		row := xd[n*l.in : (n+1)*l.in]
		for o := 0; o < l.out; o++ {
			w := wd[o*l.in : (o+1)*l.in]
			sum := bd[o]
			for i, v := range row {
				sum += v * w[i]
			}
			yd[n*l.out+o] = sum
		}
	}
	return y
}

func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}
