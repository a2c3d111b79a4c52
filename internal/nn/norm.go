package nn

import (
	"fmt"
	"math"

	"github.com/odelab/odeflow/internal/tensor"
)

// BatchNorm normalizes over the feature/channel dimension (dim 1) using
// running statistics, then applies the learned affine transform. This is
// the inference form; running stats default to the identity normalization.
type BatchNorm struct {
	features int
	eps      float64
	gamma    *Parameter
	beta     *Parameter
	mean     *tensor.Tensor
	variance *tensor.Tensor
}

func NewBatchNorm(features int) *BatchNorm {
	return &BatchNorm{
		features: features,
		eps:      1e-5,
		gamma:    NewParameter("gamma", tensor.Full(1, features)),
		beta:     NewParameter("beta", tensor.New(features)),
		mean:     tensor.New(features),
		variance: tensor.Full(1, features),
	}
}

// Forward accepts [batch, features] or [batch, features, h, w].
func (b *BatchNorm) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Dims() != 2 && x.Dims() != 4 {
		panic(fmt.Sprintf("nn: batchnorm expects 2D or 4D input, got %v", x.Shape()))
	}
	if x.Dim(1) != b.features {
		panic(fmt.Sprintf("nn: batchnorm built for %d features, got %v", b.features, x.Shape()))
	}

	inner := 1
	if x.Dims() == 4 {
		inner = x.Dim(2) * x.Dim(3)
	}
	batch := x.Dim(0)

	y := x.Clone()
	yd := y.Data()
	gd := b.gamma.Tensor().Data()
	bd := b.beta.Tensor().Data()
	md := b.mean.Data()
	vd := b.variance.Data()

	for n := 0; n < batch; n++ {
		for f := 0; f < b.features; f++ {
			scale := gd[f] / math.Sqrt(vd[f]+b.eps)
			shift := bd[f] - md[f]*scale
			base := (n*b.features + f) * inner
			for i := 0; i < inner; i++ {
				yd[base+i] = yd[base+i]*scale + shift
			}
		}
	}
	return y
}

func (b *BatchNorm) Parameters() []*Parameter {
	return []*Parameter{b.gamma, b.beta}
}
