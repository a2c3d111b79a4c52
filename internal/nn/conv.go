package nn

import (
	"fmt"
	"math/rand"

	"github.com/odelab/odeflow/internal/tensor"
)

// Conv2D is a direct 2D convolution over NCHW input. Weight shape is
// [outCh, inCh, k, k], bias [outCh].
type Conv2D struct {
	inCh, outCh     int
	kernel          int
	stride, padding int
	weight          *Parameter
	bias            *Parameter
}

func NewConv2D(inCh, outCh, kernel, stride, padding int, rng *rand.Rand) *Conv2D {
	fanIn := inCh * kernel * kernel
	fanOut := outCh * kernel * kernel
	return &Conv2D{
		inCh:    inCh,
		outCh:   outCh,
		kernel:  kernel,
		stride:  stride,
		padding: padding,
		weight:  NewParameter("weight", xavier(rng, fanIn, fanOut, outCh, inCh, kernel, kernel)),
		bias:    NewParameter("bias", tensor.New(outCh)),
	}
}

func (c *Conv2D) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Dims() != 4 || x.Dim(1) != c.inCh {
		panic(fmt.Sprintf("nn: conv2d expects [batch, %d, h, w], got %v", c.inCh, x.Shape()))
	}
	batch, h, w := x.Dim(0), x.Dim(2), x.Dim(3)

	outH := (h+2*c.padding-c.kernel)/c.stride + 1
	outW := (w+2*c.padding-c.kernel)/c.stride + 1
	if outH < 1 || outW < 1 {
		panic(fmt.Sprintf("nn: conv2d kernel %d does not fit input %v", c.kernel, x.Shape()))
	}

	y := tensor.New(batch, c.outCh, outH, outW)
	xd := x.Data()
	yd := y.Data()
	wd := c.weight.Tensor().Data()
	bd := c.bias.Tensor().Data()

	k := c.kernel
	for n := 0; n < batch; n++ {
		for oc := 0; oc < c.outCh; oc++ {
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					sum := bd[oc]
					for ic := 0; ic < c.inCh; ic++ {
						wBase := ((oc*c.inCh + ic) * k) * k
						xBase := (n*c.inCh + ic) * h * w
						for ky := 0; ky < k; ky++ {
							iy := oy*c.stride + ky - c.padding
							if iy < 0 || iy >= h {
								continue
							}
							for kx := 0; kx < k; kx++ {
								ix := ox*c.stride + kx - c.padding
								if ix < 0 || ix >= w {
									continue
								}
								sum += xd[xBase+iy*w+ix] * wd[wBase+ky*k+kx]
							}
						}
					}
					yd[((n*c.outCh+oc)*outH+oy)*outW+ox] = sum
				}
			}
		}
	}
	return y
}

func (c *Conv2D) Parameters() []*Parameter {
	return []*Parameter{c.weight, c.bias}
}
