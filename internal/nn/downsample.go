package nn

import (
	"math/rand"

	"github.com/odelab/odeflow/internal/tensor"
)

// ConvDownsampler lifts the input to the working channel count and halves
// the spatial resolution once per downsampling block via stride-2
// convolutions.
type ConvDownsampler struct {
	layers *Sequential
}

func NewConvDownsampler(inCh, outCh, kernel, nBlocks int, act Module, withNorm bool, rng *rand.Rand) *ConvDownsampler {
	pad := kernel / 2

	mods := []Module{
		NewConv2D(inCh, outCh, kernel, 1, pad, rng),
	}
	if withNorm {
		mods = append(mods, NewBatchNorm(outCh))
	}
	mods = append(mods, act)

	for i := 0; i < nBlocks; i++ {
		mods = append(mods, NewConv2D(outCh, outCh, kernel, 2, pad, rng))
		if withNorm {
			mods = append(mods, NewBatchNorm(outCh))
		}
		mods = append(mods, act)
	}

	return &ConvDownsampler{layers: NewSequential(mods...)}
}

func (d *ConvDownsampler) Forward(x *tensor.Tensor) *tensor.Tensor {
	return d.layers.Forward(x)
}

func (d *ConvDownsampler) Parameters() []*Parameter {
	return d.layers.Parameters()
}
