package nn

import (
	"math"
	"math/rand"

	"github.com/odelab/odeflow/internal/tensor"
)

// xavier draws weights from the Glorot uniform distribution
// U(-sqrt(6/(fanIn+fanOut)), +sqrt(6/(fanIn+fanOut))).
func xavier(rng *rand.Rand, fanIn, fanOut int, shape ...int) *tensor.Tensor {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	w := tensor.New(shape...)
	d := w.Data()
	for i := range d {
		d[i] = (2*rng.Float64() - 1) * limit
	}
	return w
}
