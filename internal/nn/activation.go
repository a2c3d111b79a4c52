package nn

import (
	"fmt"
	"math"

	"github.com/odelab/odeflow/internal/tensor"
)

func elementwise(x *tensor.Tensor, f func(float64) float64) *tensor.Tensor {
	y := x.Clone()
	d := y.Data()
	for i, v := range d {
		d[i] = f(v)
	}
	return y
}

type ReLU struct{}

func NewReLU() *ReLU { return &ReLU{} }

func (r *ReLU) Forward(x *tensor.Tensor) *tensor.Tensor {
	return elementwise(x, func(v float64) float64 { return math.Max(0, v) })
}

func (r *ReLU) Parameters() []*Parameter { return nil }

type Tanh struct{}

func NewTanh() *Tanh { return &Tanh{} }

func (t *Tanh) Forward(x *tensor.Tensor) *tensor.Tensor {
	return elementwise(x, math.Tanh)
}

func (t *Tanh) Parameters() []*Parameter { return nil }

type Sigmoid struct{}

func NewSigmoid() *Sigmoid { return &Sigmoid{} }

func (s *Sigmoid) Forward(x *tensor.Tensor) *tensor.Tensor {
	return elementwise(x, func(v float64) float64 { return 1 / (1 + math.Exp(-v)) })
}

func (s *Sigmoid) Parameters() []*Parameter { return nil }

// GELU uses the tanh approximation.
type GELU struct{}

func NewGELU() *GELU { return &GELU{} }

func (g *GELU) Forward(x *tensor.Tensor) *tensor.Tensor {
	c := math.Sqrt(2 / math.Pi)
	return elementwise(x, func(v float64) float64 {
		return 0.5 * v * (1 + math.Tanh(c*(v+0.044715*v*v*v)))
	})
}

func (g *GELU) Parameters() []*Parameter { return nil }

// activations maps names to constructors. Resolved once at model assembly;
// never via reflection.
var activations = map[string]func() Module{
	"relu":    func() Module { return NewReLU() },
	"tanh":    func() Module { return NewTanh() },
	"sigmoid": func() Module { return NewSigmoid() },
	"gelu":    func() Module { return NewGELU() },
}

// NewActivation builds the named activation.
func NewActivation(name string) (Module, error) {
	ctor, ok := activations[name]
	if !ok {
		return nil, fmt.Errorf("nn: unknown activation: %s", name)
	}
	return ctor(), nil
}

// Activations lists the registered activation names.
func Activations() []string {
	names := make([]string, 0, len(activations))
	for name := range activations {
		names = append(names, name)
	}
	return names
}
