package nn

import "github.com/odelab/odeflow/internal/tensor"

// Module is the base interface for network components. Forward panics on
// shape violations; those are programming errors, not runtime conditions.
type Module interface {
	Forward(x *tensor.Tensor) *tensor.Tensor

	// Parameters returns all trainable parameters, including those of
	// nested modules. Modules without parameters return an empty slice.
	Parameters() []*Parameter
}

// Parameter is a named trainable tensor. The solver and the layers treat
// parameter contents as opaque.
type Parameter struct {
	name  string
	value *tensor.Tensor
}

func NewParameter(name string, value *tensor.Tensor) *Parameter {
	return &Parameter{name: name, value: value}
}

func (p *Parameter) Name() string           { return p.name }
func (p *Parameter) Tensor() *tensor.Tensor { return p.value }

// Sequential chains modules in order.
type Sequential struct {
	mods []Module
}

func NewSequential(mods ...Module) *Sequential {
	return &Sequential{mods: mods}
}

func (s *Sequential) Forward(x *tensor.Tensor) *tensor.Tensor {
	for _, m := range s.mods {
		x = m.Forward(x)
	}
	return x
}

func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, m := range s.mods {
		params = append(params, m.Parameters()...)
	}
	return params
}
