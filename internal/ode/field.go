package ode

import "github.com/odelab/odeflow/internal/tensor"

// Field is the right-hand side of the ODE dy/dt = f(t, y). Implementations
// must return a tensor of the same shape as y and must not retain or mutate
// y. The solver treats the field as an opaque numeric function.
type Field interface {
	Evaluate(t float64, y *tensor.Tensor) *tensor.Tensor
}

// FieldFunc adapts a plain function to the Field interface.
type FieldFunc func(t float64, y *tensor.Tensor) *tensor.Tensor

func (f FieldFunc) Evaluate(t float64, y *tensor.Tensor) *tensor.Tensor {
	return f(t, y)
}
