package nn

import (
	"context"
	"fmt"

	"github.com/odelab/odeflow/internal/ode"
	"github.com/odelab/odeflow/internal/tensor"
)

// ODELayer is a continuous-depth layer: its forward pass integrates the
// learned vector field from T0 to T1 and returns the endpoint state. With
// an embedded tableau the integration is adaptive; otherwise it runs fixed
// steps of Dt. The input shape is whatever the field accepts, and the
// output shape equals the input shape.
type ODELayer struct {
	field FieldModule
	integ *ode.Integrator
	cfg   ode.Config
}

// NewODELayer binds a field to a tableau and solver settings. The tableau
// decides the stepping mode; control carries the tolerances.
func NewODELayer(field FieldModule, tb *ode.Tableau, control ode.StepControl, cfg ode.Config) *ODELayer {
	return &ODELayer{
		field: field,
		integ: ode.New(tb, control),
		cfg:   cfg,
	}
}

// Forward runs the integration. Solver failures (non-finite states, step
// underflow, step budget) are panics here: Module's Forward contract has no
// error channel, and a diverged forward pass is not a recoverable
// condition for inference.
func (l *ODELayer) Forward(x *tensor.Tensor) *tensor.Tensor {
	res, err := l.integ.Integrate(context.Background(), l.field, x, l.cfg)
	if err != nil {
		panic(fmt.Sprintf("nn: ode layer forward failed: %v", err))
	}
	return res.Y
}

func (l *ODELayer) Parameters() []*Parameter {
	return l.field.Parameters()
}

// Field exposes the bound vector field, mainly for tests.
func (l *ODELayer) Field() FieldModule { return l.field }
