// Package problems provides classic vector fields with known behavior for
// exercising the solver outside the neural path.
package problems

import (
	"math"

	"github.com/odelab/odeflow/internal/ode"
	"github.com/odelab/odeflow/internal/tensor"
)

// Problem is a benchmark vector field with a default initial state.
type Problem interface {
	ode.Field
	Name() string
	InitialState() *tensor.Tensor
}

// Decay is dy/dt = -lambda*y, with solution y0*exp(-lambda*t).
type Decay struct {
	Lambda float64
}

func NewDecay() *Decay { return &Decay{Lambda: 1.0} }

func (d *Decay) Name() string { return "decay" }

func (d *Decay) InitialState() *tensor.Tensor {
	y, _ := tensor.FromSlice([]float64{1}, 1)
	return y
}

func (d *Decay) Evaluate(t float64, y *tensor.Tensor) *tensor.Tensor {
	return y.Scale(-d.Lambda)
}

// Exact returns the analytic solution at time t from y0 at t=0.
func (d *Decay) Exact(t float64, y0 *tensor.Tensor) *tensor.Tensor {
	return y0.Scale(math.Exp(-d.Lambda * t))
}

// HarmonicOscillator is the undamped unit oscillator:
//
//	dx/dt = v
//	dv/dt = -x
type HarmonicOscillator struct{}

func NewHarmonicOscillator() *HarmonicOscillator { return &HarmonicOscillator{} }

func (h *HarmonicOscillator) Name() string { return "oscillator" }

func (h *HarmonicOscillator) InitialState() *tensor.Tensor {
	y, _ := tensor.FromSlice([]float64{1, 0}, 2)
	return y
}

func (h *HarmonicOscillator) Evaluate(t float64, y *tensor.Tensor) *tensor.Tensor {
	d := y.Clone()
	x, v := y.Data()[0], y.Data()[1]
	d.Data()[0] = v
	d.Data()[1] = -x
	return d
}

// Energy is conserved along exact trajectories; drift measures solver error.
func (h *HarmonicOscillator) Energy(y *tensor.Tensor) float64 {
	x, v := y.Data()[0], y.Data()[1]
	return 0.5 * (x*x + v*v)
}

// VanDerPol is the Van der Pol oscillator:
//
//	dx/dt = v
//	dv/dt = mu*(1 - x^2)*v - x
type VanDerPol struct {
	Mu float64
}

func NewVanDerPol() *VanDerPol {
	return &VanDerPol{Mu: 1.0} // classic limit-cycle value
}

func (v *VanDerPol) Name() string { return "vanderpol" }

func (v *VanDerPol) InitialState() *tensor.Tensor {
	y, _ := tensor.FromSlice([]float64{2, 0}, 2)
	return y
}

func (v *VanDerPol) Evaluate(t float64, y *tensor.Tensor) *tensor.Tensor {
	d := y.Clone()
	x, vel := y.Data()[0], y.Data()[1]
	d.Data()[0] = vel
	d.Data()[1] = v.Mu*(1-x*x)*vel - x
	return d
}

// Lorenz is the Lorenz attractor.
type Lorenz struct {
	Sigma, Rho, Beta float64
}

func NewLorenz() *Lorenz { return &Lorenz{10.0, 28.0, 8.0 / 3.0} }

func (l *Lorenz) Name() string { return "lorenz" }

func (l *Lorenz) InitialState() *tensor.Tensor {
	y, _ := tensor.FromSlice([]float64{1, 1, 1}, 3)
	return y
}

func (l *Lorenz) Evaluate(t float64, y *tensor.Tensor) *tensor.Tensor {
	d := y.Clone()
	x, yy, z := y.Data()[0], y.Data()[1], y.Data()[2]
	d.Data()[0] = l.Sigma * (yy - x)
	d.Data()[1] = x*(l.Rho-z) - yy
	d.Data()[2] = x*yy - l.Beta*z
	return d
}
