// Package metrics collects per-run solver statistics by observing step
// events. Every Metric is an ode.Observer and can be attached directly to
// an Integrator.
package metrics

import "math"

// Metric accumulates a scalar over one integration run.
type Metric interface {
	Name() string
	OnStep(t, h, errNorm float64, accepted bool)
	Value() float64
	Reset()
}

// AcceptanceRate is the fraction of attempted steps that were accepted.
type AcceptanceRate struct {
	attempts int
	accepted int
}

func NewAcceptanceRate() *AcceptanceRate { return &AcceptanceRate{} }

func (a *AcceptanceRate) Name() string { return "acceptance_rate" }

func (a *AcceptanceRate) OnStep(t, h, errNorm float64, accepted bool) {
	a.attempts++
	if accepted {
		a.accepted++
	}
}

func (a *AcceptanceRate) Value() float64 {
	if a.attempts == 0 {
		return 0
	}
	return float64(a.accepted) / float64(a.attempts)
}

func (a *AcceptanceRate) Reset() {
	a.attempts = 0
	a.accepted = 0
}

// MaxErrorNorm is the largest scaled error norm among accepted steps. It
// stays <= 1 whenever the controller is doing its job.
type MaxErrorNorm struct {
	max float64
}

func NewMaxErrorNorm() *MaxErrorNorm { return &MaxErrorNorm{} }

func (m *MaxErrorNorm) Name() string { return "max_error_norm" }

func (m *MaxErrorNorm) OnStep(t, h, errNorm float64, accepted bool) {
	if accepted {
		m.max = math.Max(m.max, errNorm)
	}
}

func (m *MaxErrorNorm) Value() float64 { return m.max }
func (m *MaxErrorNorm) Reset()         { m.max = 0 }

// MeanStepSize averages the size of accepted steps.
type MeanStepSize struct {
	sum     float64
	samples int
}

func NewMeanStepSize() *MeanStepSize { return &MeanStepSize{} }

func (m *MeanStepSize) Name() string { return "mean_step_size" }

func (m *MeanStepSize) OnStep(t, h, errNorm float64, accepted bool) {
	if accepted {
		m.sum += h
		m.samples++
	}
}

func (m *MeanStepSize) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanStepSize) Reset() {
	m.sum = 0
	m.samples = 0
}

// MinStepSize is the smallest step the controller attempted, accepted or
// not. A value far below the mean flags locally stiff dynamics.
type MinStepSize struct {
	min     float64
	touched bool
}

func NewMinStepSize() *MinStepSize { return &MinStepSize{} }

func (m *MinStepSize) Name() string { return "min_step_size" }

func (m *MinStepSize) OnStep(t, h, errNorm float64, accepted bool) {
	if !m.touched || h < m.min {
		m.min = h
		m.touched = true
	}
}

func (m *MinStepSize) Value() float64 { return m.min }

func (m *MinStepSize) Reset() {
	m.min = 0
	m.touched = false
}

// Defaults returns the standard per-run metric set.
func Defaults() []Metric {
	return []Metric{
		NewAcceptanceRate(),
		NewMaxErrorNorm(),
		NewMeanStepSize(),
		NewMinStepSize(),
	}
}
