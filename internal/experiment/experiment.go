package experiment

import (
	"context"
	"fmt"

	"github.com/odelab/odeflow/internal/config"
	"github.com/odelab/odeflow/internal/metrics"
	"github.com/odelab/odeflow/internal/ode"
	"github.com/odelab/odeflow/internal/problems"
)

// SolverSettings translates the YAML solver section into integrator
// arguments. Zero tolerances fall back to the controller defaults.
func SolverSettings(s config.SolverConfig) (ode.Config, ode.StepControl) {
	control := ode.DefaultStepControl()
	if s.Atol > 0 {
		control.Atol = s.Atol
	}
	if s.Rtol > 0 {
		control.Rtol = s.Rtol
	}

	cfg := ode.Config{
		T0:         s.T0,
		T1:         s.T1,
		Dt:         s.Dt,
		MaxSteps:   s.MaxSteps,
		Trajectory: s.Trajectory,
	}
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = config.DefaultMaxSteps
	}
	return cfg, control
}

// Experiment wires one config into a solver run: problem, tableau,
// tolerances and step metrics.
type Experiment struct {
	cfg     *config.Config
	problem problems.Problem
	integ   *ode.Integrator
	odeCfg  ode.Config
	metrics []metrics.Metric
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Setup(reg *Registry, ms []metrics.Metric) error {
	tb, err := reg.GetTableau(e.cfg.Solver.Tableau)
	if err != nil {
		return err
	}
	problem, err := reg.GetProblem(e.cfg.Problem, e.cfg.Params)
	if err != nil {
		return err
	}

	odeCfg, control := SolverSettings(e.cfg.Solver)

	e.problem = problem
	e.odeCfg = odeCfg
	e.integ = ode.New(tb, control)
	e.metrics = ms
	for _, m := range ms {
		e.integ.AddObserver(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*ode.Result, error) {
	if e.integ == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	for _, m := range e.metrics {
		m.Reset()
	}
	return e.integ.Integrate(ctx, e.problem, e.problem.InitialState(), e.odeCfg)
}

func (e *Experiment) Problem() problems.Problem { return e.problem }

// MetricValues snapshots the collected metrics by name.
func (e *Experiment) MetricValues() map[string]float64 {
	out := make(map[string]float64, len(e.metrics))
	for _, m := range e.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}
