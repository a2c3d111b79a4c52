package experiment

import (
	"context"
	"sync"

	"github.com/odelab/odeflow/internal/config"
	"github.com/odelab/odeflow/internal/ode"
)

// SweepRun is one point of a tolerance sweep.
type SweepRun struct {
	Tol     float64
	Result  *ode.Result
	Metrics map[string]float64
}

// Ensemble runs the same problem at several tolerances concurrently. Each
// run builds its own integrator and metrics; the registry's tableaus are
// shared read-only.
type Ensemble struct {
	cfg  *config.Config
	reg  *Registry
	tols []float64
}

func NewEnsemble(cfg *config.Config, reg *Registry, tols []float64) *Ensemble {
	return &Ensemble{cfg: cfg, reg: reg, tols: tols}
}

func (e *Ensemble) Run(ctx context.Context) ([]*SweepRun, error) {
	runs := make([]*SweepRun, len(e.tols))
	errs := make([]error, len(e.tols))

	var wg sync.WaitGroup
	for i, tol := range e.tols {
		wg.Add(1)
		go func(idx int, tol float64) {
			defer wg.Done()

			cfgCopy := *e.cfg
			cfgCopy.Solver.Atol = tol
			cfgCopy.Solver.Rtol = tol

			exp := New(&cfgCopy)
			if err := exp.Setup(e.reg, e.reg.DefaultMetrics()); err != nil {
				errs[idx] = err
				return
			}

			res, err := exp.Run(ctx)
			if err != nil {
				errs[idx] = err
				return
			}
			runs[idx] = &SweepRun{Tol: tol, Result: res, Metrics: exp.MetricValues()}
		}(i, tol)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}
