package experiment

import (
	"fmt"

	"github.com/odelab/odeflow/internal/config"
	"github.com/odelab/odeflow/internal/metrics"
	"github.com/odelab/odeflow/internal/ode"
	"github.com/odelab/odeflow/internal/problems"
)

type Registry struct {
	tableaus map[string]func() *ode.Tableau
	problems map[string]func(config.ProblemConfig) problems.Problem
}

func NewRegistry() *Registry {
	r := &Registry{
		tableaus: make(map[string]func() *ode.Tableau),
		problems: make(map[string]func(config.ProblemConfig) problems.Problem),
	}

	r.tableaus["euler"] = ode.ExplicitEuler
	r.tableaus["midpoint"] = ode.Midpoint
	r.tableaus["rk4"] = ode.RK4
	r.tableaus["bs32"] = ode.BogackiShampine
	r.tableaus["dopri54"] = ode.DormandPrince

	r.problems["decay"] = func(p config.ProblemConfig) problems.Problem {
		d := problems.NewDecay()
		if p.Lambda != 0 {
			d.Lambda = p.Lambda
		}
		return d
	}
	r.problems["oscillator"] = func(p config.ProblemConfig) problems.Problem {
		return problems.NewHarmonicOscillator()
	}
	r.problems["vanderpol"] = func(p config.ProblemConfig) problems.Problem {
		v := problems.NewVanDerPol()
		if p.Mu != 0 {
			v.Mu = p.Mu
		}
		return v
	}
	r.problems["lorenz"] = func(p config.ProblemConfig) problems.Problem {
		l := problems.NewLorenz()
		if p.Sigma != 0 {
			l.Sigma = p.Sigma
		}
		if p.Rho != 0 {
			l.Rho = p.Rho
		}
		if p.Beta != 0 {
			l.Beta = p.Beta
		}
		return l
	}

	return r
}

func (r *Registry) GetTableau(name string) (*ode.Tableau, error) {
	fn, ok := r.tableaus[name]
	if !ok {
		return nil, fmt.Errorf("unknown tableau: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetProblem(name string, params config.ProblemConfig) (problems.Problem, error) {
	fn, ok := r.problems[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem: %s", name)
	}
	return fn(params), nil
}

func (r *Registry) ListTableaus() []string {
	names := make([]string, 0, len(r.tableaus))
	for name := range r.tableaus {
		names = append(names, name)
	}
	return names
}

func (r *Registry) ListProblems() []string {
	names := make([]string, 0, len(r.problems))
	for name := range r.problems {
		names = append(names, name)
	}
	return names
}

func (r *Registry) DefaultMetrics() []metrics.Metric {
	return metrics.Defaults()
}
