package experiment

import (
	"context"
	"math"
	"testing"

	"github.com/odelab/odeflow/internal/config"
	"github.com/odelab/odeflow/internal/problems"
)

func TestRegistryLookups(t *testing.T) {
	reg := NewRegistry()

	for _, name := range []string{"euler", "midpoint", "rk4", "bs32", "dopri54"} {
		if _, err := reg.GetTableau(name); err != nil {
			t.Errorf("tableau %s: %v", name, err)
		}
	}
	if _, err := reg.GetTableau("implicit_euler"); err == nil {
		t.Error("expected error for unknown tableau")
	}

	for _, name := range []string{"decay", "oscillator", "vanderpol", "lorenz"} {
		if _, err := reg.GetProblem(name, config.ProblemConfig{}); err != nil {
			t.Errorf("problem %s: %v", name, err)
		}
	}
	if _, err := reg.GetProblem("heat", config.ProblemConfig{}); err == nil {
		t.Error("expected error for unknown problem")
	}

	if len(reg.ListTableaus()) != 5 {
		t.Errorf("expected 5 tableaus, got %d", len(reg.ListTableaus()))
	}
	if len(reg.ListProblems()) != 4 {
		t.Errorf("expected 4 problems, got %d", len(reg.ListProblems()))
	}
}

func TestRegistryProblemParams(t *testing.T) {
	reg := NewRegistry()

	p, err := reg.GetProblem("decay", config.ProblemConfig{Lambda: 2.5})
	if err != nil {
		t.Fatal(err)
	}
	if d := p.(*problems.Decay); d.Lambda != 2.5 {
		t.Errorf("expected lambda 2.5, got %f", d.Lambda)
	}

	// Zero params keep the problem defaults.
	p, err = reg.GetProblem("lorenz", config.ProblemConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if l := p.(*problems.Lorenz); l.Rho != 28.0 {
		t.Errorf("expected rho 28, got %f", l.Rho)
	}
}

func TestExperimentRunDecay(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Problem = "decay"
	cfg.Solver.Tableau = "rk4"
	cfg.Solver.Dt = 0.01

	reg := NewRegistry()
	exp := New(cfg)
	if err := exp.Setup(reg, reg.DefaultMetrics()); err != nil {
		t.Fatal(err)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := math.Exp(-1.0)
	if got := res.Y.Data()[0]; math.Abs(got-want) > 1e-8 {
		t.Errorf("expected %g, got %g", want, got)
	}

	vals := exp.MetricValues()
	if vals["acceptance_rate"] != 1.0 {
		t.Errorf("fixed-step run should accept every step, got %f", vals["acceptance_rate"])
	}
}

func TestExperimentRunNotSetup(t *testing.T) {
	exp := New(config.DefaultConfig())
	if _, err := exp.Run(context.Background()); err == nil {
		t.Error("expected error before setup")
	}
}

func TestExperimentSetupUnknownNames(t *testing.T) {
	reg := NewRegistry()

	cfg := config.DefaultConfig()
	cfg.Solver.Tableau = "nope"
	if err := New(cfg).Setup(reg, nil); err == nil {
		t.Error("expected error for unknown tableau")
	}

	cfg = config.DefaultConfig()
	cfg.Problem = "nope"
	if err := New(cfg).Setup(reg, nil); err == nil {
		t.Error("expected error for unknown problem")
	}
}

func TestEnsembleToleranceSweep(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Problem = "decay"
	cfg.Solver.Tableau = "dopri54"

	reg := NewRegistry()
	tols := []float64{1e-3, 1e-6, 1e-9}

	runs, err := NewEnsemble(cfg, reg, tols).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != len(tols) {
		t.Fatalf("expected %d runs, got %d", len(tols), len(runs))
	}

	for i, run := range runs {
		if run.Tol != tols[i] {
			t.Errorf("run %d: expected tol %g, got %g", i, tols[i], run.Tol)
		}
		want := math.Exp(-1.0)
		if got := run.Result.Y.Data()[0]; math.Abs(got-want) > 1e-2 {
			t.Errorf("run %d: endpoint %g too far from %g", i, got, want)
		}
	}

	// Tighter tolerance never takes fewer accepted steps.
	for i := 1; i < len(runs); i++ {
		if runs[i].Result.Steps < runs[i-1].Result.Steps {
			t.Errorf("steps decreased from %d to %d as tolerance tightened",
				runs[i-1].Result.Steps, runs[i].Result.Steps)
		}
	}
}
