package config

var Presets = map[string]map[string]*Config{
	"decay": {
		"coarse": {
			Problem: "decay",
			Solver:  SolverConfig{Tableau: "euler", T0: 0, T1: 1, Dt: 0.1, MaxSteps: 1000},
			Params:  ProblemConfig{Lambda: 1.0},
		},
		"tight": {
			Problem: "decay",
			Solver:  SolverConfig{Tableau: "dopri54", T0: 0, T1: 1, Dt: 0.1, Atol: 1e-9, Rtol: 1e-9, MaxSteps: 10000},
			Params:  ProblemConfig{Lambda: 1.0},
		},
		"slow": {
			Problem: "decay",
			Solver:  SolverConfig{Tableau: "rk4", T0: 0, T1: 10, Dt: 0.05, MaxSteps: 1000},
			Params:  ProblemConfig{Lambda: 0.2},
		},
	},
	"oscillator": {
		"period": {
			Problem: "oscillator",
			Solver:  SolverConfig{Tableau: "rk4", T0: 0, T1: 6.283185307179586, Dt: 0.01, MaxSteps: 10000, Trajectory: true},
		},
		"adaptive": {
			Problem: "oscillator",
			Solver:  SolverConfig{Tableau: "bs32", T0: 0, T1: 20, Dt: 0.1, Atol: 1e-6, Rtol: 1e-6, MaxSteps: 100000, Trajectory: true},
		},
	},
	"vanderpol": {
		"mild": {
			Problem: "vanderpol",
			Solver:  SolverConfig{Tableau: "dopri54", T0: 0, T1: 20, Dt: 0.1, Atol: 1e-6, Rtol: 1e-6, MaxSteps: 100000, Trajectory: true},
			Params:  ProblemConfig{Mu: 1.0},
		},
		"relaxation": {
			Problem: "vanderpol",
			Solver:  SolverConfig{Tableau: "dopri54", T0: 0, T1: 40, Dt: 0.01, Atol: 1e-8, Rtol: 1e-8, MaxSteps: 1000000, Trajectory: true},
			Params:  ProblemConfig{Mu: 10.0},
		},
	},
	"lorenz": {
		"chaos": {
			Problem: "lorenz",
			Solver:  SolverConfig{Tableau: "dopri54", T0: 0, T1: 40, Dt: 0.01, Atol: 1e-9, Rtol: 1e-9, MaxSteps: 1000000, Trajectory: true},
			Params:  ProblemConfig{Sigma: 10.0, Rho: 28.0, Beta: 8.0 / 3.0},
		},
		"stable": {
			Problem: "lorenz",
			Solver:  SolverConfig{Tableau: "dopri54", T0: 0, T1: 40, Dt: 0.01, Atol: 1e-6, Rtol: 1e-6, MaxSteps: 1000000, Trajectory: true},
			Params:  ProblemConfig{Sigma: 10.0, Rho: 14.0, Beta: 8.0 / 3.0},
		},
	},
}

func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	cfg, ok := problemPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(problem string) []string {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(problemPresets))
	for name := range problemPresets {
		names = append(names, name)
	}
	return names
}
