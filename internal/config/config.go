package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultT0       = 0.0
	DefaultT1       = 1.0
	DefaultDt       = 0.1
	DefaultAtol     = 1e-6
	DefaultRtol     = 1e-6
	DefaultMaxSteps = 10000
	DefaultLambda   = 1.0
	DefaultMu       = 1.0
	DefaultSigma    = 10.0
	DefaultRho      = 28.0
	DefaultBeta     = 8.0 / 3.0
)

type Config struct {
	Problem string        `yaml:"problem"`
	Solver  SolverConfig  `yaml:"solver"`
	Model   ModelConfig   `yaml:"model"`
	Params  ProblemConfig `yaml:"params"`
	Seed    int64         `yaml:"seed"`
}

type SolverConfig struct {
	Tableau    string  `yaml:"tableau"`
	T0         float64 `yaml:"t0"`
	T1         float64 `yaml:"t1"`
	Dt         float64 `yaml:"dt"`
	Atol       float64 `yaml:"atol"`
	Rtol       float64 `yaml:"rtol"`
	MaxSteps   int     `yaml:"max_steps"`
	Trajectory bool    `yaml:"trajectory"`
}

type ModelConfig struct {
	Arch       string `yaml:"arch"`
	Activation string `yaml:"activation"`
	WithNorm   bool   `yaml:"with_norm"`
	InChannels int    `yaml:"in_channels"`
	Channels   int    `yaml:"channels"`
	Blocks     int    `yaml:"blocks"`
	Kernel     int    `yaml:"kernel"`
	DownBlocks int    `yaml:"downsampling_blocks"`
	InputSize  int    `yaml:"input_size"`
	OutputSize int    `yaml:"output_size"`
}

type ProblemConfig struct {
	Lambda float64 `yaml:"lambda"`
	Mu     float64 `yaml:"mu"`
	Sigma  float64 `yaml:"sigma"`
	Rho    float64 `yaml:"rho"`
	Beta   float64 `yaml:"beta"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem: "decay",
		Solver: SolverConfig{
			Tableau:  "dopri54",
			T0:       DefaultT0,
			T1:       DefaultT1,
			Dt:       DefaultDt,
			Atol:     DefaultAtol,
			Rtol:     DefaultRtol,
			MaxSteps: DefaultMaxSteps,
		},
		Model: ModelConfig{
			Arch:       "conv_ode",
			Activation: "relu",
			InChannels: 1,
			Channels:   64,
			Blocks:     6,
			Kernel:     3,
			DownBlocks: 2,
			InputSize:  28 * 28,
			OutputSize: 10,
		},
		Params: ProblemConfig{
			Lambda: DefaultLambda,
			Mu:     DefaultMu,
			Sigma:  DefaultSigma,
			Rho:    DefaultRho,
			Beta:   DefaultBeta,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
