package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/odelab/odeflow/internal/analysis"
	"github.com/odelab/odeflow/internal/config"
	"github.com/odelab/odeflow/internal/experiment"
	"github.com/odelab/odeflow/internal/models"
	"github.com/odelab/odeflow/internal/ode"
	"github.com/odelab/odeflow/internal/storage"
	"github.com/odelab/odeflow/internal/tensor"
	"github.com/odelab/odeflow/internal/viz"
)

var (
	dataDir    string
	tableau    string
	t0         float64
	t1         float64
	dt         float64
	atol       float64
	rtol       float64
	maxSteps   int
	trajectory bool
	seed       int64
	configFile string
	preset     string
	lambda     float64
	mu         float64
	// sweep
	sweepTols []float64
	// plot
	plotSteps bool
	// classify
	arch       string
	activation string
	withNorm   bool
	channels   int
	blocks     int
	kernel     int
	downBlocks int
	inputSize  int
	outputSize int
	imageSize  int
	batch      int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "odeflow",
		Short: "runge-kutta solver lab and continuous-depth classifiers",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".odeflow", "data directory")

	solveCmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "integrate a problem and store the run",
		Args:  cobra.ExactArgs(1),
		RunE:  solveProblem,
	}
	addSolverFlags(solveCmd)
	solveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	solveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	solveCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	solveCmd.Flags().Float64Var(&lambda, "lambda", config.DefaultLambda, "decay rate (decay)")
	solveCmd.Flags().Float64Var(&mu, "mu", config.DefaultMu, "damping parameter (vanderpol)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().BoolVar(&plotSteps, "steps", false, "plot accepted step sizes instead of the trajectory")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSVRun,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [problem] [tableau1] [tableau2] ...",
		Short: "compare tableaus on the same problem",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareTableaus,
	}
	addSolverFlags(compareCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [problem]",
		Short: "run a concurrent tolerance sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepTolerances,
	}
	addSolverFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&sweepTols, "tols", []float64{1e-3, 1e-6, 1e-9}, "tolerances to sweep")

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list available presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for problem: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench [problem]",
		Short: "benchmark tableaus on a problem",
		Args:  cobra.ExactArgs(1),
		RunE:  benchProblem,
	}

	orderCmd := &cobra.Command{
		Use:   "order [tableau]",
		Short: "estimate the empirical convergence order",
		Args:  cobra.ExactArgs(1),
		RunE:  estimateOrder,
	}

	liveCmd := &cobra.Command{
		Use:   "live [problem]",
		Short: "integrate with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addSolverFlags(liveCmd)

	classifyCmd := &cobra.Command{
		Use:   "classify",
		Short: "assemble a classifier and run a forward pass on random input",
		RunE:  classify,
	}
	classifyCmd.Flags().StringVar(&arch, "arch", "conv_ode", "architecture: "+strings.Join(models.Archs(), ", "))
	classifyCmd.Flags().StringVar(&activation, "activation", "relu", "activation function")
	classifyCmd.Flags().BoolVar(&withNorm, "with-norm", false, "insert batch norm layers")
	classifyCmd.Flags().IntVar(&channels, "channels", 64, "working channel count")
	classifyCmd.Flags().IntVar(&blocks, "blocks", 6, "residual blocks (resnet variants)")
	classifyCmd.Flags().IntVar(&kernel, "kernel", 3, "convolution kernel size")
	classifyCmd.Flags().IntVar(&downBlocks, "down-blocks", 2, "downsampling blocks")
	classifyCmd.Flags().IntVar(&inputSize, "input-size", 28*28, "flattened input size (linear variants)")
	classifyCmd.Flags().IntVar(&outputSize, "output-size", 10, "number of classes")
	classifyCmd.Flags().IntVar(&imageSize, "image-size", 28, "input resolution (conv variants)")
	classifyCmd.Flags().IntVar(&batch, "batch", 1, "batch size")
	classifyCmd.Flags().StringVar(&tableau, "tableau", "dopri54", "tableau for the ode layer")
	classifyCmd.Flags().Int64Var(&seed, "seed", 42, "random seed")

	rootCmd.AddCommand(solveCmd, listCmd, plotCmd, exportCmd, exportCSVCmd,
		compareCmd, sweepCmd, presetsCmd, benchCmd, orderCmd, liveCmd, classifyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSolverFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&tableau, "tableau", "dopri54", "butcher tableau")
	cmd.Flags().Float64Var(&t0, "t0", config.DefaultT0, "start time")
	cmd.Flags().Float64Var(&t1, "t1", config.DefaultT1, "end time")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "initial step size")
	cmd.Flags().Float64Var(&atol, "atol", config.DefaultAtol, "absolute tolerance")
	cmd.Flags().Float64Var(&rtol, "rtol", config.DefaultRtol, "relative tolerance")
	cmd.Flags().IntVar(&maxSteps, "max-steps", config.DefaultMaxSteps, "step budget")
	cmd.Flags().BoolVar(&trajectory, "trajectory", true, "retain the trajectory")
}

// buildConfig resolves preset, config file and flags (flags win) into one
// config for the named problem.
func buildConfig(cmd *cobra.Command, problem string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Problem = problem

	if preset != "" {
		p := config.GetPreset(problem, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(problem))
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		*cfg = *loaded
		cfg.Problem = problem
	}

	if cmd.Flags().Changed("tableau") || cfg.Solver.Tableau == "" {
		cfg.Solver.Tableau = tableau
	}
	if cmd.Flags().Changed("t0") {
		cfg.Solver.T0 = t0
	}
	if cmd.Flags().Changed("t1") {
		cfg.Solver.T1 = t1
	}
	if cmd.Flags().Changed("dt") || cfg.Solver.Dt == 0 {
		cfg.Solver.Dt = dt
	}
	if cmd.Flags().Changed("atol") {
		cfg.Solver.Atol = atol
	}
	if cmd.Flags().Changed("rtol") {
		cfg.Solver.Rtol = rtol
	}
	if cmd.Flags().Changed("max-steps") || cfg.Solver.MaxSteps == 0 {
		cfg.Solver.MaxSteps = maxSteps
	}
	if cmd.Flags().Changed("trajectory") {
		cfg.Solver.Trajectory = trajectory
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("lambda") {
		cfg.Params.Lambda = lambda
	}
	if cmd.Flags().Changed("mu") {
		cfg.Params.Mu = mu
	}
	return cfg, nil
}

func solveProblem(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(cfg)
	if err := exp.Setup(registry, registry.DefaultMetrics()); err != nil {
		return err
	}

	fmt.Printf("solving %s with %s...\n", cfg.Problem, cfg.Solver.Tableau)
	start := time.Now()

	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result, exp.MetricValues())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (rejected %d, %d field evals)\n", result.Steps, result.Rejected, result.Evals)
	fmt.Printf("final state: %v\n", result.Y.Data())
	fmt.Println("\nmetrics:")
	for name, val := range exp.MetricValues() {
		fmt.Printf("  %s: %.6g\n", name, val)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tTABLEAU\tTIME\tINTERVAL\tSTEPS\tREJECTED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t[%.2f, %.2f]\t%d\t%d\n",
			run.ID,
			run.Problem,
			run.Tableau,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.T0, run.T1,
			run.Steps,
			run.Rejected,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s (%s)\n", meta.Problem, meta.Tableau)
	fmt.Printf("samples: %d\n\n", len(states))

	if plotSteps {
		fmt.Println(viz.PlotStepSizes(times))
		return nil
	}

	numVars := len(states[0])
	if numVars > 6 {
		numVars = 6
	}
	for i := 0; i < numVars; i++ {
		fmt.Println(viz.PlotComponent(states, i, fmt.Sprintf("x%d vs time", i)))
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	out := struct {
		storage.RunMetadata
		Times  []float64   `json:"times"`
		States [][]float64 `json:"states"`
	}{RunMetadata: *meta, Times: times, States: states}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func exportCSVRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"time"}
	for i := range states[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range states {
		row := []string{strconv.FormatFloat(times[i], 'g', -1, 64)}
		for _, val := range states[i] {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func compareTableaus(cmd *cobra.Command, args []string) error {
	problem := args[0]
	names := args[1:]

	cfg, err := buildConfig(cmd, problem)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()

	fmt.Printf("comparing tableaus on %s over [%.2f, %.2f]\n\n", problem, cfg.Solver.T0, cfg.Solver.T1)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLEAU\tFINAL_X0\tSTEPS\tREJECTED\tEVALS\tTIME")

	for _, name := range names {
		runCfg := *cfg
		runCfg.Solver.Tableau = name

		exp := experiment.New(&runCfg)
		if err := exp.Setup(registry, nil); err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := exp.Run(context.Background())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		fmt.Fprintf(w, "%s\t%.6f\t%d\t%d\t%d\t%v\n",
			name, result.Y.Data()[0], result.Steps, result.Rejected, result.Evals, elapsed)
	}
	return w.Flush()
}

func sweepTolerances(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	ensemble := experiment.NewEnsemble(cfg, registry, sweepTols)

	fmt.Printf("sweeping %s with %s over %d tolerances...\n\n", cfg.Problem, cfg.Solver.Tableau, len(sweepTols))
	runs, err := ensemble.Run(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOL\tFINAL_X0\tSTEPS\tREJECTED\tEVALS\tMEAN_H")
	for _, run := range runs {
		fmt.Fprintf(w, "%.0e\t%.8f\t%d\t%d\t%d\t%.3e\n",
			run.Tol, run.Result.Y.Data()[0], run.Result.Steps, run.Result.Rejected,
			run.Result.Evals, run.Metrics["mean_step_size"])
	}
	return w.Flush()
}

func benchProblem(cmd *cobra.Command, args []string) error {
	problem := args[0]
	registry := experiment.NewRegistry()

	dts := []float64{0.001, 0.01, 0.1}
	names := []string{"euler", "midpoint", "rk4"}

	fmt.Printf("benchmarking %s\n\n", problem)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLEAU\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, name := range names {
		for _, h := range dts {
			cfg := config.DefaultConfig()
			cfg.Problem = problem
			cfg.Solver.Tableau = name
			cfg.Solver.T1 = 10.0
			cfg.Solver.Dt = h
			cfg.Solver.MaxSteps = 10000000

			exp := experiment.New(cfg)
			if err := exp.Setup(registry, nil); err != nil {
				return err
			}

			start := time.Now()
			result, err := exp.Run(context.Background())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			stepsPerSec := float64(result.Steps) / elapsed.Seconds()
			fmt.Fprintf(w, "%s\t%.4f\t%d\t%v\t%.0f\n", name, h, result.Steps, elapsed, stepsPerSec)
		}
	}
	return w.Flush()
}

func estimateOrder(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	tb, err := registry.GetTableau(args[0])
	if err != nil {
		return err
	}

	decay, err := registry.GetProblem("decay", config.ProblemConfig{})
	if err != nil {
		return err
	}
	d := decay.(interface {
		InitialState() *tensor.Tensor
		Exact(t float64, y0 *tensor.Tensor) *tensor.Tensor
	})

	y0 := d.InitialState()
	dts := []float64{0.1, 0.05, 0.025, 0.0125, 0.00625}
	study, err := analysis.EstimateOrder(context.Background(), tb, decay, y0, 0, 1, dts, d.Exact(1, y0))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tGLOBAL_ERROR")
	for _, pt := range study.Points {
		fmt.Fprintf(w, "%.5f\t%.3e\n", pt.Dt, pt.Error)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nempirical order: %.3f\n", study.Order)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	tb, err := registry.GetTableau(cfg.Solver.Tableau)
	if err != nil {
		return err
	}
	problem, err := registry.GetProblem(cfg.Problem, cfg.Params)
	if err != nil {
		return err
	}

	odeCfg, control := experiment.SolverSettings(cfg.Solver)
	m := viz.NewLiveModel(problem, tb, control, odeCfg)

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func classify(cmd *cobra.Command, args []string) error {
	modelCfg := config.ModelConfig{
		Arch:       arch,
		Activation: activation,
		WithNorm:   withNorm,
		InChannels: 1,
		Channels:   channels,
		Blocks:     blocks,
		Kernel:     kernel,
		DownBlocks: downBlocks,
		InputSize:  inputSize,
		OutputSize: outputSize,
	}

	registry := experiment.NewRegistry()
	tb, err := registry.GetTableau(tableau)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	solverCfg := ode.DefaultConfig()

	fmt.Printf("assembling %s (%s, tableau %s)...\n", arch, activation, tableau)
	model, err := models.New(modelCfg, tb, ode.DefaultStepControl(), solverCfg, rng)
	if err != nil {
		return err
	}
	fmt.Printf("parameters: %d tensors\n\n", len(model.Parameters()))

	var x *tensor.Tensor
	switch arch {
	case "conv_ode", "resnet_conv":
		x = tensor.Randn(rng, batch, 1, imageSize, imageSize)
	default:
		x = tensor.Randn(rng, batch, inputSize)
	}

	start := time.Now()
	logits := model.Forward(x)
	elapsed := time.Since(start)

	fmt.Printf("forward pass (%v input) in %v\n", x.Shape(), elapsed)
	for n := 0; n < batch; n++ {
		row := logits.Data()[n*outputSize : (n+1)*outputSize]
		best := 0
		for i, v := range row {
			if v > row[best] {
				best = i
			}
		}
		fmt.Printf("sample %d: class %d\n", n, best)
		fmt.Printf("  logits: %v\n", row)
	}
	return nil
}
