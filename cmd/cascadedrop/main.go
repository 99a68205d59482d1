package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/cascadedrop/internal/analysis"
	"github.com/san-kum/cascadedrop/internal/cad"
	"github.com/san-kum/cascadedrop/internal/config"
	"github.com/san-kum/cascadedrop/internal/dynamo"
	"github.com/san-kum/cascadedrop/internal/export"
	"github.com/san-kum/cascadedrop/internal/gui"
	"github.com/san-kum/cascadedrop/internal/logging"
	"github.com/san-kum/cascadedrop/internal/metrics"
	"github.com/san-kum/cascadedrop/internal/optim"
	"github.com/san-kum/cascadedrop/internal/scene"
	"github.com/san-kum/cascadedrop/internal/sim"
	"github.com/san-kum/cascadedrop/internal/storage"
	"github.com/san-kum/cascadedrop/internal/viewer"
	"github.com/san-kum/cascadedrop/internal/viz"
	"github.com/san-kum/cascadedrop/internal/watch"
	"github.com/spf13/cobra"
)

const banner = "Example: create OpenCascade shapes and use them as rigid bodies"

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	dt         float64
	duration   float64
	steps      int
	solverType string
	save       bool
	watchFile  bool
	meshCells  int
	recordStep int
	restSpeed  float64
	svgFile    string
	sweepArgs  []string
	metricName string

	log *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "cascadedrop",
		Short:         "drop a CAD shape onto a floor and watch it settle",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(os.Stderr, logLevel)
			if err != nil {
				return err
			}
			log = l
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(banner)
			return runView(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", storage.DefaultDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "scene config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "open the scene in a window",
		Args:  cobra.NoArgs,
		RunE:  runView,
	}
	viewCmd.Flags().BoolVar(&watchFile, "watch", false, "rebuild the scene when the config file changes")
	viewCmd.Flags().Float64Var(&dt, "dt", config.DefaultTimestep, "timestep")
	viewCmd.Flags().StringVar(&solverType, "solver", "sor", "contact solver (sor, jacobi)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the drop headless and store the result",
		Args:  cobra.NoArgs,
		RunE:  runHeadless,
	}
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultTimestep, "timestep")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	runCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (overrides --time)")
	runCmd.Flags().StringVar(&solverType, "solver", "sor", "contact solver (sor, jacobi)")
	runCmd.Flags().IntVar(&meshCells, "cells", config.DefaultMeshCells, "tessellation cells along the longest side")
	runCmd.Flags().IntVar(&recordStep, "record-every", 10, "keep one sample every n steps")
	runCmd.Flags().BoolVar(&save, "save", true, "store the run under the data directory")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "run the drop in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [preset...]",
		Short: "run presets side by side",
		RunE:  comparePresets,
	}
	compareCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (default: each preset's duration)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search scene parameters for the lowest metric",
		Args:  cobra.NoArgs,
		RunE:  sweepParams,
	}
	sweepCmd.Flags().StringArrayVar(&sweepArgs, "param", nil, "name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&metricName, "metric", "max_penetration", "metric to minimize")
	sweepCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (default: the config duration)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the shape height of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "bounce and settling analysis of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64Var(&restSpeed, "rest-speed", 0.01, "speed below which the shape counts as resting")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "height against vertical velocity of the shape",
		Args:  cobra.MaximumNArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&svgFile, "svg", "", "also write the portrait to an SVG file")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id] [path]",
		Short: "export run samples to CSV",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportCSV(args[0], optionalArg(args, 1))
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id] [path]",
		Short: "export run data to JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], optionalArg(args, 1))
		},
	}

	exportSTLCmd := &cobra.Command{
		Use:   "export-stl [path]",
		Short: "write the tessellated shape as binary STL",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSTL,
	}
	exportSTLCmd.Flags().IntVar(&meshCells, "cells", config.DefaultMeshCells, "tessellation cells along the longest side")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	rootCmd.AddCommand(viewCmd, runCmd, tuiCmd, compareCmd, sweepCmd, listCmd, plotCmd, analyzeCmd, phaseCmd, exportCSVCmd, exportJSONCmd, exportSTLCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// loadConfig applies the preset, then the config file, then any flag the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Timestep = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("solver") {
		cfg.Solver.Type = solverType
	}
	if flags.Changed("cells") {
		cfg.Shape.MeshCells = meshCells
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func sceneName() string {
	if preset != "" {
		return preset
	}
	return "default"
}

func addMetrics(loop *sim.Loop, s *scene.Scene) {
	loop.AddMetric(metrics.NewKineticEnergy())
	loop.AddMetric(metrics.NewMaxPenetration())
	loop.AddMetric(metrics.NewContactCount())
	loop.AddMetric(metrics.NewRestDetector(s.Shape, 0.01, 0.1, 40))
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var w *watch.Watcher
	if watchFile {
		if configFile == "" {
			return errors.New("--watch needs --config")
		}
		w, err = watch.New(configFile, watch.DefaultDebounce)
		if err != nil {
			return err
		}
		defer w.Close()
	}

	dev := gui.Open(scene.ViewerOptions(cfg), cfg.Viewer.FPS)
	defer dev.Close()

	loop, err := buildWindowLoop(cmd.Context(), cfg, dev)
	if err != nil {
		return err
	}
	for loop.State() == sim.Running {
		if w != nil {
			select {
			case err := <-w.Errors:
				log.Warn("config watch error", "path", w.Path(), "err", err)
			default:
			}
			if w.Changed() {
				loop = reload(cmd, loop, dev)
			}
		}
		if err := loop.Iterate(); err != nil {
			return err
		}
	}
	res := loop.Result()
	log.Info("viewer closed", "reason", res.Reason, "steps", res.StepsTaken, "time", res.Time)
	return nil
}

func buildWindowLoop(ctx context.Context, cfg *config.Config, dev viewer.Device) (*sim.Loop, error) {
	s, err := scene.Build(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	v := viewer.New(s.World, dev, scene.ViewerOptions(cfg), log)
	if err := s.Attach(v, cfg); err != nil {
		return nil, err
	}
	loop := sim.New(v, sim.Config{})
	if err := loop.Start(); err != nil {
		return nil, err
	}
	return loop, nil
}

// reload rebuilds the scene from the watched file. A broken file keeps the
// current scene running.
func reload(cmd *cobra.Command, current *sim.Loop, dev viewer.Device) *sim.Loop {
	cfg, err := loadConfig(cmd)
	if err != nil {
		log.Warn("config reload failed", "err", err)
		return current
	}
	next, err := buildWindowLoop(cmd.Context(), cfg, dev)
	if err != nil {
		log.Warn("scene rebuild failed", "err", err)
		return current
	}
	current.Stop()
	log.Info("scene rebuilt", "config", configFile)
	return next
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	n := cfg.Steps()
	if cmd.Flags().Changed("steps") {
		n = steps
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	s, err := scene.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	v := viewer.New(s.World, viewer.NewHeadless(0), scene.ViewerOptions(cfg), log)
	if err := s.Attach(v, cfg); err != nil {
		return err
	}
	loop := sim.New(v, sim.Config{MaxSteps: n, RecordEvery: recordStep})
	addMetrics(loop, s)

	fmt.Printf("running %s drop (%d steps, dt=%g, %s)...\n", sceneName(), n, cfg.Timestep, s.World.SolverType())
	start := time.Now()
	result, err := loop.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v (%s)\n", elapsed, result.Reason)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("shape at: %.4f %.4f %.4f\n", s.Shape.Pos()[0], s.Shape.Pos()[1], s.Shape.Pos()[2])
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	if !save {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(sceneName(), cfg, result)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	build := func(name string) (*viz.Session, error) {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", name)
		}
		if name == preset || (preset == "" && name == "default") {
			cfg = base
		}
		s, err := scene.Build(cmd.Context(), cfg, logging.Discard())
		if err != nil {
			return nil, err
		}
		dev := viz.NewTerminal(80, 24)
		v := viewer.New(s.World, dev, scene.ViewerOptions(cfg), logging.Discard())
		if err := s.Attach(v, cfg); err != nil {
			return nil, err
		}
		loop := sim.New(v, sim.Config{MaxSteps: cfg.Steps()})
		addMetrics(loop, s)
		return &viz.Session{Loop: loop, Device: dev, Tracked: s.Shape}, nil
	}
	return viz.Run(viz.NewModel(config.ListPresets(), build, preset))
}

func comparePresets(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = config.ListPresets()
	}
	cfgs := make([]*config.Config, len(names))
	for i, name := range names {
		if cfgs[i] = config.GetPreset(name); cfgs[i] == nil {
			return fmt.Errorf("unknown preset: %s", name)
		}
	}

	shapes := make([]*scene.Scene, len(names))
	ens := sim.NewEnsemble(len(names), func(idx int) (*sim.Loop, error) {
		cfg := cfgs[idx]
		s, err := scene.Build(cmd.Context(), cfg, log.With("preset", names[idx]))
		if err != nil {
			return nil, err
		}
		shapes[idx] = s
		v := viewer.New(s.World, viewer.NewHeadless(0), scene.ViewerOptions(cfg), logging.Discard())
		if err := s.Attach(v, cfg); err != nil {
			return nil, err
		}
		n := cfg.Steps()
		if steps > 0 {
			n = steps
		}
		loop := sim.New(v, sim.Config{MaxSteps: n})
		addMetrics(loop, s)
		return loop, nil
	})

	fmt.Printf("comparing %s...\n\n", strings.Join(names, ", "))
	results, err := ens.Run(cmd.Context())
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(viz.Subtle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return viz.MetricLabel.Bold(true)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("PRESET", "SOLVER", "STEPS", "FINAL Y", "FINAL KE", "MAX PEN", "REST AT")
	for i, res := range results {
		rest := "-"
		if at := res.Metrics["rest_time"]; at >= 0 {
			rest = fmt.Sprintf("%.3fs", at)
		}
		t.Row(
			names[i],
			cfgs[i].Solver.Type,
			fmt.Sprintf("%d", res.StepsTaken),
			fmt.Sprintf("%.4f", shapes[i].Shape.Pos()[1]),
			fmt.Sprintf("%.4f", res.Metrics["kinetic_energy"]),
			fmt.Sprintf("%.5f", res.Metrics["max_penetration"]),
			rest,
		)
	}
	fmt.Println(t)
	return nil
}

// parseSweep reads name=v1,v2 flags in order.
func parseSweep(args []string) ([]string, [][]float64, error) {
	var names []string
	var ranges [][]float64
	for _, arg := range args {
		name, list, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, nil, fmt.Errorf("bad --param %q, want name=v1,v2", arg)
		}
		var vals []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad value in --param %q: %w", arg, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func sweepParams(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseSweep(sweepArgs)
	if err != nil {
		return err
	}
	grid, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	run := func(ctx context.Context, p map[string]float64) (map[string]float64, error) {
		cfg := *base
		for name, v := range p {
			if err := cfg.SetParam(name, v); err != nil {
				return nil, err
			}
		}
		s, err := scene.Build(ctx, &cfg, logging.Discard())
		if err != nil {
			return nil, err
		}
		v := viewer.New(s.World, viewer.NewHeadless(0), scene.ViewerOptions(&cfg), logging.Discard())
		if err := s.Attach(v, &cfg); err != nil {
			return nil, err
		}
		n := cfg.Steps()
		if steps > 0 {
			n = steps
		}
		loop := sim.New(v, sim.Config{MaxSteps: n})
		addMetrics(loop, s)
		res, err := loop.Run(ctx)
		if err != nil {
			return nil, err
		}
		return res.Metrics, nil
	}

	fmt.Printf("sweeping %d combinations for lowest %s...\n\n", grid.Size(), metricName)
	best, val, trials, err := grid.Search(cmd.Context(), run, metricName)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metricName))
	for _, t := range trials {
		cols := make([]string, len(names))
		for i, name := range names {
			cols[i] = strconv.FormatFloat(t.Params[name], 'g', -1, 64)
		}
		result := fmt.Sprintf("%.6g", t.Value)
		if t.Err != nil {
			result = "error: " + t.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), result)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6g with", metricName, val)
	for _, name := range names {
		fmt.Printf(" %s=%g", name, best[name])
	}
	fmt.Println()
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
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tSTEPS\tDT\tSOLVER\tREASON")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%s\t%s\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Solver,
			run.Reason,
		)
	}
	return w.Flush()
}

// loadRun loads the named run, or the latest one when args is empty.
func loadRun(args []string) (*storage.RunMetadata, []dynamo.Sample, error) {
	st := storage.New(dataDir)
	var meta *storage.RunMetadata
	var err error
	if len(args) == 1 {
		meta, err = st.Load(args[0])
	} else {
		meta, err = st.Latest()
	}
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(meta.ID)
	if err != nil {
		return nil, nil, err
	}
	return meta, samples, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args)
	if err != nil {
		return err
	}
	_, heights := storage.BodyHeights(samples, scene.ShapeName)
	if len(heights) == 0 {
		return fmt.Errorf("run %s: %w", meta.ID, storage.ErrNoSamples)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(heights))
	fmt.Println(asciigraph.Plot(heights,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("shape height (m)"),
	))
	for _, name := range []string{"kinetic_energy", "max_penetration", "contacts", "rest_time"} {
		if v, ok := meta.Metrics[name]; ok {
			fmt.Printf("  %s: %.6f\n", name, v)
		}
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args)
	if err != nil {
		return err
	}
	r := analysis.Analyze(samples, scene.ShapeName, restSpeed)
	if r.Samples == 0 {
		return fmt.Errorf("run %s: %w", meta.ID, storage.ErrNoSamples)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", r.Samples)
	fmt.Printf("start height: %.4f m\n", r.StartHeight)
	fmt.Printf("final height: %.4f m\n", r.FinalHeight)
	fmt.Printf("lowest point: %.4f m\n", r.MinHeight)
	fmt.Printf("peak speed:   %.4f m/s\n", r.PeakSpeed)
	fmt.Printf("bounces:      %d\n", r.Bounces)
	for i, apex := range r.Apexes {
		fmt.Printf("  #%d apex %.4f m\n", i+1, apex)
	}
	if r.Settled {
		fmt.Printf("settled at:   %.3f s\n", r.SettleTime)
	} else {
		fmt.Println("settled at:   not within the run")
	}

	times, heights := storage.BodyHeights(samples, scene.ShapeName)
	if len(times) > 1 {
		f := analysis.DominantFrequency(heights, times[1]-times[0])
		fmt.Printf("dominant frequency: %.3f Hz\n", f)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args)
	if err != nil {
		return err
	}
	pts := analysis.PhasePortrait(samples, scene.ShapeName)
	if len(pts) == 0 {
		return fmt.Errorf("run %s: %w", meta.ID, storage.ErrNoSamples)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Println("x: height (m), y: vertical velocity (m/s)")
	fmt.Print(analysis.PhasePortraitToASCII(pts, 70, 20))

	if svgFile != "" {
		if err := export.WriteFile(svgFile, export.TrajectoryToSVG(pts, 800, 500, "#7aa2f7")); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}

func exportSTL(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := "shape.stl"
	if len(args) == 1 {
		path = args[0]
	}
	shape, err := cad.BuildDemoShape(cad.New(), cfg.Shape.Dimensions)
	if err != nil {
		return err
	}
	if err := cad.ExportSTL(shape, path, cfg.Shape.MeshCells); err != nil {
		return err
	}
	fmt.Printf("wrote %s to %s\n", shape.Name(), path)
	return nil
}
