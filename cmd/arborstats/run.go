package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Schwartz-Lab-NU/arborStats/cmd/arborstats/internal"
	"github.com/Schwartz-Lab-NU/arborStats/internal/config"
	"github.com/Schwartz-Lab-NU/arborStats/internal/layout"
	"github.com/Schwartz-Lab-NU/arborStats/internal/metrics"
	"github.com/Schwartz-Lab-NU/arborStats/internal/pipeline"
	"github.com/Schwartz-Lab-NU/arborStats/internal/plan"
	"github.com/Schwartz-Lab-NU/arborStats/internal/segment"
)

// runBatch is the root command: resolve segment IDs, plan the work, run the
// pipeline, and write the run-root summaries. Per-segment failures are
// reported in the summary, not as a command error; only faults that prevent
// the batch itself (config, source, cancellation) make the command fail.
func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg.Logging, cmd.ErrOrStderr())

	if cfg.Run.OutputDir == "" {
		return internal.NewCLIError(internal.ExitConfigError,
			"--output-dir is required (or set run.output_dir in the config file)")
	}

	ids, err := buildSource(cfg, logger).Resolve(ctx)
	if err != nil {
		return err
	}
	ids = segment.Dedup(ids)
	if len(ids) == 0 {
		return internal.NewCLIError(internal.ExitSourceError,
			"no segment IDs to process after filtering")
	}
	logger.Info("resolved segment IDs", "count", len(ids))

	lay := layout.NewManager(cfg.Run.OutputDir)

	planner, err := plan.NewPlanner(lay, runFlags.Mode(), runFlags.Policy(), plan.WithLogger(logger))
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "building planner", err)
	}
	plans, err := planner.Plan(ids)
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		stop := serveMetrics(collector, cfg.Metrics.Addr, logger)
		defer stop()
	}

	flattener := &pipeline.FlatoneFlattener{
		Binary:    cfg.Flatone.Binary,
		ExtraArgs: cfg.Flatone.ExtraArgs,
		Timeout:   cfg.Flatone.Timeout,
		Logger:    logger,
	}

	runnerOpts := []pipeline.RunnerOption{
		pipeline.WithRunnerLogger(logger),
		pipeline.WithOverwrite(runFlags.OverwriteAll),
	}
	executorOpts := []pipeline.ExecutorOption{
		pipeline.WithExecutorLogger(logger),
	}
	if collector != nil {
		runnerOpts = append(runnerOpts, pipeline.WithRunnerMetrics(collector))
		executorOpts = append(executorOpts, pipeline.WithExecutorMetrics(collector))
	}

	runner := pipeline.NewRunner(lay, flattener, pipeline.SkeletonStatsComputer{}, runnerOpts...)
	executor := pipeline.NewExecutor(runner, cfg.Run.Jobs, executorOpts...)

	outcomes := executor.Execute(ctx, plans)

	summary, err := pipeline.NewAggregator(lay, logger).Aggregate(outcomes)
	if err != nil {
		return err
	}

	if !runFlags.Quiet {
		printSummary(cmd, summary)
	}

	// Interrupted runs still aggregate what completed, then report the
	// cancellation.
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// loadRunConfig loads the config file if one was given, otherwise the
// defaults, then applies flag overrides.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	validator := config.NewValidator()

	var cfg *config.Config
	if runFlags.ConfigFile != "" {
		loaded, err := config.NewLoader(validator).Load(runFlags.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	applyFlagOverrides(cmd, cfg)

	if err := validator.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagOverrides layers explicitly-set flags over the loaded config.
// Only flags the user actually changed override; defaults never clobber
// config file values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("jobs") {
		cfg.Run.Jobs = runFlags.Jobs
	}
	if flags.Changed("output-dir") {
		cfg.Run.OutputDir = runFlags.OutputDir
	}
	if flags.Changed("flatone-bin") {
		cfg.Flatone.Binary = runFlags.FlatoneBin
	}
	if flags.Changed("flatone-arg") {
		cfg.Flatone.ExtraArgs = append(cfg.Flatone.ExtraArgs, runFlags.FlatoneArgs...)
	}
	if flags.Changed("csv-col") {
		cfg.Source.CSVIDColumn = runFlags.CSVColumn
		cfg.Source.SheetIDColumn = runFlags.CSVColumn
	}
	if flags.Changed("status-filter") {
		cfg.Source.StatusAllow = runFlags.StatusFilter
	}
	if flags.Changed("cell-review-filter") {
		cfg.Source.ReviewAllow = runFlags.ReviewFilter
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = runFlags.MetricsAddr
	}
	if level := runFlags.LogLevel(); level != "" {
		cfg.Logging.Level = level
	}
}

// buildSource picks the segment ID source from the flags. Mutual exclusion
// among the source flags is already enforced at parse time.
func buildSource(cfg *config.Config, logger *slog.Logger) segment.Source {
	switch {
	case runFlags.SheetID != "":
		return &segment.SheetSource{
			SheetID: runFlags.SheetID,
			Schema:  tableSchema(cfg.Source.SheetIDColumn, cfg),
			Logger:  logger,
		}
	case runFlags.CSVPath != "":
		return &segment.CSVSource{
			Path:   runFlags.CSVPath,
			Schema: tableSchema(cfg.Source.CSVIDColumn, cfg),
			Logger: logger,
		}
	default:
		return &segment.ExplicitSource{IDs: runFlags.SegIDs}
	}
}

// tableSchema builds the column schema for a tabular source. An empty
// allow-list disables that filter entirely.
func tableSchema(idColumn string, cfg *config.Config) segment.Schema {
	s := segment.Schema{IDColumn: idColumn}
	if len(cfg.Source.StatusAllow) > 0 {
		s.StatusColumn = cfg.Source.StatusColumn
		s.StatusAllow = cfg.Source.StatusAllow
	}
	if len(cfg.Source.ReviewAllow) > 0 {
		s.ReviewColumn = cfg.Source.ReviewColumn
		s.ReviewAllow = cfg.Source.ReviewAllow
	}
	return s
}

// serveMetrics exposes the collector on addr for the duration of the run.
// The returned stop function shuts the listener down; serve failures are
// logged, never fatal to the batch.
func serveMetrics(c *metrics.Collector, addr string, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics listener failed", "addr", addr, "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// printSummary writes the run tally to stdout. Flatten error detail stays in
// the segment directories, so only the count is shown here.
func printSummary(cmd *cobra.Command, s *pipeline.Summary) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	cmd.Println()
	cmd.Printf("Run %s: %d segment(s)\n", s.RunID, s.Total)
	cmd.Printf("  %s %d succeeded\n", green("✓"), s.Succeeded)
	if s.FlattenErrors > 0 {
		cmd.Printf("  %s %d flatten error(s), see %s in the segment directories\n",
			red("✗"), s.FlattenErrors, "error_msg.txt")
	}
	if s.StatsErrors > 0 {
		cmd.Printf("  %s %d arbor stats error(s), listed in %s\n",
			red("✗"), s.StatsErrors, layout.StatsErrorListFile)
	}
	if s.SkippedNoInput > 0 {
		cmd.Printf("  %s %d skipped without input, listed in %s\n",
			yellow("-"), s.SkippedNoInput, layout.NotProcessedListFile)
	}
}
