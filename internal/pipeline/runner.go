package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Schwartz-Lab-NU/arborStats/internal/arbor"
	"github.com/Schwartz-Lab-NU/arborStats/internal/layout"
	"github.com/Schwartz-Lab-NU/arborStats/internal/metrics"
	"github.com/Schwartz-Lab-NU/arborStats/internal/plan"
	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

// flattenErrMsgFile holds the flatten failure text inside the segment
// directory. Flatten failures are inspected per-segment, never summarized at
// the run root.
const flattenErrMsgFile = "error_msg.txt"

// StatsPayload is the serialized content of the stats artifact.
type StatsPayload struct {
	SegmentID types.SegmentID   `json:"segment_id"`
	Stats     arbor.Metrics     `json:"stats"`
	Units     map[string]string `json:"units"`
}

// UnitRunner executes one segment's planned stages and reports a terminal
// outcome. Implementations never let a failure escape the unit boundary.
type UnitRunner interface {
	Run(ctx context.Context, sp plan.SegmentPlan) Outcome
}

// Runner is the default UnitRunner: flatten stage first, then stats stage,
// per plan. A flatten failure stops the segment's stats stage; the batch is
// unaffected either way.
type Runner struct {
	layout    *layout.Manager
	flattener Flattener
	stats     StatsComputer
	overwrite bool
	logger    *slog.Logger
	collector *metrics.Collector
}

// RunnerOption is a functional option for configuring the Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger for the runner.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithOverwrite makes the flatten stage pass --overwrite through to flatone.
func WithOverwrite(overwrite bool) RunnerOption {
	return func(r *Runner) {
		r.overwrite = overwrite
	}
}

// WithRunnerMetrics sets the metrics collector recording stage durations.
func WithRunnerMetrics(c *metrics.Collector) RunnerOption {
	return func(r *Runner) {
		r.collector = c
	}
}

// NewRunner creates a Runner over the given layout and stage collaborators.
func NewRunner(l *layout.Manager, flattener Flattener, stats StatsComputer, opts ...RunnerOption) *Runner {
	r := &Runner{
		layout:    l,
		flattener: flattener,
		stats:     stats,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the planned stages for one segment. Any fault, including a
// panic in a collaborator, is converted to an error outcome so the batch
// continues.
func (r *Runner) Run(ctx context.Context, sp plan.SegmentPlan) (outcome Outcome) {
	start := time.Now()
	outcome = Outcome{ID: sp.ID, Status: OutcomeSuccess}

	// inStats tracks which stage a panic would belong to, so a flatten fault
	// stays in-directory while a stats fault is also listed at the run root.
	inStats := false
	defer func() {
		outcome.Duration = time.Since(start)
		if rec := recover(); rec != nil {
			r.logger.Error("unit of work panicked", "segment", sp.ID, "panic", rec)
			if inStats {
				err := types.NewError(types.STATS_FAILED, fmt.Sprintf("panic in stats stage: %v", rec))
				r.writeStatsErrorMarker(sp.ID, err)
				outcome.Status = OutcomeStatsError
				outcome.Err = err
			} else {
				outcome.Status = OutcomeFlattenError
				outcome.Err = types.NewError(types.FLATTEN_FAILED, fmt.Sprintf("panic in flatten stage: %v", rec))
			}
		}
	}()

	if sp.Stats == plan.DecisionSkipNotFound {
		// Decided at plan time: no usable input, no external call attempted.
		outcome.Status = OutcomeSkippedNoInput
		return outcome
	}

	if sp.Flatten == plan.DecisionRun {
		if err := r.runFlatten(ctx, sp.ID); err != nil {
			if errors.Is(err, types.NewError(types.FLATTEN_NO_MESH, "")) {
				outcome.Status = OutcomeSkippedNoInput
			} else {
				outcome.Status = OutcomeFlattenError
			}
			outcome.Err = err
			return outcome
		}
	}

	if sp.Stats == plan.DecisionRun {
		inStats = true
		if err := r.runStats(ctx, sp.ID); err != nil {
			outcome.Status = OutcomeStatsError
			outcome.Err = err
			return outcome
		}
	}

	return outcome
}

// runFlatten ensures the segment directory exists and invokes the external
// flattener. The no-mesh case leaves a human-readable marker in the segment
// directory.
func (r *Runner) runFlatten(ctx context.Context, id types.SegmentID) error {
	dir, err := r.layout.EnsureSegmentDir(id)
	if err != nil {
		return err
	}

	start := time.Now()
	err = r.flattener.Flatten(ctx, id, r.layout.Root(), r.overwrite)
	r.observeStage(plan.StageFlatten, time.Since(start))

	if err != nil {
		if errors.Is(err, types.NewError(types.FLATTEN_NO_MESH, "")) {
			if werr := os.WriteFile(filepath.Join(dir, flattenErrMsgFile), []byte(noMeshMessage+"\n"), 0o644); werr != nil {
				r.logger.Warn("writing no-mesh marker failed", "segment", id, "error", werr)
			}
		}
		r.logger.Warn("flatten stage failed", "segment", id, "error", err)
		return err
	}
	return nil
}

// runStats picks the skeleton input, computes statistics, and writes the
// stats artifact. On failure the error text is captured to the segment's
// error marker; on success a stale marker from a prior failed run is removed.
func (r *Runner) runStats(ctx context.Context, id types.SegmentID) error {
	inv, err := r.layout.Inventory(id)
	if err != nil {
		r.writeStatsErrorMarker(id, err)
		return err
	}

	input, ok := inv.StatsInput()
	if !ok {
		err := types.NewError(types.STATS_INPUT_MISSING,
			fmt.Sprintf("no skeleton artifact for segment %s", id))
		r.writeStatsErrorMarker(id, err)
		return err
	}

	start := time.Now()
	report, err := r.stats.Compute(ctx, r.layout.ArtifactPath(id, input))
	r.observeStage(plan.StageStats, time.Since(start))
	if err != nil {
		err = types.WrapError(types.STATS_FAILED,
			fmt.Sprintf("computing arbor stats for segment %s", id), err)
		r.writeStatsErrorMarker(id, err)
		r.logger.Warn("stats stage failed", "segment", id, "error", err)
		return err
	}

	payload := StatsPayload{SegmentID: id, Stats: report.Metrics, Units: report.Units}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		err = types.WrapError(types.STATS_FAILED,
			fmt.Sprintf("encoding arbor stats for segment %s", id), err)
		r.writeStatsErrorMarker(id, err)
		return err
	}

	if err := os.WriteFile(r.layout.ArtifactPath(id, layout.ArtifactStats), data, 0o644); err != nil {
		err = types.WrapError(types.STATS_FAILED,
			fmt.Sprintf("writing arbor stats for segment %s", id), err)
		r.writeStatsErrorMarker(id, err)
		return err
	}

	// A marker left by a previous failed attempt is stale now.
	marker := r.layout.ArtifactPath(id, layout.ArtifactStatsError)
	if err := os.Remove(marker); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("removing stale error marker failed", "segment", id, "error", err)
	}

	return nil
}

// writeStatsErrorMarker records the failure text in the segment directory.
// The marker means "last attempt failed": it never suppresses a retry.
func (r *Runner) writeStatsErrorMarker(id types.SegmentID, cause error) {
	dir, err := r.layout.EnsureSegmentDir(id)
	if err != nil {
		r.logger.Warn("creating segment directory for error marker failed", "segment", id, "error", err)
		return
	}
	path := filepath.Join(dir, string(layout.ArtifactStatsError))
	if err := os.WriteFile(path, []byte(cause.Error()+"\n"), 0o644); err != nil {
		r.logger.Warn("writing error marker failed", "segment", id, "error", err)
	}
}

func (r *Runner) observeStage(stage plan.Stage, d time.Duration) {
	if r.collector != nil {
		r.collector.ObserveStage(string(stage), d)
	}
}
