package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Schwartz-Lab-NU/arborStats/internal/metrics"
	"github.com/Schwartz-Lab-NU/arborStats/internal/plan"
)

// Executor distributes per-segment units of work across a bounded worker
// pool. One segment's fault never prevents the others from running to
// completion or reporting their outcome; the pool drains fully before
// Execute returns.
type Executor struct {
	runner    UnitRunner
	jobs      int
	logger    *slog.Logger
	collector *metrics.Collector
}

// ExecutorOption is a functional option for configuring the Executor.
type ExecutorOption func(*Executor)

// WithExecutorLogger sets the logger for the executor.
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithExecutorMetrics sets the metrics collector recording outcomes and
// in-flight units.
func WithExecutorMetrics(c *metrics.Collector) ExecutorOption {
	return func(e *Executor) {
		e.collector = c
	}
}

// NewExecutor creates an Executor running at most jobs units concurrently.
// Worker counts below one are clamped to one.
func NewExecutor(runner UnitRunner, jobs int, opts ...ExecutorOption) *Executor {
	if jobs < 1 {
		jobs = 1
	}
	e := &Executor{
		runner: runner,
		jobs:   jobs,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every planned unit and collects exactly one outcome per
// segment, in plan order. With one worker, execution order is strictly the
// plan order; with more, inter-segment ordering is unspecified but the
// result slice position is always the segment's plan position.
//
// Units already running are not interrupted by ctx cancellation mid-stage;
// ctx is forwarded to stage collaborators, which observe it on their own
// blocking calls.
func (e *Executor) Execute(ctx context.Context, plans []plan.SegmentPlan) []Outcome {
	outcomes := make([]Outcome, len(plans))

	var g errgroup.Group
	g.SetLimit(e.jobs)

	for i, sp := range plans {
		i, sp := i, sp
		g.Go(func() error {
			if e.collector != nil {
				e.collector.UnitStarted()
				defer e.collector.UnitFinished()
			}

			outcome := e.runner.Run(ctx, sp)
			outcomes[i] = outcome

			if e.collector != nil {
				e.collector.ObserveOutcome(outcome.Status.String())
			}
			e.logger.Debug("unit of work finished",
				"segment", sp.ID, "status", outcome.Status.String(), "duration", outcome.Duration)
			return nil
		})
	}

	// Units report outcomes, never errors; Wait is purely the barrier.
	_ = g.Wait()

	return outcomes
}
