package plan

import (
	"fmt"
	"log/slog"

	"github.com/Schwartz-Lab-NU/arborStats/internal/layout"
	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

// Planner computes the per-segment task plan from a point-in-time snapshot of
// the output layout. It does not re-check state mid-run: a stage planned as
// run executes unconditionally even if another process materializes the
// output concurrently (last writer wins).
type Planner struct {
	layout *layout.Manager
	mode   Mode
	policy OverwritePolicy
	logger *slog.Logger
}

// PlannerOption is a functional option for configuring the Planner.
type PlannerOption func(*Planner)

// WithLogger sets the logger for the planner.
func WithLogger(logger *slog.Logger) PlannerOption {
	return func(p *Planner) {
		p.logger = logger
	}
}

// NewPlanner creates a Planner for the given layout, mode, and overwrite
// policy.
func NewPlanner(l *layout.Manager, mode Mode, policy OverwritePolicy, opts ...PlannerOption) (*Planner, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid mode %q", mode)
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("invalid overwrite policy %q", policy)
	}

	p := &Planner{
		layout: l,
		mode:   mode,
		policy: policy,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Plan produces one SegmentPlan per resolved ID, in resolved order. The
// returned slice is the complete, immutable schedule for the run.
func (p *Planner) Plan(ids []types.SegmentID) ([]SegmentPlan, error) {
	plans := make([]SegmentPlan, 0, len(ids))
	for _, id := range ids {
		inv, err := p.layout.Inventory(id)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p.planSegment(id, inv))
	}

	var run, skipped int
	for _, sp := range plans {
		if sp.NeedsWork() {
			run++
		} else {
			skipped++
		}
	}
	p.logger.Debug("planned batch",
		"segments", len(plans), "with_work", run, "fully_skipped", skipped,
		"mode", string(p.mode), "policy", string(p.policy))

	return plans, nil
}

func (p *Planner) planSegment(id types.SegmentID, inv layout.Inventory) SegmentPlan {
	sp := SegmentPlan{ID: id}

	if p.mode == ModeBoth || p.mode == ModeFlattenOnly {
		sp.Flatten = p.decide(inv.FlattenComplete())
	}

	switch p.mode {
	case ModeFlattenOnly:
		// stats never scheduled
	case ModeStatsOnly:
		if _, ok := inv.StatsInput(); !ok {
			sp.Stats = DecisionSkipNotFound
		} else {
			sp.Stats = p.decide(inv.StatsComplete())
		}
	default:
		sp.Stats = p.decide(inv.StatsComplete())
	}

	return sp
}

// decide maps stage completeness to a decision under the overwrite policy.
func (p *Planner) decide(complete bool) StageDecision {
	if p.policy == PolicyNewOnly && complete {
		return DecisionSkipExists
	}
	return DecisionRun
}
