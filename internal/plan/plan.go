// Package plan decides, per segment and per pipeline stage, whether work is
// needed, skipped, or forced. Planning is a pure function of on-disk state at
// plan time; the plan is immutable during execution.
package plan

import (
	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

// Mode selects which pipeline stages a run schedules.
type Mode string

const (
	// ModeBoth runs the flatten stage then the stats stage (default).
	ModeBoth Mode = "both"
	// ModeFlattenOnly runs the flatten stage and never schedules stats.
	ModeFlattenOnly Mode = "flatten-only"
	// ModeStatsOnly skips flattening and requires skeleton artifacts to
	// already exist.
	ModeStatsOnly Mode = "stats-only"
)

// IsValid checks if the mode is a valid value.
func (m Mode) IsValid() bool {
	switch m {
	case ModeBoth, ModeFlattenOnly, ModeStatsOnly:
		return true
	default:
		return false
	}
}

// OverwritePolicy controls whether existing artifacts suppress work.
type OverwritePolicy string

const (
	// PolicyNewOnly skips stages whose outputs are already complete (default).
	PolicyNewOnly OverwritePolicy = "new-only"
	// PolicyForceAll always runs, overwriting existing artifacts in place.
	PolicyForceAll OverwritePolicy = "force-all"
)

// IsValid checks if the policy is a valid value.
func (p OverwritePolicy) IsValid() bool {
	return p == PolicyNewOnly || p == PolicyForceAll
}

// Stage names one of the two pipeline stages.
type Stage string

const (
	StageFlatten Stage = "flatten"
	StageStats   Stage = "stats"
)

// StageDecision is the planned action for one stage of one segment.
type StageDecision string

const (
	// DecisionRun executes the stage unconditionally at run time.
	DecisionRun StageDecision = "run"
	// DecisionSkipExists skips because the stage's outputs are complete.
	DecisionSkipExists StageDecision = "skip-exists"
	// DecisionSkipNotFound skips because required inputs are absent
	// (stats-only mode with no skeleton artifacts).
	DecisionSkipNotFound StageDecision = "skip-not-found"
	// DecisionNotScheduled means the mode never schedules this stage.
	DecisionNotScheduled StageDecision = ""
)

// SegmentPlan is the planned work for one segment: one decision per stage.
type SegmentPlan struct {
	ID      types.SegmentID
	Flatten StageDecision
	Stats   StageDecision
}

// NeedsWork reports whether any stage is planned to run.
func (p SegmentPlan) NeedsWork() bool {
	return p.Flatten == DecisionRun || p.Stats == DecisionRun
}
