package pipeline

import (
	"time"

	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

// OutcomeStatus is the terminal status of one segment's unit of work.
// Success is the implicit default; only deviations are recorded at the run
// root.
type OutcomeStatus string

const (
	// OutcomeSuccess means every planned stage completed (or was skipped as
	// already complete).
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeFlattenError means the external flatten operation failed. The
	// detail lives only inside the segment's directory.
	OutcomeFlattenError OutcomeStatus = "flatten-error"
	// OutcomeStatsError means the stats computation failed. The error text is
	// captured to the segment's error marker and the ID is listed at the run
	// root.
	OutcomeStatsError OutcomeStatus = "stats-error"
	// OutcomeSkippedNoInput means no usable input was found (no mesh, or
	// stats-only mode with no skeleton). Listed at the run root.
	OutcomeSkippedNoInput OutcomeStatus = "skipped-no-input"
)

// String returns the string representation of the status.
func (s OutcomeStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s OutcomeStatus) IsValid() bool {
	switch s {
	case OutcomeSuccess, OutcomeFlattenError, OutcomeStatsError, OutcomeSkippedNoInput:
		return true
	default:
		return false
	}
}

// Outcome is the collected result of one segment's unit of work. Exactly one
// Outcome is produced per planned segment.
type Outcome struct {
	ID       types.SegmentID
	Status   OutcomeStatus
	Err      error
	Duration time.Duration
}
