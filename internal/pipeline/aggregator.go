package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/Schwartz-Lab-NU/arborStats/internal/layout"
	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

// Summary is the run-level tally of terminal outcomes.
type Summary struct {
	RunID          uuid.UUID
	Total          int
	Succeeded      int
	FlattenErrors  int
	StatsErrors    int
	SkippedNoInput int

	// StatsErrorIDs and SkippedIDs are the partitions written to the run-root
	// summary files, in plan order.
	StatsErrorIDs []types.SegmentID
	SkippedIDs    []types.SegmentID
}

// Aggregator partitions collected outcomes and writes the run-root summary
// files. It is the sole writer of those files; each run overwrites the
// previous run's lists. Flatten errors are deliberately not summarized at the
// root: their detail lives inside the segment directory.
type Aggregator struct {
	layout *layout.Manager
	logger *slog.Logger
}

// NewAggregator creates an Aggregator writing under the layout's root.
func NewAggregator(l *layout.Manager, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{layout: l, logger: logger}
}

// Aggregate partitions outcomes, writes both summary files, and returns the
// run summary. Files are written even when their partition is empty so stale
// lists from a previous run never survive.
func (a *Aggregator) Aggregate(outcomes []Outcome) (*Summary, error) {
	s := &Summary{
		RunID: uuid.New(),
		Total: len(outcomes),
	}

	for _, o := range outcomes {
		switch o.Status {
		case OutcomeSuccess:
			s.Succeeded++
		case OutcomeFlattenError:
			s.FlattenErrors++
		case OutcomeStatsError:
			s.StatsErrors++
			s.StatsErrorIDs = append(s.StatsErrorIDs, o.ID)
		case OutcomeSkippedNoInput:
			s.SkippedNoInput++
			s.SkippedIDs = append(s.SkippedIDs, o.ID)
		default:
			return nil, fmt.Errorf("outcome for segment %s has invalid status %q", o.ID, o.Status)
		}
	}

	if err := a.writeList(layout.StatsErrorListFile, s.StatsErrorIDs); err != nil {
		return nil, err
	}
	if err := a.writeList(layout.NotProcessedListFile, s.SkippedIDs); err != nil {
		return nil, err
	}

	a.logger.Info("run aggregated",
		"run_id", s.RunID.String(),
		"total", s.Total,
		"succeeded", s.Succeeded,
		"flatten_errors", s.FlattenErrors,
		"stats_errors", s.StatsErrors,
		"skipped_no_input", s.SkippedNoInput)

	return s, nil
}

// writeList writes a newline-separated segment ID list, truncating any prior
// run's file.
func (a *Aggregator) writeList(name string, ids []types.SegmentID) error {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(id.String())
		b.WriteByte('\n')
	}
	path := a.layout.SummaryPath(name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing summary file %s: %w", path, err)
	}
	return nil
}
