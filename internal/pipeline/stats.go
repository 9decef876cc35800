package pipeline

import (
	"context"

	"github.com/Schwartz-Lab-NU/arborStats/internal/arbor"
)

// StatsComputer computes arbor statistics from a skeleton artifact. The
// payload serialization is owned by the runner; implementations only produce
// the report.
type StatsComputer interface {
	Compute(ctx context.Context, skeletonPath string) (*arbor.Report, error)
}

// SkeletonStatsComputer is the default StatsComputer: it parses the SWC file
// and computes statistics in-process.
type SkeletonStatsComputer struct{}

// Compute parses the skeleton at skeletonPath and computes its statistics.
func (SkeletonStatsComputer) Compute(_ context.Context, skeletonPath string) (*arbor.Report, error) {
	return arbor.ComputeFromFile(skeletonPath)
}
