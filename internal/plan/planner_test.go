package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schwartz-Lab-NU/arborStats/internal/layout"
	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

func writeArtifacts(t *testing.T, m *layout.Manager, id types.SegmentID, kinds ...layout.ArtifactKind) {
	t.Helper()
	for _, kind := range kinds {
		path := m.ArtifactPath(id, kind)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
}

func TestNewPlannerValidatesInputs(t *testing.T) {
	m := layout.NewManager(t.TempDir())

	_, err := NewPlanner(m, Mode("bogus"), PolicyNewOnly)
	assert.Error(t, err)

	_, err = NewPlanner(m, ModeBoth, OverwritePolicy("bogus"))
	assert.Error(t, err)
}

func TestPlanNewOnlySkipsCompleteStages(t *testing.T) {
	m := layout.NewManager(t.TempDir())

	fresh := types.SegmentID(1)
	flattened := types.SegmentID(2)
	done := types.SegmentID(3)
	writeArtifacts(t, m, flattened, layout.ArtifactSkeleton, layout.ArtifactWarpedSkeleton)
	writeArtifacts(t, m, done,
		layout.ArtifactSkeleton, layout.ArtifactWarpedSkeleton, layout.ArtifactStats)

	p, err := NewPlanner(m, ModeBoth, PolicyNewOnly)
	require.NoError(t, err)

	plans, err := p.Plan([]types.SegmentID{fresh, flattened, done})
	require.NoError(t, err)
	require.Len(t, plans, 3)

	assert.Equal(t, DecisionRun, plans[0].Flatten)
	assert.Equal(t, DecisionRun, plans[0].Stats)

	assert.Equal(t, DecisionSkipExists, plans[1].Flatten)
	assert.Equal(t, DecisionRun, plans[1].Stats)

	assert.Equal(t, DecisionSkipExists, plans[2].Flatten)
	assert.Equal(t, DecisionSkipExists, plans[2].Stats)
	assert.False(t, plans[2].NeedsWork(), "second new-only run performs no work")
}

func TestPlanForceAllAlwaysRuns(t *testing.T) {
	m := layout.NewManager(t.TempDir())
	id := types.SegmentID(5)
	writeArtifacts(t, m, id,
		layout.ArtifactMesh, layout.ArtifactSkeleton, layout.ArtifactWarpedSkeleton, layout.ArtifactStats)

	p, err := NewPlanner(m, ModeBoth, PolicyForceAll)
	require.NoError(t, err)

	plans, err := p.Plan([]types.SegmentID{id})
	require.NoError(t, err)
	assert.Equal(t, DecisionRun, plans[0].Flatten)
	assert.Equal(t, DecisionRun, plans[0].Stats)
}

func TestPlanFlattenOnlyNeverSchedulesStats(t *testing.T) {
	m := layout.NewManager(t.TempDir())

	p, err := NewPlanner(m, ModeFlattenOnly, PolicyNewOnly)
	require.NoError(t, err)

	plans, err := p.Plan([]types.SegmentID{1})
	require.NoError(t, err)
	assert.Equal(t, DecisionRun, plans[0].Flatten)
	assert.Equal(t, DecisionNotScheduled, plans[0].Stats)
}

func TestPlanStatsOnly(t *testing.T) {
	m := layout.NewManager(t.TempDir())

	noSkeleton := types.SegmentID(1)
	rawOnly := types.SegmentID(2)
	failedBefore := types.SegmentID(3)
	writeArtifacts(t, m, rawOnly, layout.ArtifactSkeleton)
	writeArtifacts(t, m, failedBefore,
		layout.ArtifactSkeleton, layout.ArtifactWarpedSkeleton, layout.ArtifactStatsError)

	p, err := NewPlanner(m, ModeStatsOnly, PolicyNewOnly)
	require.NoError(t, err)

	plans, err := p.Plan([]types.SegmentID{noSkeleton, rawOnly, failedBefore})
	require.NoError(t, err)

	assert.Equal(t, DecisionNotScheduled, plans[0].Flatten)
	assert.Equal(t, DecisionSkipNotFound, plans[0].Stats)

	// A raw skeleton alone is a usable stats input.
	assert.Equal(t, DecisionRun, plans[1].Stats)

	// Error marker without a stats file means the last attempt failed, so
	// new-only retries it.
	assert.Equal(t, DecisionRun, plans[2].Stats)
}

func TestPlanPreservesResolvedOrder(t *testing.T) {
	m := layout.NewManager(t.TempDir())
	p, err := NewPlanner(m, ModeBoth, PolicyNewOnly)
	require.NoError(t, err)

	ids := []types.SegmentID{9, 4, 7, 1}
	plans, err := p.Plan(ids)
	require.NoError(t, err)
	for i, sp := range plans {
		assert.Equal(t, ids[i], sp.ID)
	}
}
