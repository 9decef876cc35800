package pipeline

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schwartz-Lab-NU/arborStats/internal/layout"
	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

func TestAggregatePartitionsOutcomes(t *testing.T) {
	m := layout.NewManager(t.TempDir())
	a := NewAggregator(m, nil)

	outcomes := []Outcome{
		{ID: 1, Status: OutcomeSuccess},
		{ID: 2, Status: OutcomeStatsError},
		{ID: 3, Status: OutcomeFlattenError},
		{ID: 4, Status: OutcomeSkippedNoInput},
		{ID: 5, Status: OutcomeStatsError},
	}

	s, err := a.Aggregate(outcomes)
	require.NoError(t, err)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 1, s.Succeeded)
	assert.Equal(t, 1, s.FlattenErrors)
	assert.Equal(t, 2, s.StatsErrors)
	assert.Equal(t, 1, s.SkippedNoInput)
	assert.Equal(t, []types.SegmentID{2, 5}, s.StatsErrorIDs)
	assert.Equal(t, []types.SegmentID{4}, s.SkippedIDs)
	assert.NotEmpty(t, s.RunID.String())

	errList, err := os.ReadFile(m.SummaryPath(layout.StatsErrorListFile))
	require.NoError(t, err)
	assert.Equal(t, "2\n5\n", string(errList))

	skipList, err := os.ReadFile(m.SummaryPath(layout.NotProcessedListFile))
	require.NoError(t, err)
	assert.Equal(t, "4\n", string(skipList))
}

func TestAggregateFlattenErrorsNotListedAtRoot(t *testing.T) {
	m := layout.NewManager(t.TempDir())
	a := NewAggregator(m, nil)

	_, err := a.Aggregate([]Outcome{{ID: 3, Status: OutcomeFlattenError}})
	require.NoError(t, err)

	errList, err := os.ReadFile(m.SummaryPath(layout.StatsErrorListFile))
	require.NoError(t, err)
	assert.Empty(t, string(errList))

	skipList, err := os.ReadFile(m.SummaryPath(layout.NotProcessedListFile))
	require.NoError(t, err)
	assert.Empty(t, string(skipList))
}

func TestAggregateOverwritesPriorRun(t *testing.T) {
	m := layout.NewManager(t.TempDir())
	a := NewAggregator(m, nil)

	_, err := a.Aggregate([]Outcome{{ID: 2, Status: OutcomeStatsError}})
	require.NoError(t, err)

	// Second run with everything succeeding must clear the old lists.
	_, err = a.Aggregate([]Outcome{{ID: 2, Status: OutcomeSuccess}})
	require.NoError(t, err)

	errList, err := os.ReadFile(m.SummaryPath(layout.StatsErrorListFile))
	require.NoError(t, err)
	assert.Empty(t, string(errList))
}

func TestAggregateRejectsInvalidStatus(t *testing.T) {
	m := layout.NewManager(t.TempDir())
	a := NewAggregator(m, nil)

	_, err := a.Aggregate([]Outcome{{ID: 1, Status: OutcomeStatus("bogus")}})
	assert.Error(t, err)
}
