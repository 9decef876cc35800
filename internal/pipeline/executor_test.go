package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schwartz-Lab-NU/arborStats/internal/plan"
	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

// scriptedRunner returns canned outcomes (or panics) per segment and records
// the order units were started in.
type scriptedRunner struct {
	mu       sync.Mutex
	order    []types.SegmentID
	statuses map[types.SegmentID]OutcomeStatus
	panics   map[types.SegmentID]bool
	delay    time.Duration
}

func (r *scriptedRunner) Run(_ context.Context, sp plan.SegmentPlan) Outcome {
	r.mu.Lock()
	r.order = append(r.order, sp.ID)
	r.mu.Unlock()

	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.panics[sp.ID] {
		panic("fault injected into unit")
	}

	status, ok := r.statuses[sp.ID]
	if !ok {
		status = OutcomeSuccess
	}
	return Outcome{ID: sp.ID, Status: status}
}

func plansFor(ids ...types.SegmentID) []plan.SegmentPlan {
	plans := make([]plan.SegmentPlan, len(ids))
	for i, id := range ids {
		plans[i] = plan.SegmentPlan{ID: id, Flatten: plan.DecisionRun, Stats: plan.DecisionRun}
	}
	return plans
}

func TestExecuteSequentialOrder(t *testing.T) {
	runner := &scriptedRunner{}
	e := NewExecutor(runner, 1)

	ids := []types.SegmentID{9, 4, 7, 1}
	outcomes := e.Execute(context.Background(), plansFor(ids...))

	require.Len(t, outcomes, 4)
	assert.Equal(t, ids, runner.order, "jobs=1 processes in resolved-list order")
	for i, o := range outcomes {
		assert.Equal(t, ids[i], o.ID)
		assert.Equal(t, OutcomeSuccess, o.Status)
	}
}

func TestExecuteCollectsEveryOutcomeOnce(t *testing.T) {
	runner := &scriptedRunner{
		statuses: map[types.SegmentID]OutcomeStatus{
			2: OutcomeStatsError,
			4: OutcomeSkippedNoInput,
		},
		delay: time.Millisecond,
	}
	e := NewExecutor(runner, 4)

	ids := []types.SegmentID{1, 2, 3, 4, 5, 6, 7, 8}
	outcomes := e.Execute(context.Background(), plansFor(ids...))

	require.Len(t, outcomes, len(ids))
	seen := make(map[types.SegmentID]int)
	for i, o := range outcomes {
		assert.Equal(t, ids[i], o.ID, "outcome slot matches plan position")
		seen[o.ID]++
	}
	for _, id := range ids {
		assert.Equal(t, 1, seen[id])
	}
	assert.Equal(t, OutcomeStatsError, outcomes[1].Status)
	assert.Equal(t, OutcomeSkippedNoInput, outcomes[3].Status)
}

func TestExecuteIsolatesPanickingUnit(t *testing.T) {
	// The production Runner converts panics to outcomes; the executor-level
	// guarantee under test is that a faulting unit does not stop the batch.
	runner := &recoveringRunner{
		inner: &scriptedRunner{panics: map[types.SegmentID]bool{2: true}},
	}
	e := NewExecutor(runner, 2)

	ids := []types.SegmentID{1, 2, 3, 4, 5}
	outcomes := e.Execute(context.Background(), plansFor(ids...))

	require.Len(t, outcomes, 5)
	for i, o := range outcomes {
		assert.Equal(t, ids[i], o.ID)
		if o.ID == 2 {
			assert.Equal(t, OutcomeFlattenError, o.Status)
		} else {
			assert.Equal(t, OutcomeSuccess, o.Status)
		}
	}
}

// recoveringRunner mirrors the production Runner's panic conversion without
// needing a filesystem.
type recoveringRunner struct {
	inner UnitRunner
}

func (r *recoveringRunner) Run(ctx context.Context, sp plan.SegmentPlan) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = Outcome{ID: sp.ID, Status: OutcomeFlattenError,
				Err: types.NewError(types.FLATTEN_FAILED, "panic in unit of work")}
		}
	}()
	return r.inner.Run(ctx, sp)
}

func TestExecuteClampsWorkerCount(t *testing.T) {
	runner := &scriptedRunner{}
	e := NewExecutor(runner, 0)

	outcomes := e.Execute(context.Background(), plansFor(1, 2))
	assert.Len(t, outcomes, 2)
}

func TestExecuteEmptyPlan(t *testing.T) {
	e := NewExecutor(&scriptedRunner{}, 4)
	outcomes := e.Execute(context.Background(), nil)
	assert.Empty(t, outcomes)
}
