package dragdrop

import (
	"context"
	"sync"
	"testing"

	"github.com/c.mueller/gantt-order-sync/internal/ordering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncCall struct {
	itemID int64
	key    float64
}

// fakeSyncer records calls and returns a canned result.
type fakeSyncer struct {
	mu     sync.Mutex
	calls  []syncCall
	result Result

	// block, when set, is waited on before returning
	block chan struct{}
	// started is closed once the first call arrives
	started chan struct{}
}

func (f *fakeSyncer) SyncOrder(ctx context.Context, itemID int64, key float64) Result {
	f.mu.Lock()
	f.calls = append(f.calls, syncCall{itemID: itemID, key: key})
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return f.result
}

func projects() []ordering.Item {
	return []ordering.Item{
		{ID: 1, Key: 1000},
		{ID: 2, Key: 2000},
		{ID: 3, Key: 3000},
	}
}

func op(id string) Operation {
	return Operation{ID: id, Scope: ScopeProject, ItemID: 1, OldKey: 1000, NewKey: 1500, FromIndex: 1, ToIndex: 0}
}

func TestOptimisticReorder(t *testing.T) {
	m := New(nil)

	got, err := m.OptimisticReorder(projects(), 2, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, 500.0, got[0].Key)
	assert.Equal(t, int64(1), got[1].ID)
	assert.Equal(t, int64(2), got[2].ID)

	assert.Empty(t, m.State().PendingOperations)
}

func TestOptimisticReorder_InvalidRange(t *testing.T) {
	m := New(nil)
	items := projects()

	for _, tc := range [][2]int{{3, 0}, {0, 3}, {-1, 0}, {0, -1}, {5, 0}} {
		_, err := m.OptimisticReorder(items, tc[0], tc[1])
		require.ErrorIs(t, err, ErrInvalidRange, "from=%d to=%d", tc[0], tc[1])
	}

	assert.Equal(t, projects(), items)
	assert.Equal(t, State{}, m.State())
}

func TestBeginSync_DispatchesByScope(t *testing.T) {
	projectSyncer := &fakeSyncer{result: Success{Data: "project"}}
	taskSyncer := &fakeSyncer{result: Success{Data: "task"}}
	m := New(map[Scope]Syncer{ScopeProject: projectSyncer, ScopeTask: taskSyncer})

	res := m.BeginSync(context.Background(), Operation{ID: "op1", Scope: ScopeProject, ItemID: 1, NewKey: 1500})
	require.IsType(t, Success{}, res)
	assert.Equal(t, "project", res.(Success).Data)

	res = m.BeginSync(context.Background(), Operation{ID: "op2", Scope: ScopeTask, ItemID: 2, NewKey: 2500})
	require.IsType(t, Success{}, res)

	assert.Equal(t, []syncCall{{itemID: 1, key: 1500}}, projectSyncer.calls)
	assert.Equal(t, []syncCall{{itemID: 2, key: 2500}}, taskSyncer.calls)
	assert.False(t, m.State().IsProcessing)
}

func TestBeginSync_FailureReturnedUnchanged(t *testing.T) {
	want := Failure{Message: "Network error", Status: 500}
	m := New(map[Scope]Syncer{ScopeProject: &fakeSyncer{result: want}})

	res := m.BeginSync(context.Background(), op("op3"))
	assert.Equal(t, want, res)
	assert.False(t, m.State().IsProcessing)
}

func TestBeginSync_NilSyncerIgnored(t *testing.T) {
	m := New(map[Scope]Syncer{ScopeTask: nil})

	res := m.BeginSync(context.Background(), Operation{ID: "op", Scope: ScopeTask})
	f, ok := res.(Failure)
	require.True(t, ok)
	assert.Equal(t, `no syncer for scope "task"`, f.Message)
	assert.False(t, m.State().IsProcessing)
}

func TestBeginSync_UnknownScope(t *testing.T) {
	m := New(nil)

	res := m.BeginSync(context.Background(), Operation{ID: "op", Scope: "milestone"})
	f, ok := res.(Failure)
	require.True(t, ok)
	assert.Contains(t, f.Message, "milestone")
	assert.Zero(t, f.Status)
}

func TestBeginSync_ProcessingWhileInFlight(t *testing.T) {
	syncer := &fakeSyncer{
		result:  Success{},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	started := syncer.started
	m := New(map[Scope]Syncer{ScopeProject: syncer})

	done := make(chan Result)
	go func() { done <- m.BeginSync(context.Background(), op("op")) }()

	<-started
	assert.True(t, m.State().IsProcessing)

	close(syncer.block)
	<-done
	assert.False(t, m.State().IsProcessing)
}

func TestBeginSync_ResetAfterPanic(t *testing.T) {
	m := New(map[Scope]Syncer{ScopeProject: SyncFunc(func(context.Context, int64, float64) Result {
		panic("boom")
	})})

	require.Panics(t, func() { m.BeginSync(context.Background(), op("op")) })
	assert.False(t, m.State().IsProcessing)
}

func TestAddOperation(t *testing.T) {
	m := New(nil)
	o := op("op5")

	require.NoError(t, m.AddOperation(o))

	state := m.State()
	require.Len(t, state.PendingOperations, 1)
	assert.Equal(t, o, state.PendingOperations[0])
}

func TestAddOperation_Duplicate(t *testing.T) {
	m := New(nil)

	require.NoError(t, m.AddOperation(op("op7")))
	require.ErrorIs(t, m.AddOperation(op("op7")), ErrDuplicateOperation)
	assert.Len(t, m.State().PendingOperations, 1)
}

func TestAddOperation_EvictsOldest(t *testing.T) {
	m := New(nil)

	for _, id := range []string{"op0", "op1", "op2", "op3", "op4"} {
		require.NoError(t, m.AddOperation(op(id)))
		assert.LessOrEqual(t, len(m.State().PendingOperations), MaxPending)
	}

	var got []string
	for _, p := range m.State().PendingOperations {
		got = append(got, p.ID)
	}
	assert.Equal(t, []string{"op2", "op3", "op4"}, got)

	// late completion of an evicted operation is a no-op
	m.CompleteOperation("op0")
	assert.Len(t, m.State().PendingOperations, 3)
}

func TestWithMaxPending(t *testing.T) {
	m := New(nil, WithMaxPending(1))

	require.NoError(t, m.AddOperation(op("a")))
	require.NoError(t, m.AddOperation(op("b")))
	state := m.State()
	require.Len(t, state.PendingOperations, 1)
	assert.Equal(t, "b", state.PendingOperations[0].ID)
}

func TestCompleteOperation(t *testing.T) {
	m := New(nil)
	require.NoError(t, m.AddOperation(op("op6")))

	m.CompleteOperation("op6")
	assert.Empty(t, m.State().PendingOperations)

	m.CompleteOperation("missing")
	assert.Empty(t, m.State().PendingOperations)
}

func TestRollback(t *testing.T) {
	m := New(nil)
	current := []ordering.Item{
		{ID: 3, Key: 500},
		{ID: 1, Key: 1000},
		{ID: 2, Key: 2000},
	}
	o := Operation{ID: "op4", Scope: ScopeProject, ItemID: 3, OldKey: 3000, NewKey: 500, FromIndex: 2, ToIndex: 0}

	got, err := m.Rollback(current, o)
	require.NoError(t, err)
	assert.Equal(t, projects(), got)
}

func TestRollback_RoundTrip(t *testing.T) {
	m := New(nil)
	items := []ordering.Item{
		{ID: 10, Key: 1000},
		{ID: 20, Key: 2000},
		{ID: 30, Key: 3000},
		{ID: 40, Key: 4000},
		{ID: 50, Key: 5000},
	}

	for from := range items {
		for to := range items {
			moved, err := m.OptimisticReorder(items, from, to)
			require.NoError(t, err)

			o := NewOperation(ScopeTask, items, moved, from, to)
			back, err := m.Rollback(moved, o)
			require.NoError(t, err)
			require.Equal(t, items, back, "from=%d to=%d", from, to)
			require.True(t, ordering.Validate(back))
		}
	}
}

func TestRollback_ItemMovedElsewhere(t *testing.T) {
	m := New(nil)
	// item 3 is no longer at ToIndex 0
	current := []ordering.Item{
		{ID: 1, Key: 1000},
		{ID: 3, Key: 1500},
		{ID: 2, Key: 2000},
	}
	o := Operation{ID: "op", ItemID: 3, OldKey: 3000, FromIndex: 2, ToIndex: 0}

	got, err := m.Rollback(current, o)
	require.NoError(t, err)
	assert.Equal(t, projects(), got)
}

func TestRollback_OverlappingOperations(t *testing.T) {
	m := New(nil)
	items := projects()

	// item 1 goes to the tail, then item 3 is moved to the head and takes
	// key 1000, the old key of item 1
	after1, err := m.OptimisticReorder(items, 0, 2)
	require.NoError(t, err)
	op1 := NewOperation(ScopeProject, items, after1, 0, 2)

	after2, err := m.OptimisticReorder(after1, 1, 0)
	require.NoError(t, err)
	require.Equal(t, []ordering.Item{{ID: 3, Key: 1000}, {ID: 2, Key: 2000}, {ID: 1, Key: 4000}}, after2)

	got, err := m.Rollback(after2, op1)
	require.NoError(t, err)
	assert.Equal(t, []ordering.Item{{ID: 1, Key: 500}, {ID: 3, Key: 1000}, {ID: 2, Key: 2000}}, got)
	assert.True(t, ordering.Validate(got))
}

func TestRollback_NoKeyLeft(t *testing.T) {
	m := New(nil)
	current := []ordering.Item{
		{ID: 3, Key: 0},
		{ID: 2, Key: 2000},
		{ID: 1, Key: 4000},
	}
	o := Operation{ID: "op", ItemID: 1, OldKey: 0, FromIndex: 0, ToIndex: 2}

	_, err := m.Rollback(current, o)
	require.ErrorIs(t, err, ordering.ErrKeyExhausted)
}

func TestRollback_Errors(t *testing.T) {
	m := New(nil)

	_, err := m.Rollback(projects(), Operation{ItemID: 99, ToIndex: 0, FromIndex: 1})
	require.ErrorIs(t, err, ErrItemNotFound)

	_, err = m.Rollback(projects(), Operation{ItemID: 1, ToIndex: 0, FromIndex: 7})
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestFailedSyncThenRollback(t *testing.T) {
	m := New(map[Scope]Syncer{ScopeProject: &fakeSyncer{result: Failure{Message: "Project not found", Status: 404}}})
	before := projects()

	after, err := m.OptimisticReorder(before, 2, 0)
	require.NoError(t, err)
	o := NewOperation(ScopeProject, before, after, 2, 0)
	require.NoError(t, m.AddOperation(o))

	res := m.BeginSync(context.Background(), o)
	f, ok := res.(Failure)
	require.True(t, ok)

	restored, err := m.Rollback(after, o)
	require.NoError(t, err)
	m.SetError(f.Error())
	m.CompleteOperation(o.ID)

	assert.Equal(t, before, restored)
	state := m.State()
	assert.Empty(t, state.PendingOperations)
	assert.Equal(t, "Project not found (status 404)", state.LastError)
	assert.False(t, state.IsProcessing)
}

func TestErrorState(t *testing.T) {
	m := New(nil)

	m.SetError("boom")
	assert.Equal(t, "boom", m.State().LastError)

	m.ClearError()
	assert.Empty(t, m.State().LastError)
}

func TestStateIsSnapshot(t *testing.T) {
	m := New(nil)
	require.NoError(t, m.AddOperation(op("a")))

	state := m.State()
	state.PendingOperations[0].ID = "changed"
	state.PendingOperations = append(state.PendingOperations, op("b"))

	fresh := m.State()
	require.Len(t, fresh.PendingOperations, 1)
	assert.Equal(t, "a", fresh.PendingOperations[0].ID)
}

func TestReset(t *testing.T) {
	m := New(nil)
	require.NoError(t, m.AddOperation(op("a")))
	m.SetError("boom")

	m.Reset()
	assert.Equal(t, State{}, m.State())

	require.NoError(t, m.AddOperation(op("a")))
}

func TestNewOperation_UniqueIDs(t *testing.T) {
	before := projects()
	after, err := ordering.Reorder(before, 0, 2)
	require.NoError(t, err)

	a := NewOperation(ScopeProject, before, after, 0, 2)
	b := NewOperation(ScopeProject, before, after, 0, 2)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, int64(1), a.ItemID)
	assert.Equal(t, 1000.0, a.OldKey)
	assert.Equal(t, 4000.0, a.NewKey)
}

func TestFailure_Error(t *testing.T) {
	assert.Equal(t, "offline", Failure{Message: "offline"}.Error())
	assert.Equal(t, "bad (status 400)", Failure{Message: "bad", Status: 400}.Error())
}
