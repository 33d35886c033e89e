package syncclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/shoplist/internal/apperr"
	"github.com/dukerupert/shoplist/internal/grocery"
	"github.com/dukerupert/shoplist/internal/model"
	hub "github.com/dukerupert/shoplist/internal/websocket"
)

// fakeAPI plays the server: it applies operations to its own list unless fail says otherwise.
type fakeAPI struct {
	mu      sync.Mutex
	list    model.List
	clock   time.Time
	applied []Operation
	reads   int
	fail    func(op Operation) error
	block   chan struct{}
}

func newFakeAPI(listID int64) *fakeAPI {
	return &fakeAPI{
		list:  model.List{ID: listID, Owner: 1, Items: []model.Item{}},
		clock: time.UnixMilli(1_700_000_000_000).UTC(),
	}
}

func (f *fakeAPI) ReadList(_ context.Context, _ int64) (*model.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	l := f.list
	return &l, nil
}

func (f *fakeAPI) Apply(ctx context.Context, op Operation) (*model.List, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		if err := f.fail(op); err != nil {
			return nil, err
		}
	}
	f.applied = append(f.applied, op)
	f.list.Items = applyLocal(f.list.Items, op)
	f.list.UpdatedAt = f.tick()
	l := f.list
	return &l, nil
}

func (f *fakeAPI) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// touch simulates a change made by another client.
func (f *fakeAPI) touch(name string) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list.Items = append(f.list.Items, model.Item{ID: name, Name: name, Active: true, Origin: model.OriginManual})
	f.list.UpdatedAt = f.tick()
	return f.list.UpdatedAt
}

func (f *fakeAPI) appliedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, op := range f.applied {
		ids = append(ids, op.CorrelationID)
	}
	return ids
}

func (f *fakeAPI) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func newTestAgent(t *testing.T, api API) (*Agent, *LocalStore) {
	t.Helper()
	s := openTestStore(t)
	a, err := NewAgent(api, s, 1, slog.Default())
	require.NoError(t, err)
	return a, s
}

func createOp(id, name string) Operation {
	return Operation{CorrelationID: id, Kind: OpCreate, ItemID: "item-" + id, Item: &grocery.Incoming{Name: name}}
}

func itemNames(view []Tracked[model.Item]) []string {
	var names []string
	for _, it := range view {
		names = append(names, it.Value.Name)
	}
	return names
}

func TestDoConfirmed(t *testing.T) {
	api := newFakeAPI(1)
	a, s := newTestAgent(t, api)

	require.NoError(t, a.Do(context.Background(), createOp("c1", "Eggs")))

	assert.Equal(t, 0, a.Pending())
	view := a.View()
	require.Len(t, view, 1)
	assert.Equal(t, "Eggs", view[0].Value.Name)
	assert.Equal(t, Clean, view[0].State)
	assert.Equal(t, api.list.UpdatedAt, a.LastApplied())

	entries, err := s.Entries(1)
	require.NoError(t, err)
	assert.Empty(t, entries)

	snap, err := s.Snapshot(1)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Len(t, snap.List.Items, 1)
}

func TestDoRejectedRollsBack(t *testing.T) {
	api := newFakeAPI(1)
	a, s := newTestAgent(t, api)
	require.NoError(t, a.Do(context.Background(), createOp("c1", "Eggs")))

	api.fail = func(op Operation) error { return apperr.NotFound("item %s not found", op.ItemID) }
	err := a.Do(context.Background(), Operation{Kind: OpDelete, ItemID: "missing"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	assert.Equal(t, 0, a.Pending())
	assert.Equal(t, []string{"Eggs"}, itemNames(a.View()))
	entries, err := s.Entries(1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDoCancelledRollsBack(t *testing.T) {
	api := newFakeAPI(1)
	api.block = make(chan struct{})
	a, _ := newTestAgent(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Do(ctx, createOp("c1", "Eggs")) }()

	require.Eventually(t, func() bool { return a.Pending() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"Eggs"}, itemNames(a.View()))
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, a.Pending())
	assert.Empty(t, a.View())
}

func TestOfflineQueueDrainsInOrder(t *testing.T) {
	api := newFakeAPI(1)
	a, _ := newTestAgent(t, api)
	ctx := context.Background()

	require.NoError(t, a.SetOnline(ctx, false))
	require.NoError(t, a.Do(ctx, createOp("c1", "Eggs")))
	require.NoError(t, a.Do(ctx, createOp("c2", "Butter")))
	require.NoError(t, a.Do(ctx, Operation{CorrelationID: "c3", Kind: OpToggle, ItemID: "item-c1", Active: false}))

	assert.Empty(t, api.appliedIDs())
	view := a.View()
	require.Len(t, view, 2)
	assert.Equal(t, Pending, view[0].State)
	assert.False(t, view[0].Value.Active)

	require.NoError(t, a.SetOnline(ctx, true))
	assert.Equal(t, []string{"c1", "c2", "c3"}, api.appliedIDs())
	assert.Equal(t, 0, a.Pending())

	view = a.View()
	require.Len(t, view, 2)
	for _, it := range view {
		assert.Equal(t, Clean, it.State)
	}
}

func TestQueueSurvivesRestart(t *testing.T) {
	api := newFakeAPI(1)
	a, s := newTestAgent(t, api)
	ctx := context.Background()

	require.NoError(t, a.SetOnline(ctx, false))
	require.NoError(t, a.Do(ctx, createOp("c1", "Eggs")))

	restored, err := NewAgent(api, s, 1, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Pending())
	assert.Equal(t, []string{"Eggs"}, itemNames(restored.View()))

	require.NoError(t, restored.Drain(ctx))
	assert.Equal(t, []string{"c1"}, api.appliedIDs())
	assert.Equal(t, 0, restored.Pending())
}

func TestTransientFailureQueuesThenEvicts(t *testing.T) {
	api := newFakeAPI(1)
	api.fail = func(Operation) error { return fmt.Errorf("dial: %w", ErrTransient) }
	a, _ := newTestAgent(t, api)
	ctx := context.Background()

	require.NoError(t, a.Do(ctx, createOp("c1", "Eggs")))
	assert.Equal(t, 1, a.Pending())
	view := a.View()
	require.Len(t, view, 1)
	assert.Equal(t, Pending, view[0].State)

	for i := 1; i <= maxRetries; i++ {
		err := a.Drain(ctx)
		assert.ErrorIs(t, err, ErrTransient)
		if i < maxRetries {
			view := a.View()
			require.Len(t, view, 1)
			assert.Equal(t, Failed, view[0].State, "attempt %d", i)
		}
	}

	assert.Equal(t, 0, a.Pending())
	assert.Equal(t, 1, a.Unsynced())
	assert.Empty(t, a.View())
}

func TestQueuedOperationsKeepOrderBehindFailure(t *testing.T) {
	api := newFakeAPI(1)
	down := true
	api.fail = func(Operation) error {
		if down {
			return ErrTransient
		}
		return nil
	}
	a, _ := newTestAgent(t, api)
	ctx := context.Background()

	require.NoError(t, a.Do(ctx, createOp("c1", "Eggs")))
	require.NoError(t, a.Do(ctx, createOp("c2", "Butter")))
	assert.Equal(t, 2, a.Pending())

	api.mu.Lock()
	down = false
	api.mu.Unlock()
	require.NoError(t, a.Drain(ctx))
	assert.Equal(t, []string{"c1", "c2"}, api.appliedIDs())
}

func TestPushStaleIgnored(t *testing.T) {
	api := newFakeAPI(1)
	a, _ := newTestAgent(t, api)
	ctx := context.Background()

	require.NoError(t, a.Do(ctx, createOp("c1", "Eggs")))
	applied := a.LastApplied()

	require.NoError(t, a.HandlePush(ctx, hub.UpdateEvent(applied)))
	require.NoError(t, a.HandlePush(ctx, hub.UpdateEvent(applied.Add(-time.Second))))
	assert.Equal(t, 0, api.readCount())

	newer := api.touch("Jam")
	require.NoError(t, a.HandlePush(ctx, hub.UpdateEvent(newer)))
	assert.Equal(t, 1, api.readCount())
	assert.Equal(t, newer, a.LastApplied())
	assert.Equal(t, []string{"Eggs", "Jam"}, itemNames(a.View()))
}

func TestPushDeferredWhileInFlight(t *testing.T) {
	api := newFakeAPI(1)
	api.block = make(chan struct{})
	a, _ := newTestAgent(t, api)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- a.Do(ctx, createOp("c1", "Eggs")) }()
	require.Eventually(t, func() bool { return a.Pending() == 1 }, time.Second, 5*time.Millisecond)

	first := api.touch("Jam")
	second := api.touch("Tea")
	require.NoError(t, a.HandlePush(ctx, hub.UpdateEvent(first)))
	require.NoError(t, a.HandlePush(ctx, hub.UpdateEvent(second)))
	assert.Equal(t, 0, api.readCount(), "pushes must wait for the in-flight operation")

	close(api.block)
	require.NoError(t, <-done)

	// The response already carries both remote changes, so no reload is needed.
	assert.Equal(t, 0, api.readCount())
	assert.ElementsMatch(t, []string{"Jam", "Tea", "Eggs"}, itemNames(a.View()))
}

func TestPushDeferredReloadsOnce(t *testing.T) {
	api := newFakeAPI(1)
	api.block = make(chan struct{})
	a, _ := newTestAgent(t, api)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- a.Do(ctx, createOp("c1", "Eggs")) }()
	require.Eventually(t, func() bool { return a.Pending() == 1 }, time.Second, 5*time.Millisecond)

	// Announce changes newer than the state the in-flight response will carry.
	api.mu.Lock()
	future := api.clock.Add(time.Hour)
	api.mu.Unlock()
	require.NoError(t, a.HandlePush(ctx, hub.UpdateEvent(future)))
	require.NoError(t, a.HandlePush(ctx, hub.UpdateEvent(future.Add(time.Second))))

	close(api.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.readCount())
}

func TestEligible(t *testing.T) {
	api := newFakeAPI(1)
	a, _ := newTestAgent(t, api)
	require.NoError(t, a.Refresh(context.Background()))

	assert.False(t, a.Eligible(1), "owner of an unshared list")
	assert.False(t, a.Eligible(2))

	api.mu.Lock()
	api.list.SharedWith = []int64{2}
	api.list.UpdatedAt = api.tick()
	api.mu.Unlock()
	require.NoError(t, a.Refresh(context.Background()))

	assert.True(t, a.Eligible(1))
	assert.True(t, a.Eligible(2))
	assert.False(t, a.Eligible(3))
}

func TestStatusErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
		kind      apperr.Kind
	}{
		{500, true, 0},
		{503, true, 0},
		{408, true, 0},
		{429, true, 0},
		{400, false, apperr.KindValidation},
		{404, false, apperr.KindNotFound},
		{403, false, apperr.KindAuthorization},
		{409, false, apperr.KindConflict},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := statusError(tt.status, []byte(`{"error":"nope"}`))
			assert.Equal(t, tt.transient, errors.Is(err, ErrTransient))
			if tt.kind != 0 {
				assert.True(t, apperr.Is(err, tt.kind))
				assert.Equal(t, "nope", err.Error())
			}
		})
	}
}

func TestRejectedReplayCountsOncePerDrain(t *testing.T) {
	api := newFakeAPI(1)
	attempts := 0
	api.fail = func(op Operation) error {
		if op.CorrelationID == "c1" {
			attempts++
			return apperr.Validation("name is required")
		}
		return nil
	}
	a, _ := newTestAgent(t, api)
	ctx := context.Background()

	require.NoError(t, a.SetOnline(ctx, false))
	require.NoError(t, a.Do(ctx, createOp("c1", "Eggs")))
	require.NoError(t, a.Do(ctx, createOp("c2", "Butter")))

	err := a.SetOnline(ctx, true)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 2, a.Pending())
	assert.Equal(t, 0, a.Unsynced())
	view := a.View()
	require.Len(t, view, 2)
	assert.Equal(t, Failed, view[0].State)
	assert.Empty(t, api.appliedIDs())

	err = a.Drain(ctx)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 0, a.Unsynced())

	// The third rejection drops c1 and the drain carries on with c2.
	require.NoError(t, a.Drain(ctx))
	assert.Equal(t, maxRetries, attempts)
	assert.Equal(t, 1, a.Unsynced())
	assert.Equal(t, 0, a.Pending())
	assert.Equal(t, []string{"c2"}, api.appliedIDs())
	assert.Equal(t, []string{"Butter"}, itemNames(a.View()))
}

func TestOperationWaitsBehindInFlight(t *testing.T) {
	api := newFakeAPI(1)
	api.block = make(chan struct{})
	a, _ := newTestAgent(t, api)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- a.Do(ctx, createOp("a", "Eggs")) }()
	require.Eventually(t, func() bool { return a.Pending() == 1 }, time.Second, 5*time.Millisecond)

	// b must not overtake a while a is unacknowledged.
	later := make(chan error, 1)
	go func() { later <- a.Do(ctx, createOp("b", "Butter")) }()
	require.NoError(t, <-later)
	assert.Equal(t, 2, a.Pending())
	assert.Empty(t, api.appliedIDs())

	close(api.block)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"a", "b"}, api.appliedIDs())
	assert.Equal(t, 0, a.Pending())
}

func TestOperationWaitsBehindRequeuedInFlight(t *testing.T) {
	api := newFakeAPI(1)
	api.block = make(chan struct{})
	a, _ := newTestAgent(t, api)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- a.Do(ctx, createOp("a", "Eggs")) }()
	require.Eventually(t, func() bool { return a.Pending() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, a.Do(ctx, createOp("b", "Butter")))
	assert.Equal(t, 2, a.Pending())

	api.mu.Lock()
	api.fail = func(op Operation) error {
		if op.CorrelationID == "a" {
			return fmt.Errorf("read response: %w", ErrTransient)
		}
		return nil
	}
	api.mu.Unlock()
	close(api.block)
	require.NoError(t, <-done)
	assert.Empty(t, api.appliedIDs())
	assert.Equal(t, 2, a.Pending())

	api.mu.Lock()
	api.fail = nil
	api.mu.Unlock()
	require.NoError(t, a.Drain(ctx))
	assert.Equal(t, []string{"a", "b"}, api.appliedIDs())
	assert.Equal(t, 0, a.Pending())
}
