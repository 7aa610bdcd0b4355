package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/push"
)

// fakeFetch counts calls and delegates each one to respond.
type fakeFetch struct {
	mu      gosync.Mutex
	calls   int
	respond func(call int) ([]model.WorkItem, error)
}

func (f *fakeFetch) fetch(context.Context) ([]model.WorkItem, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	return f.respond(n)
}

func (f *fakeFetch) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fixed(items ...model.WorkItem) func(int) ([]model.WorkItem, error) {
	return func(int) ([]model.WorkItem, error) { return items, nil }
}

func item(id string, modified string) model.WorkItem {
	ts, err := time.Parse(time.RFC3339, modified)
	if err != nil {
		panic(err)
	}
	return model.WorkItem{ID: id, Status: "Pending", ModifiedAt: ts, CreatedAt: ts}
}

func ids(items []model.WorkItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func newTestReconciler(f *fakeFetch, opts Options[model.WorkItem]) *Reconciler[model.WorkItem] {
	opts.Logger = zerolog.Nop()
	if opts.Less == nil {
		opts.Less = ByRecency
	}
	r := NewReconciler(f.fetch, opts)
	return r
}

func TestRefreshVisible_pendingLifecycle(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetch{respond: func(int) ([]model.WorkItem, error) {
		<-release
		return []model.WorkItem{
			item("old", "2024-01-01T00:00:00Z"),
			item("new", "2024-01-05T00:00:00Z"),
		}, nil
	}}
	r := newTestReconciler(f, Options[model.WorkItem]{})
	defer r.Dispose()

	done := make(chan error, 1)
	go func() { done <- r.Refresh(context.Background(), ModeVisible) }()

	require.Eventually(t, func() bool { return r.Snapshot().Pending }, time.Second, time.Millisecond)
	close(release)
	require.NoError(t, <-done)

	snap := r.Snapshot()
	assert.False(t, snap.Pending)
	assert.NoError(t, snap.Err)
	assert.Equal(t, []string{"new", "old"}, ids(snap.Items))
	assert.Equal(t, uint64(1), snap.Version)
}

func TestRefreshVisible_failureKeepsItems(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeFetch{respond: func(call int) ([]model.WorkItem, error) {
		if call == 1 {
			return []model.WorkItem{item("a", "2024-01-01T00:00:00Z")}, nil
		}
		return nil, boom
	}}
	r := newTestReconciler(f, Options[model.WorkItem]{})
	defer r.Dispose()

	require.NoError(t, r.Refresh(context.Background(), ModeVisible))
	err := r.Refresh(context.Background(), ModeVisible)
	require.ErrorIs(t, err, boom)

	snap := r.Snapshot()
	assert.False(t, snap.Pending, "pending cleared even on failure")
	assert.ErrorIs(t, snap.Err, boom)
	assert.Equal(t, []string{"a"}, ids(snap.Items))
}

func TestRefreshVisible_concurrentCallersShareFetch(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetch{respond: func(int) ([]model.WorkItem, error) {
		<-release
		return []model.WorkItem{item("a", "2024-01-01T00:00:00Z")}, nil
	}}
	r := newTestReconciler(f, Options[model.WorkItem]{})
	defer r.Dispose()

	var wg gosync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Refresh(context.Background(), ModeVisible))
		}()
	}

	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.visible == 3
	}, time.Second, time.Millisecond)
	// Let the last caller join the in-flight fetch.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, f.count())
	assert.False(t, r.Snapshot().Pending)
}

func TestTrigger_burstCollapsesIntoOneFetch(t *testing.T) {
	f := &fakeFetch{respond: fixed(item("a", "2024-01-01T00:00:00Z"))}
	r := newTestReconciler(f, Options[model.WorkItem]{SilentDebounce: 100 * time.Millisecond})
	defer r.Dispose()

	for i := 0; i < 5; i++ {
		r.Trigger()
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return f.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, f.count())
	assert.Equal(t, []string{"a"}, ids(r.Items()))
}

func TestTrigger_silentNeverTouchesPendingOrErr(t *testing.T) {
	f := &fakeFetch{respond: func(int) ([]model.WorkItem, error) {
		return nil, errors.New("offline")
	}}
	r := newTestReconciler(f, Options[model.WorkItem]{SilentDebounce: time.Millisecond})
	defer r.Dispose()

	require.NoError(t, r.Refresh(context.Background(), ModeSilent))
	assert.False(t, r.Snapshot().Pending)

	require.Eventually(t, func() bool { return f.count() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	snap := r.Snapshot()
	assert.False(t, snap.Pending)
	assert.NoError(t, snap.Err)
}

func TestTrigger_duringSilentFetchRunsOneFollowUp(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetch{respond: func(call int) ([]model.WorkItem, error) {
		if call == 1 {
			<-release
		}
		return []model.WorkItem{item("a", "2024-01-01T00:00:00Z")}, nil
	}}
	r := newTestReconciler(f, Options[model.WorkItem]{SilentDebounce: time.Millisecond})
	defer r.Dispose()

	r.Trigger()
	require.Eventually(t, func() bool { return f.count() == 1 }, time.Second, time.Millisecond)

	for i := 0; i < 3; i++ {
		r.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	close(release)

	require.Eventually(t, func() bool { return f.count() == 2 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, f.count())
}

func TestSilentDuringVisible_laterVisibleWins(t *testing.T) {
	release := make(chan struct{})
	visibleData := []model.WorkItem{item("visible", "2024-01-02T00:00:00Z")}
	silentData := []model.WorkItem{item("silent", "2024-01-01T00:00:00Z")}
	f := &fakeFetch{respond: func(call int) ([]model.WorkItem, error) {
		if call == 1 {
			<-release
			return visibleData, nil
		}
		return silentData, nil
	}}
	r := newTestReconciler(f, Options[model.WorkItem]{
		SilentDebounce:   time.Millisecond,
		SilentApplyDelay: 200 * time.Millisecond,
	})
	defer r.Dispose()

	done := make(chan error, 1)
	go func() { done <- r.Refresh(context.Background(), ModeVisible) }()
	require.Eventually(t, func() bool { return f.count() == 1 }, time.Second, time.Millisecond)

	r.Trigger()
	require.Eventually(t, func() bool { return f.count() == 2 }, time.Second, time.Millisecond)
	assert.Empty(t, r.Items(), "silent result is deferred while visible is in flight")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"visible"}, ids(r.Items()))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, []string{"visible"}, ids(r.Items()), "earlier arrival must not overwrite a later one")
}

func TestSilentDuringVisible_appliedAfterDelay(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetch{respond: func(call int) ([]model.WorkItem, error) {
		if call == 1 {
			<-release
			return nil, errors.New("slow and failed")
		}
		return []model.WorkItem{item("silent", "2024-01-01T00:00:00Z")}, nil
	}}
	r := newTestReconciler(f, Options[model.WorkItem]{
		SilentDebounce:   time.Millisecond,
		SilentApplyDelay: 10 * time.Millisecond,
	})
	defer r.Dispose()

	done := make(chan error, 1)
	go func() { done <- r.Refresh(context.Background(), ModeVisible) }()
	require.Eventually(t, func() bool { return f.count() == 1 }, time.Second, time.Millisecond)

	r.Trigger()
	require.Eventually(t, func() bool {
		return len(r.Items()) == 1
	}, time.Second, time.Millisecond)
	assert.True(t, r.Snapshot().Pending, "visible refresh still in flight")

	close(release)
	require.Error(t, <-done)
	assert.Equal(t, []string{"silent"}, ids(r.Items()))
}

func TestApply_identicalResultIsNoop(t *testing.T) {
	f := &fakeFetch{respond: func(int) ([]model.WorkItem, error) {
		// Fresh slice in a different order each time.
		return []model.WorkItem{
			item("b", "2024-01-01T00:00:00Z"),
			item("a", "2024-01-02T00:00:00Z"),
		}, nil
	}}
	applied := 0
	r := newTestReconciler(f, Options[model.WorkItem]{
		OnApply: func([]model.WorkItem) { applied++ },
	})
	defer r.Dispose()

	require.NoError(t, r.Refresh(context.Background(), ModeVisible))
	require.NoError(t, r.Refresh(context.Background(), ModeVisible))

	assert.Equal(t, uint64(1), r.Snapshot().Version)
	assert.Equal(t, 1, applied)
}

func TestByRecency_tieBreaksOnCreation(t *testing.T) {
	ts := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	a := model.WorkItem{ID: "a", ModifiedAt: ts, CreatedAt: ts.Add(-2 * time.Hour)}
	b := model.WorkItem{ID: "b", ModifiedAt: ts, CreatedAt: ts.Add(-time.Hour)}
	c := model.WorkItem{ID: "c", CreatedAt: ts.Add(time.Hour)}

	f := &fakeFetch{respond: fixed(a, b, c)}
	r := newTestReconciler(f, Options[model.WorkItem]{})
	defer r.Dispose()

	require.NoError(t, r.Refresh(context.Background(), ModeVisible))
	assert.Equal(t, []string{"c", "b", "a"}, ids(r.Items()))
}

func TestAttach_pushEventTriggersSilentRefresh(t *testing.T) {
	hub := push.NewHub()
	f := &fakeFetch{respond: fixed(item("a", "2024-01-01T00:00:00Z"))}
	r := newTestReconciler(f, Options[model.WorkItem]{SilentDebounce: 5 * time.Millisecond})
	defer r.Dispose()

	r.Attach(hub, push.EventReceiveNotification)
	for i := 0; i < 5; i++ {
		hub.Dispatch(push.Event{Name: push.EventReceiveNotification})
	}

	require.Eventually(t, func() bool { return f.count() == 1 }, time.Second, time.Millisecond)
}

func TestDispose_detachesAndDiscardsLateResponses(t *testing.T) {
	hub := push.NewHub()
	release := make(chan struct{})
	f := &fakeFetch{respond: func(int) ([]model.WorkItem, error) {
		<-release
		return []model.WorkItem{item("late", "2024-01-01T00:00:00Z")}, nil
	}}
	r := newTestReconciler(f, Options[model.WorkItem]{SilentDebounce: time.Millisecond})
	r.Attach(hub, push.EventReceiveNotification)
	require.Equal(t, 1, hub.Len())

	done := make(chan error, 1)
	go func() { done <- r.Refresh(context.Background(), ModeVisible) }()
	require.Eventually(t, func() bool { return f.count() == 1 }, time.Second, time.Millisecond)

	r.Dispose()
	r.Dispose()
	assert.Equal(t, 0, hub.Len())

	close(release)
	assert.ErrorIs(t, <-done, ErrDisposed)
	assert.Empty(t, r.Items())

	hub.Dispatch(push.Event{Name: push.EventReceiveNotification})
	r.Trigger()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, f.count())

	assert.ErrorIs(t, r.Refresh(context.Background(), ModeVisible), ErrDisposed)

	drained := make(chan struct{})
	go func() {
		for range r.Updates() {
		}
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("updates channel not closed")
	}
}

func TestSeed_onlyBeforeFirstApply(t *testing.T) {
	f := &fakeFetch{respond: fixed(item("remote", "2024-01-02T00:00:00Z"))}
	r := newTestReconciler(f, Options[model.WorkItem]{})
	defer r.Dispose()

	r.Seed([]model.WorkItem{item("cached", "2024-01-01T00:00:00Z")})
	assert.Equal(t, []string{"cached"}, ids(r.Items()))

	require.NoError(t, r.Refresh(context.Background(), ModeVisible))
	r.Seed([]model.WorkItem{item("cached", "2024-01-01T00:00:00Z")})
	assert.Equal(t, []string{"remote"}, ids(r.Items()))
}

func TestUpdates_deliversLatestState(t *testing.T) {
	f := &fakeFetch{respond: fixed(item("a", "2024-01-01T00:00:00Z"))}
	r := newTestReconciler(f, Options[model.WorkItem]{})
	defer r.Dispose()

	require.NoError(t, r.Refresh(context.Background(), ModeVisible))

	select {
	case coll := <-r.Updates():
		assert.False(t, coll.Pending)
		assert.Equal(t, []string{"a"}, ids(coll.Items))
	default:
		t.Fatal("no update published")
	}
}
