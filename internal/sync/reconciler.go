package sync

import (
	"context"
	"fmt"
	"sort"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/nhle/greenspace-sync/internal/push"
)

// Default timings.
const (
	DefaultSilentDebounce   = 100 * time.Millisecond
	DefaultSilentApplyDelay = 50 * time.Millisecond

	// fetchTimeout is the maximum time allowed for a single fetch.
	fetchTimeout = 30 * time.Second
)

// Fetcher loads the full authoritative collection.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Options tunes a Reconciler. Zero values select the defaults.
type Options[T any] struct {
	// Less orders the collection. When nil the fetch order is kept.
	Less func(a, b T) bool

	SilentDebounce   time.Duration
	SilentApplyDelay time.Duration

	// OnApply is called with every collection that changes Items. It runs
	// while the Reconciler is locked and must not call back into it.
	OnApply func([]T)

	Logger zerolog.Logger
}

// UpdateMsg is a tea.Msg carrying a new collection state.
type UpdateMsg[T any] struct {
	Collection CachedCollection[T]
}

type attachment struct {
	bridge push.Bridge
	token  push.Token
}

// Reconciler owns one cached collection and is the only writer of it.
// Visible refreshes share a single in-flight fetch; silent refreshes are
// debounced and collapse into at most one follow-up fetch. Every response
// is stamped with its arrival order and never overwrites a later arrival.
type Reconciler[T any] struct {
	fetch Fetcher[T]
	opts  Options[T]
	log   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	flight singleflight.Group

	mu          gosync.Mutex
	coll        CachedCollection[T]
	fingerprint uint64
	hashed      bool
	arrivals    uint64
	applied     uint64
	visible     int
	debounce    *time.Timer
	delayed     map[*time.Timer]struct{}
	silentBusy  bool
	silentAgain bool
	disposed    bool
	attached    []attachment
	updates     chan CachedCollection[T]
}

// NewReconciler creates a Reconciler over fetch.
func NewReconciler[T any](fetch Fetcher[T], opts Options[T]) *Reconciler[T] {
	if opts.SilentDebounce <= 0 {
		opts.SilentDebounce = DefaultSilentDebounce
	}
	if opts.SilentApplyDelay <= 0 {
		opts.SilentApplyDelay = DefaultSilentApplyDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Reconciler[T]{
		fetch:   fetch,
		opts:    opts,
		log:     opts.Logger,
		ctx:     ctx,
		cancel:  cancel,
		delayed: make(map[*time.Timer]struct{}),
		updates: make(chan CachedCollection[T], 1),
	}
}

// Snapshot returns a copy of the current collection state.
func (r *Reconciler[T]) Snapshot() CachedCollection[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.coll.clone()
}

// Items returns a copy of the current items.
func (r *Reconciler[T]) Items() []T {
	return r.Snapshot().Items
}

// Updates returns the change feed. Only the latest unread state is kept.
// The channel is closed by Dispose.
func (r *Reconciler[T]) Updates() <-chan CachedCollection[T] {
	return r.updates
}

// WaitForUpdate returns a tea.Cmd that waits for the next collection
// state. It should be re-issued after each UpdateMsg is handled.
func (r *Reconciler[T]) WaitForUpdate() tea.Cmd {
	return func() tea.Msg {
		coll, ok := <-r.updates
		if !ok {
			return nil
		}
		return UpdateMsg[T]{Collection: coll}
	}
}

// Seed installs items loaded from local storage. It has no effect once a
// fetch has been applied.
func (r *Reconciler[T]) Seed(items []T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed || r.applied > 0 {
		return
	}
	r.setItemsLocked(items, false)
}

// Amend applies a local edit to the current items as if it were a new
// arrival. Fetches that arrive later still replace it.
func (r *Reconciler[T]) Amend(edit func([]T) []T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return
	}
	items := edit(r.coll.clone().Items)
	r.applyLocked(items, r.nextArrivalLocked())
}

// Refresh reloads the collection. A visible refresh blocks until the fetch
// completes and returns its error. A silent refresh only schedules a
// debounced fetch and returns immediately.
func (r *Reconciler[T]) Refresh(ctx context.Context, mode Mode) error {
	if mode == ModeSilent {
		r.Trigger()
		return nil
	}
	return r.refreshVisible(ctx)
}

func (r *Reconciler[T]) refreshVisible(ctx context.Context) error {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return ErrDisposed
	}
	r.visible++
	r.coll.Pending = true
	r.emitLocked()
	r.mu.Unlock()

	_, err, _ := r.flight.Do("visible", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()

		items, err := r.fetch(fetchCtx)

		r.mu.Lock()
		defer r.mu.Unlock()

		seq := r.nextArrivalLocked()
		if r.disposed {
			return nil, ErrDisposed
		}
		if err != nil {
			r.coll.Err = err
			return nil, err
		}
		r.applyLocked(items, seq)
		return nil, nil
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	r.visible--
	if !r.disposed && r.visible == 0 {
		r.coll.Pending = false
		r.emitLocked()
	}
	if err != nil {
		return fmt.Errorf("visible refresh: %w", err)
	}
	return nil
}

// Trigger schedules a silent refresh. Triggers within the debounce window
// of each other collapse into one fetch.
func (r *Reconciler[T]) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return
	}
	if r.debounce != nil {
		r.debounce.Reset(r.opts.SilentDebounce)
		return
	}
	r.debounce = time.AfterFunc(r.opts.SilentDebounce, r.runSilent)
}

// runSilent performs the debounced fetch. If another trigger fires while
// it is fetching, exactly one more fetch follows.
func (r *Reconciler[T]) runSilent() {
	r.mu.Lock()
	r.debounce = nil
	if r.disposed {
		r.mu.Unlock()
		return
	}
	if r.silentBusy {
		r.silentAgain = true
		r.mu.Unlock()
		return
	}
	r.silentBusy = true
	r.mu.Unlock()

	for {
		ctx, cancel := context.WithTimeout(r.ctx, fetchTimeout)
		items, err := r.fetch(ctx)
		cancel()

		r.mu.Lock()
		seq := r.nextArrivalLocked()
		if r.disposed {
			r.mu.Unlock()
			return
		}

		switch {
		case err != nil:
			r.log.Warn().Err(err).Msg("silent refresh failed")
		case r.visible > 0:
			r.applyLaterLocked(items, seq)
		default:
			r.applyLocked(items, seq)
		}

		if !r.silentAgain {
			r.silentBusy = false
			r.mu.Unlock()
			return
		}
		r.silentAgain = false
		r.mu.Unlock()
	}
}

// applyLaterLocked defers a silent result so it does not reorder rows
// while a visible refresh is on screen.
func (r *Reconciler[T]) applyLaterLocked(items []T, seq uint64) {
	var t *time.Timer
	t = time.AfterFunc(r.opts.SilentApplyDelay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		delete(r.delayed, t)
		if r.disposed {
			return
		}
		r.applyLocked(items, seq)
	})
	r.delayed[t] = struct{}{}
}

func (r *Reconciler[T]) nextArrivalLocked() uint64 {
	r.arrivals++
	return r.arrivals
}

// applyLocked installs items unless a later arrival was already applied.
// It reports whether the collection changed.
func (r *Reconciler[T]) applyLocked(items []T, seq uint64) bool {
	if seq <= r.applied {
		r.log.Debug().Uint64("seq", seq).Uint64("applied", r.applied).Msg("dropping stale result")
		return false
	}
	r.applied = seq
	return r.setItemsLocked(items, true)
}

func (r *Reconciler[T]) setItemsLocked(items []T, clearErr bool) bool {
	sorted := make([]T, len(items))
	copy(sorted, items)
	if r.opts.Less != nil {
		sort.SliceStable(sorted, func(i, j int) bool {
			return r.opts.Less(sorted[i], sorted[j])
		})
	}

	errChanged := clearErr && r.coll.Err != nil
	if clearErr {
		r.coll.Err = nil
	}

	fp, err := hashstructure.Hash(sorted, hashstructure.FormatV2, nil)
	if err == nil && r.hashed && fp == r.fingerprint {
		if errChanged {
			r.emitLocked()
		}
		return false
	}
	r.fingerprint, r.hashed = fp, err == nil

	r.coll.Items = sorted
	r.coll.Version++
	if r.opts.OnApply != nil {
		r.opts.OnApply(sorted)
	}
	r.emitLocked()
	return true
}

// emitLocked publishes the current state, replacing any unread one.
func (r *Reconciler[T]) emitLocked() {
	if r.disposed {
		return
	}
	snap := r.coll.clone()
	select {
	case <-r.updates:
	default:
	}
	select {
	case r.updates <- snap:
	default:
	}
}

// Attach subscribes the silent refresh to event on bridge. The
// subscription is removed by Dispose.
func (r *Reconciler[T]) Attach(bridge push.Bridge, event string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return
	}
	tok := bridge.Subscribe(event, func(push.Event) { r.Trigger() })
	r.attached = append(r.attached, attachment{bridge: bridge, token: tok})
}

// Dispose detaches from every bridge, stops pending timers, and discards
// any response that arrives afterwards. It is safe to call more than once.
func (r *Reconciler[T]) Dispose() {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	r.disposed = true
	if r.debounce != nil {
		r.debounce.Stop()
		r.debounce = nil
	}
	for t := range r.delayed {
		t.Stop()
	}
	clear(r.delayed)
	attached := r.attached
	r.attached = nil
	close(r.updates)
	r.mu.Unlock()

	r.cancel()
	for _, a := range attached {
		a.bridge.Unsubscribe(a.token)
	}
}
