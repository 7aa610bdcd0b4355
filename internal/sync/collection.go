package sync

import (
	"errors"
	"slices"

	"github.com/nhle/greenspace-sync/internal/model"
)

// ErrDisposed is returned by refreshes on a disposed Reconciler.
var ErrDisposed = errors.New("reconciler disposed")

// Mode selects how a refresh presents itself.
type Mode int

const (
	// ModeVisible is a foreground refresh that raises Pending and records
	// failures in Err.
	ModeVisible Mode = iota

	// ModeSilent is a debounced background refresh that never touches
	// Pending or Err.
	ModeSilent
)

func (m Mode) String() string {
	if m == ModeSilent {
		return "silent"
	}
	return "visible"
}

// CachedCollection is the rendered state of a reconciled collection.
type CachedCollection[T any] struct {
	// Items is the sorted collection from the last applied fetch.
	Items []T

	// Pending is true only while a visible refresh is in flight.
	Pending bool

	// Err is the failure of the last visible refresh, cleared by the next
	// successful apply.
	Err error

	// Version increases every time Items actually changes.
	Version uint64
}

func (c CachedCollection[T]) clone() CachedCollection[T] {
	c.Items = slices.Clone(c.Items)
	return c
}

// ByRecency orders work items most recently modified first, breaking ties
// by creation time.
func ByRecency(a, b model.WorkItem) bool {
	am, bm := a.LastChanged(), b.LastChanged()
	if !am.Equal(bm) {
		return am.After(bm)
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// NewestFirst orders notifications by creation time, newest first.
func NewestFirst(a, b model.Notification) bool {
	return a.CreatedAt.After(b.CreatedAt)
}
