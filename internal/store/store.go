package store

import (
	"context"
	"errors"

	"github.com/nhle/greenspace-sync/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// WorkItemFilter controls filtering for work item queries.
type WorkItemFilter struct {
	OwnerID string
	Status  *string
	Limit   int
}

// Store is the local cache of the last known server state, used to render
// the board before the first fetch completes and when offline.
type Store interface {
	// ReplaceWorkItems swaps the cached items of ownerID for items.
	ReplaceWorkItems(ctx context.Context, ownerID string, items []model.WorkItem) error

	// GetWorkItems returns cached items, most recently changed first.
	GetWorkItems(ctx context.Context, filter WorkItemFilter) ([]model.WorkItem, error)

	// GetWorkItem returns one cached item or ErrNotFound.
	GetWorkItem(ctx context.Context, id string) (model.WorkItem, error)

	// ReplaceNotifications swaps the cached notifications of userID.
	ReplaceNotifications(ctx context.Context, userID string, notes []model.Notification) error

	// GetNotifications returns cached notifications, newest first.
	GetNotifications(ctx context.Context, userID string, unseenOnly bool) ([]model.Notification, error)

	// MarkNotificationSeen flags a cached notification as read.
	MarkNotificationSeen(ctx context.Context, id string) error

	Close() error
}
