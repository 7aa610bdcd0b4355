package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/push"
	gssync "github.com/nhle/greenspace-sync/internal/sync"
)

// Remote is the subset of the API the inbox needs.
type Remote interface {
	FetchNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationSeen(ctx context.Context, id string) error
}

// Store persists notifications locally. It is optional.
type Store interface {
	ReplaceNotifications(ctx context.Context, userID string, notes []model.Notification) error
	MarkNotificationSeen(ctx context.Context, id string) error
}

// Inbox is the reconciled list of a user's notifications, newest first.
type Inbox struct {
	*gssync.Reconciler[model.Notification]

	userID string
	remote Remote
	store  Store
	log    zerolog.Logger
}

// NewInbox creates an Inbox for userID. st may be nil.
func NewInbox(userID string, remote Remote, st Store, logger zerolog.Logger) *Inbox {
	in := &Inbox{
		userID: userID,
		remote: remote,
		store:  st,
		log:    logger.With().Str("component", "inbox").Logger(),
	}

	opts := gssync.Options[model.Notification]{
		Less:   gssync.NewestFirst,
		Logger: in.log,
	}
	if st != nil {
		opts.OnApply = in.persist
	}
	in.Reconciler = gssync.NewReconciler(in.fetch, opts)
	return in
}

// Listen refreshes the inbox silently on every push notification.
func (in *Inbox) Listen(bridge push.Bridge) {
	in.Attach(bridge, push.EventReceiveNotification)
}

// Unseen returns the notifications not yet marked as read.
func (in *Inbox) Unseen() []model.Notification {
	var out []model.Notification
	for _, n := range in.Items() {
		if !n.IsSeen {
			out = append(out, n)
		}
	}
	return out
}

// OrderIDs returns the order ids referenced by the current notifications,
// in inbox order and without duplicates. Notifications without a
// recognizable id are skipped.
func (in *Inbox) OrderIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range in.Items() {
		id, ok := ExtractOrderID(n.Content)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// MarkSeen marks a notification as read on the server and locally, then
// reconciles in the background.
func (in *Inbox) MarkSeen(ctx context.Context, id string) error {
	if err := in.remote.MarkNotificationSeen(ctx, id); err != nil {
		return fmt.Errorf("marking notification seen: %w", err)
	}
	in.Amend(func(notes []model.Notification) []model.Notification {
		for i := range notes {
			if notes[i].ID == id {
				notes[i].IsSeen = true
			}
		}
		return notes
	})
	if in.store != nil {
		if err := in.store.MarkNotificationSeen(ctx, id); err != nil {
			in.log.Warn().Err(err).Str("id", id).Msg("updating local notification failed")
		}
	}
	in.Trigger()
	return nil
}

func (in *Inbox) fetch(ctx context.Context) ([]model.Notification, error) {
	return in.remote.FetchNotifications(ctx, in.userID)
}

func (in *Inbox) persist(notes []model.Notification) {
	if err := in.store.ReplaceNotifications(context.Background(), in.userID, notes); err != nil {
		in.log.Warn().Err(err).Msg("persisting notifications failed")
	}
}
