package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nhle/greenspace-sync/internal/gate"
	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/notification"
	"github.com/nhle/greenspace-sync/internal/policy"
	"github.com/nhle/greenspace-sync/internal/push"
	"github.com/nhle/greenspace-sync/internal/source/greenspace"
	"github.com/nhle/greenspace-sync/internal/store"
	gssync "github.com/nhle/greenspace-sync/internal/sync"
)

// Services bundles the synchronized collections and the components that
// act on them for one signed-in session.
type Services struct {
	Remote       *greenspace.Adapter
	Store        store.Store
	Board        *gssync.Reconciler[model.WorkItem]
	Inbox        *notification.Inbox
	Gate         *gate.Gate
	Monitor      *gate.Monitor
	Transitioner *gssync.Transitioner
	Hub          *push.Hub

	// Conn is nil when no push endpoint is configured.
	Conn *push.Conn

	cfg *model.AppConfig
	log zerolog.Logger
}

// NewServices wires the GreenSpace adapter, the board and inbox
// reconcilers, the action gate and the push bridge. st may be nil, in
// which case nothing is cached locally.
func NewServices(cfg *model.AppConfig, token string, st store.Store, logger zerolog.Logger) (*Services, error) {
	if cfg.API.OwnerID == "" {
		return nil, errors.New("api.owner_id is not set; run 'greenspace login' first")
	}

	s := &Services{
		Remote: greenspace.NewAdapter(cfg.API.BaseURL, token),
		Store:  st,
		Hub:    push.NewHub(),
		cfg:    cfg,
		log:    logger,
	}

	boardOpts := gssync.Options[model.WorkItem]{
		Less:             gssync.ByRecency,
		SilentDebounce:   model.Millis(cfg.Sync.SilentDebounceMs, gssync.DefaultSilentDebounce),
		SilentApplyDelay: model.Millis(cfg.Sync.SilentApplyDelayMs, gssync.DefaultSilentApplyDelay),
		Logger:           logger.With().Str("component", "board").Logger(),
	}
	if st != nil {
		boardOpts.OnApply = s.persistBoard
	}
	s.Board = gssync.NewReconciler(s.fetchBoard, boardOpts)
	s.Board.Attach(s.Hub, push.EventReceiveNotification)

	if cfg.API.UserID != "" {
		s.Inbox = notification.NewInbox(cfg.API.UserID, s.Remote, st, logger)
		s.Inbox.Listen(s.Hub)
	}

	clock := policy.NewClock(cfg.Policy.DebugOffset.Duration())
	s.Gate = gate.New(clock, cfg.Policy.LeadMinutes)
	s.Monitor = gate.NewMonitor(s.Gate, s.Board.Items, model.Millis(cfg.Sync.GateTickMs, gate.DefaultTick))
	s.Transitioner = gssync.NewTransitioner(s.Remote, s.Gate, s.Board, logger)

	if cfg.API.PushURL != "" {
		conn, err := push.NewConn(cfg.API.PushURL, token, s.Hub, logger)
		if err != nil {
			return nil, fmt.Errorf("configuring push: %w", err)
		}
		s.Conn = conn
	}

	return s, nil
}

// SeedFromStore shows the last cached state until the first fetch lands.
func (s *Services) SeedFromStore(ctx context.Context) {
	if s.Store == nil {
		return
	}
	items, err := s.Store.GetWorkItems(ctx, store.WorkItemFilter{OwnerID: s.cfg.API.OwnerID})
	if err != nil {
		s.log.Warn().Err(err).Msg("loading cached work items failed")
	} else if len(items) > 0 {
		s.Board.Seed(items)
	}

	if s.Inbox == nil {
		return
	}
	notes, err := s.Store.GetNotifications(ctx, s.cfg.API.UserID, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("loading cached notifications failed")
	} else if len(notes) > 0 {
		s.Inbox.Seed(notes)
	}
}

// Close disposes the reconcilers and the push connection. Cached state
// is left in the store.
func (s *Services) Close() {
	if s.Conn != nil {
		if err := s.Conn.Close(); err != nil {
			s.log.Debug().Err(err).Msg("closing push connection")
		}
	}
	s.Board.Dispose()
	if s.Inbox != nil {
		s.Inbox.Dispose()
	}
}

func (s *Services) fetchBoard(ctx context.Context) ([]model.WorkItem, error) {
	return s.Remote.FetchCollection(ctx, s.cfg.API.OwnerID)
}

func (s *Services) persistBoard(items []model.WorkItem) {
	if err := s.Store.ReplaceWorkItems(context.Background(), s.cfg.API.OwnerID, items); err != nil {
		s.log.Warn().Err(err).Msg("persisting work items failed")
	}
}
