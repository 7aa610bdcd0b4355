package sync

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nhle/greenspace-sync/internal/gate"
	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/source"
	"github.com/nhle/greenspace-sync/internal/status"
)

// RejectedError is returned when the gate refuses a transition. Message
// is meant to be shown to the user as is.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return "transition rejected: " + e.Message
}

// PartialTransitionError reports that the task status changed but its
// order did not follow. Reverted tells whether the task was put back to
// its previous status.
type PartialTransitionError struct {
	TaskID    string
	OrderID   string
	Err       error
	Reverted  bool
	RevertErr error
}

func (e *PartialTransitionError) Error() string {
	if e.Reverted {
		return fmt.Sprintf("order %s not updated, task %s reverted: %v", e.OrderID, e.TaskID, e.Err)
	}
	return fmt.Sprintf(
		"order %s not updated and task %s could not be reverted (%v): %v",
		e.OrderID, e.TaskID, e.RevertErr, e.Err,
	)
}

func (e *PartialTransitionError) Unwrap() error { return e.Err }

// Transitioner runs gated status transitions against the remote API and
// keeps the work-item collection reconciled afterwards.
type Transitioner struct {
	remote source.Remote
	gate   *gate.Gate
	items  *Reconciler[model.WorkItem]
	log    zerolog.Logger
}

// NewTransitioner creates a Transitioner. items may be nil when no
// collection needs refreshing.
func NewTransitioner(
	remote source.Remote,
	g *gate.Gate,
	items *Reconciler[model.WorkItem],
	logger zerolog.Logger,
) *Transitioner {
	return &Transitioner{
		remote: remote,
		gate:   g,
		items:  items,
		log:    logger.With().Str("component", "transition").Logger(),
	}
}

// Advance performs the next forward transition for item, if it has one.
func (t *Transitioner) Advance(ctx context.Context, item model.WorkItem) (model.WorkItem, error) {
	target, targetOrder, ok := gate.Next(item)
	if !ok {
		return item, &RejectedError{Message: gate.ReasonInvalidTransition}
	}
	return t.Transition(ctx, item, target, targetOrder)
}

// Transition moves item to target and, when it has a related order, moves
// the order to targetOrder. If the order update fails the task is
// reverted and a *PartialTransitionError is returned. A visible refresh
// follows every attempt that reached the server.
func (t *Transitioner) Transition(
	ctx context.Context,
	item model.WorkItem,
	target status.Task,
	targetOrder status.Order,
) (model.WorkItem, error) {
	res := t.gate.RequestTransition(item, target, targetOrder)
	if !res.Permitted {
		return item, &RejectedError{Message: res.Message}
	}

	defer t.refresh(ctx)

	updated, err := t.remote.Mutate(ctx, item.ID, model.StatusPatch(target.Code()))
	if err != nil {
		return item, fmt.Errorf("updating task %s to %s: %w", item.ID, target, err)
	}

	if item.RelatedOrder == nil || targetOrder == status.OrderUnknown {
		return updated, nil
	}

	orderID := item.RelatedOrder.ID
	if err := t.remote.UpdateOrderStatus(ctx, orderID, targetOrder.Code()); err != nil {
		perr := &PartialTransitionError{TaskID: item.ID, OrderID: orderID, Err: err}

		if _, revertErr := t.remote.Mutate(ctx, item.ID, model.StatusPatch(item.Status)); revertErr != nil {
			perr.RevertErr = revertErr
			t.log.Error().Err(revertErr).Str("task", item.ID).Msg("reverting task status failed")
			return updated, perr
		}
		perr.Reverted = true
		return item, perr
	}

	if updated.RelatedOrder != nil {
		updated.RelatedOrder.Status = targetOrder.Code()
	}
	return updated, nil
}

func (t *Transitioner) refresh(ctx context.Context) {
	if t.items == nil {
		return
	}
	if err := t.items.Refresh(ctx, ModeVisible); err != nil {
		t.log.Warn().Err(err).Msg("refresh after transition failed")
	}
}
