// Package gate decides whether a requested status transition on a work
// item may proceed right now.
package gate

import (
	"time"

	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/policy"
	"github.com/nhle/greenspace-sync/internal/status"
)

// ReasonInvalidTransition is returned for structurally illegal requests,
// regardless of timing.
const ReasonInvalidTransition = "invalid transition"

// Result is the outcome of a transition request. Message is always set
// when Permitted is false and is meant to be shown to the user verbatim.
type Result struct {
	Permitted bool
	Message   string

	// Decision is the time-window evaluation, present only for timed
	// transitions that passed the structural check.
	Decision *policy.Decision
}

// Gate evaluates transition requests against the transition tables and
// the appointment time window.
type Gate struct {
	clock       *policy.Clock
	leadMinutes int
}

// New creates a Gate reading time from clock.
func New(clock *policy.Clock, leadMinutes int) *Gate {
	return &Gate{clock: clock, leadMinutes: leadMinutes}
}

// LeadMinutes returns the configured lead time.
func (g *Gate) LeadMinutes() int { return g.leadMinutes }

// RequestTransition evaluates a request at the current time.
// targetOrder may be status.OrderUnknown when the order should not move.
func (g *Gate) RequestTransition(
	item model.WorkItem,
	target status.Task,
	targetOrder status.Order,
) Result {
	return g.Evaluate(item, target, targetOrder, g.clock.Real(), g.clock.Effective())
}

// Evaluate is RequestTransition with explicit clocks.
func (g *Gate) Evaluate(
	item model.WorkItem,
	target status.Task,
	targetOrder status.Order,
	nowReal time.Time,
	nowEffective time.Time,
) Result {
	if !ValidTaskTransition(item.TaskStatus(), target) {
		return Result{Message: ReasonInvalidTransition}
	}
	if targetOrder != status.OrderUnknown && item.RelatedOrder != nil &&
		!ValidOrderTransition(item.OrderStatus(), targetOrder) {
		return Result{Message: ReasonInvalidTransition}
	}

	if !timedTargets[target] {
		return Result{Permitted: true}
	}

	d := policy.CanTransition(item, nowReal, nowEffective, g.leadMinutes)
	if !d.Allowed {
		return Result{Message: d.Reason, Decision: &d}
	}
	return Result{Permitted: true, Decision: &d}
}
