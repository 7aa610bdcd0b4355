// Package policy decides when time-gated actions on a work item become
// available.
package policy

import (
	"fmt"
	"time"

	"github.com/nhle/greenspace-sync/internal/model"
)

// DefaultLeadMinutes is how long before the appointment the start action
// unlocks.
const DefaultLeadMinutes = 15

// Denial reasons. Too-early denials carry the unlock time and are built
// with tooEarly.
const (
	ReasonNoSchedule     = "no schedule set"
	ReasonNotYetDay      = "not yet appointment day"
	reasonTooEarlyPrefix = "too early, allowed from "
)

// Decision is the outcome of a time-window check.
type Decision struct {
	Allowed bool
	Reason  string

	// AllowedFrom is appointment minus lead time. Zero when no schedule
	// is set.
	AllowedFrom time.Time

	// Remaining is how long until AllowedFrom, measured against the
	// effective (possibly offset) clock. It is a display hint only.
	Remaining time.Duration
}

func tooEarly(at time.Time) string {
	return reasonTooEarlyPrefix + at.Format("15:04")
}

// CanTransition reports whether a time-gated transition on item is allowed
// at nowReal. nowReal is authoritative; nowEffective only feeds the
// Remaining hint. The appointment is interpreted in nowReal's location.
func CanTransition(
	item model.WorkItem,
	nowReal time.Time,
	nowEffective time.Time,
	leadMinutes int,
) Decision {
	appt, err := item.Appointment.At(nowReal.Location())
	if err != nil {
		return Decision{Reason: ReasonNoSchedule}
	}

	allowedFrom := appt.Add(-time.Duration(leadMinutes) * time.Minute)
	d := Decision{AllowedFrom: allowedFrom}
	if rem := allowedFrom.Sub(nowEffective); rem > 0 {
		d.Remaining = rem
	}

	switch cmp := compareDay(appt, nowReal); {
	case cmp > 0:
		d.Reason = ReasonNotYetDay
	case cmp < 0:
		d.Allowed = true
	case nowReal.Before(allowedFrom):
		d.Reason = tooEarly(allowedFrom)
	default:
		d.Allowed = true
	}

	if d.Allowed {
		d.Remaining = 0
	}
	return d
}

// compareDay compares the calendar days of a and b, both taken in b's
// location.
func compareDay(a, b time.Time) int {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		return sign(ay - by)
	case am != bm:
		return sign(int(am) - int(bm))
	default:
		return sign(ad - bd)
	}
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

// Hint renders a short user-facing line for d.
func (d Decision) Hint() string {
	if d.Allowed {
		return "available now"
	}
	if d.Remaining > 0 && d.Reason != ReasonNoSchedule {
		return fmt.Sprintf("%s (in %s)", d.Reason, d.Remaining.Round(time.Minute))
	}
	return d.Reason
}
