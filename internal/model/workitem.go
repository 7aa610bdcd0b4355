package model

import (
	"time"

	"github.com/nhle/greenspace-sync/internal/status"
)

// Appointment is the scheduled installation slot for a work item.
// Date uses the "2006-01-02" layout and Time the "15:04" layout, matching
// the dateAppointment/timeAppointment fields of the remote API.
type Appointment struct {
	Date string `json:"date" db:"appointment_date"`
	Time string `json:"time" db:"appointment_time"`
}

// IsZero reports whether no schedule has been set.
func (a *Appointment) IsZero() bool {
	return a == nil || a.Date == ""
}

// At resolves the appointment to an instant in loc. A missing time of day
// resolves to midnight.
func (a *Appointment) At(loc *time.Location) (time.Time, error) {
	if a.IsZero() {
		return time.Time{}, ErrNoAppointment
	}
	day, err := time.ParseInLocation("2006-01-02", a.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	if a.Time == "" {
		return day, nil
	}
	clock, err := parseClock(a.Time)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(clock), nil
}

// parseClock accepts "15:04" and "15:04:05".
func parseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, &time.ParseError{Layout: "15:04", Value: s}
}

// OrderRef is a read-only back-reference from a work item to the service
// order it belongs to. The work item does not own the order.
type OrderRef struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
}

// WorkItem is the unified representation of a contractor task, service
// order, or design order as seen by the client.
type WorkItem struct {
	// ID is the opaque identifier assigned by the remote API.
	ID string `json:"id"`

	// OwnerID identifies the contractor or designer the item is assigned to.
	OwnerID string `json:"owner_id"`

	// Title is a short human-readable label.
	Title string `json:"title"`

	// CustomerName and Address are shown on the board.
	CustomerName string `json:"customer_name"`
	Address      string `json:"address"`

	// Status is the raw status code as delivered by the server. Use
	// TaskStatus to interpret it.
	Status string `json:"status"`

	// Appointment is nil when no schedule has been set.
	Appointment *Appointment `json:"appointment,omitempty"`

	ModifiedAt time.Time `json:"modified_at"`
	CreatedAt  time.Time `json:"created_at"`

	// RelatedOrder is the parent order, when the item is a task.
	RelatedOrder *OrderRef `json:"related_order,omitempty"`
}

// TaskStatus interprets Status against the work-task vocabulary.
func (w WorkItem) TaskStatus() status.Task {
	return status.ParseTask(w.Status)
}

// OrderStatus interprets the related order's status, or returns
// status.OrderUnknown when there is no related order.
func (w WorkItem) OrderStatus() status.Order {
	if w.RelatedOrder == nil {
		return status.OrderUnknown
	}
	return status.ParseOrder(w.RelatedOrder.Status)
}

// LastChanged returns the modification timestamp, falling back to the
// creation timestamp for items that were never modified.
func (w WorkItem) LastChanged() time.Time {
	if w.ModifiedAt.IsZero() {
		return w.CreatedAt
	}
	return w.ModifiedAt
}

// Patch is a partial update sent to the mutation endpoint. Nil fields are
// left untouched by the server.
type Patch struct {
	Status      *string      `json:"status,omitempty"`
	Appointment *Appointment `json:"appointment,omitempty"`
}

// StatusPatch builds a patch that only changes the status.
func StatusPatch(code string) Patch {
	return Patch{Status: &code}
}

// Describe returns the presentation of the item's own status and of its
// related order's status. Both come from the same snapshot of the item.
func (w WorkItem) Describe() (task, order status.Descriptor) {
	task = status.Describe(status.EntityTask, w.Status)
	if w.RelatedOrder != nil {
		order = status.Describe(status.EntityOrder, w.RelatedOrder.Status)
	}
	return task, order
}
