package policy

import (
	"time"

	"github.com/nhle/greenspace-sync/internal/model"
)

// DeliveryLeadDays is the minimum number of days between an item's last
// change and the delivery date a customer may pick.
const DeliveryLeadDays = 2

// EarliestDelivery returns the first instant a delivery may be scheduled
// for item.
func EarliestDelivery(item model.WorkItem) time.Time {
	return item.LastChanged().AddDate(0, 0, DeliveryLeadDays)
}

// DeliveryAllowed reports whether day (any time on that calendar day) is
// an acceptable delivery date.
func DeliveryAllowed(item model.WorkItem, day time.Time) bool {
	earliest := EarliestDelivery(item)
	return compareDay(day, earliest.In(day.Location())) >= 0
}
