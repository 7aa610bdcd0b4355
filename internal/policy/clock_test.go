package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/greenspace-sync/internal/model"
)

func TestClock_offsetOnlyShiftsEffective(t *testing.T) {
	base := at("2024-01-10T08:00")
	c := NewClockFunc(func() time.Time { return base }, 2*time.Hour+30*time.Minute)

	assert.Equal(t, base, c.Real())
	assert.Equal(t, at("2024-01-10T10:30"), c.Effective())
	assert.Equal(t, 150*time.Minute, c.Offset())
}

func TestClock_zeroOffset(t *testing.T) {
	base := at("2024-01-10T08:00")
	c := NewClockFunc(func() time.Time { return base }, 0)
	assert.Equal(t, c.Real(), c.Effective())
}

func TestEarliestDelivery(t *testing.T) {
	item := model.WorkItem{ModifiedAt: at("2024-01-10T15:00"), CreatedAt: at("2024-01-01T00:00")}
	assert.Equal(t, at("2024-01-12T15:00"), EarliestDelivery(item))

	item = model.WorkItem{CreatedAt: at("2024-01-01T00:00")}
	assert.Equal(t, at("2024-01-03T00:00"), EarliestDelivery(item), "falls back to creation time")
}

func TestDeliveryAllowed(t *testing.T) {
	item := model.WorkItem{ModifiedAt: at("2024-01-10T15:00")}
	assert.False(t, DeliveryAllowed(item, at("2024-01-11T23:00")))
	assert.True(t, DeliveryAllowed(item, at("2024-01-12T00:00")), "any time on the earliest day")
	assert.True(t, DeliveryAllowed(item, at("2024-01-20T09:00")))
}
