package crossref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/greenspace-sync/internal/model"
)

const (
	orderA = "3f2b8c1e-9d4a-4e7b-8f6c-2a1d5e9b7c30"
	orderB = "a1b2c3d4-0000-4000-8000-000000000001"
)

func item(id, orderID string) model.WorkItem {
	w := model.WorkItem{ID: id}
	if orderID != "" {
		w.RelatedOrder = &model.OrderRef{ID: orderID, Status: "Installing"}
	}
	return w
}

func TestBuild(t *testing.T) {
	ix := Build([]model.WorkItem{
		item("t1", orderA),
		item("t2", "3F2B8C1E-9D4A-4E7B-8F6C-2A1D5E9B7C30"),
		item("t3", orderB),
		item("t4", ""),
	})

	require.Len(t, ix, 2)
	assert.Len(t, ix[orderA], 2)
	assert.Len(t, ix[orderB], 1)
}

func TestForNotification(t *testing.T) {
	ix := Build([]model.WorkItem{item("t1", orderA)})

	id, items, ok := ix.ForNotification(model.Notification{Content: "Mã đơn : " + orderA})
	require.True(t, ok)
	assert.Equal(t, orderA, id)
	require.Len(t, items, 1)
	assert.Equal(t, "t1", items[0].ID)

	id, items, ok = ix.ForNotification(model.Notification{Title: "Mã đơn: " + orderB})
	require.True(t, ok)
	assert.Equal(t, orderB, id)
	assert.Empty(t, items)

	_, _, ok = ix.ForNotification(model.Notification{Content: "no reference"})
	assert.False(t, ok)
}

func TestReferenced(t *testing.T) {
	ix := Build([]model.WorkItem{
		item("t1", orderA),
		item("t2", orderB),
		item("t3", orderB),
	})

	notes := []model.Notification{
		{ID: "n1", Content: "Mã đơn : " + orderB},
		{ID: "n2", Content: "unrelated"},
		{ID: "n3", Content: "Mã đơn : " + orderA},
		{ID: "n4", Content: "Mã đơn : " + orderB},
	}

	got := ix.Referenced(notes)
	ids := make([]string, len(got))
	for i, w := range got {
		ids[i] = w.ID
	}
	assert.Equal(t, []string{"t2", "t3", "t1"}, ids)
}
