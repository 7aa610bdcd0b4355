package crossref

import (
	"strings"

	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/notification"
)

// Index maps lowercase order ids to the work items that belong to them.
type Index map[string][]model.WorkItem

// Build indexes items by their related order. Items without an order are
// skipped.
func Build(items []model.WorkItem) Index {
	ix := make(Index)
	for _, it := range items {
		if it.RelatedOrder == nil || it.RelatedOrder.ID == "" {
			continue
		}
		id := strings.ToLower(it.RelatedOrder.ID)
		ix[id] = append(ix[id], it)
	}
	return ix
}

// ForNotification returns the order id referenced by n and the work items
// of that order. ok is false when the content names no order.
func (ix Index) ForNotification(n model.Notification) (orderID string, items []model.WorkItem, ok bool) {
	orderID, ok = notification.ExtractOrderID(n.Content)
	if !ok {
		orderID, ok = notification.ExtractOrderID(n.Title)
	}
	if !ok {
		return "", nil, false
	}
	return orderID, ix[orderID], true
}

// Referenced returns the work items mentioned by any of notes, deduplicated
// and in first-mention order.
func (ix Index) Referenced(notes []model.Notification) []model.WorkItem {
	seen := make(map[string]bool)
	var result []model.WorkItem
	for _, n := range notes {
		_, items, ok := ix.ForNotification(n)
		if !ok {
			continue
		}
		for _, it := range items {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			result = append(result, it)
		}
	}
	return result
}
