package core

import "hotelcare/pkg/domain"

// RemovedItemLabel is shown for log entries whose item no longer exists.
const RemovedItemLabel = "Item removido"

// HistoryFilter selects log entries by the current status of their item.
// The zero value keeps every entry.
type HistoryFilter struct {
	Status domain.ItemStatus
}

// HistoryEntry pairs a log with the label of the item it refers to.
type HistoryEntry struct {
	Log       domain.MaintenanceLog
	ItemLabel string
	Orphaned  bool
}

// History returns the apartment's log, newest first as stored. With a status
// filter, only entries whose item still exists with that status are kept.
func History(a domain.Apartment, filter HistoryFilter) []HistoryEntry {
	items := make(map[string]domain.Item, len(a.Items))
	for _, it := range a.Items {
		items[it.ID] = it
	}
	out := make([]HistoryEntry, 0, len(a.MaintenanceLogs))
	for _, l := range a.MaintenanceLogs {
		it, ok := items[l.ItemID]
		if filter.Status != "" && (!ok || it.Status != filter.Status) {
			continue
		}
		entry := HistoryEntry{Log: l.Clone(), ItemLabel: RemovedItemLabel, Orphaned: !ok}
		if ok {
			entry.ItemLabel = it.Name
		}
		out = append(out, entry)
	}
	return out
}

// ItemLabel resolves an item name within an apartment.
func ItemLabel(a domain.Apartment, itemID string) string {
	if i := a.FindItem(itemID); i >= 0 {
		return a.Items[i].Name
	}
	return RemovedItemLabel
}
