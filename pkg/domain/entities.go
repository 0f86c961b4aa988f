// Package domain defines the maintenance document tree persisted per user,
// its enumerations and defaults, and the capability contracts the engine
// depends on.
package domain

import (
	"strings"
	"time"
)

// DefaultUserName is the display name assigned when a document carries none.
const DefaultUserName = "Usuário"

// MaxPhotos bounds every photo list written by a mutation.
const MaxPhotos = 5

// EntityType identifies a node kind in the document tree.
type EntityType string

// Entity identifiers used by lookup errors and observability labels.
const (
	EntityHotel     EntityType = "hotel"
	EntityApartment EntityType = "apartment"
	EntityItem      EntityType = "item"
	EntityLog       EntityType = "maintenance_log"
	EntityTask      EntityType = "scheduled_task"
	EntityPhoto     EntityType = "photo"
)

// ItemStatus is the inspection condition of an apartment item.
type ItemStatus string

// Item statuses. The values are the strings stored in user documents.
const (
	// StatusOK marks an item in working order.
	StatusOK ItemStatus = "OK"
	// StatusNeedsRepair marks an item that requires repair.
	StatusNeedsRepair ItemStatus = "Requer Reparo"
	// StatusDamaged marks a damaged item.
	StatusDamaged ItemStatus = "Danificado"
)

var itemStatusNames = map[string]ItemStatus{
	"ok":           StatusOK,
	"needs_repair": StatusNeedsRepair,
	"needsrepair":  StatusNeedsRepair,
	"damaged":      StatusDamaged,
}

// ItemStatuses lists the statuses in display order.
func ItemStatuses() []ItemStatus {
	return []ItemStatus{StatusOK, StatusNeedsRepair, StatusDamaged}
}

// Valid reports whether s is one of the known statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusOK, StatusNeedsRepair, StatusDamaged:
		return true
	}
	return false
}

// ParseItemStatus accepts a stored value or a symbolic name (case-insensitive).
func ParseItemStatus(raw string) (ItemStatus, bool) {
	trimmed := strings.TrimSpace(raw)
	if s := ItemStatus(trimmed); s.Valid() {
		return s, true
	}
	for _, s := range ItemStatuses() {
		if strings.EqualFold(string(s), trimmed) {
			return s, true
		}
	}
	s, ok := itemStatusNames[strings.ToLower(trimmed)]
	return s, ok
}

// TaskPriority ranks a scheduled task.
type TaskPriority string

// Task priorities. The values are the strings stored in user documents.
const (
	PriorityHigh   TaskPriority = "Alta"
	PriorityMedium TaskPriority = "Média"
	PriorityLow    TaskPriority = "Baixa"
)

var taskPriorityNames = map[string]TaskPriority{
	"high":   PriorityHigh,
	"medium": PriorityMedium,
	"media":  PriorityMedium,
	"low":    PriorityLow,
}

// TaskPriorities lists the priorities from highest to lowest.
func TaskPriorities() []TaskPriority {
	return []TaskPriority{PriorityHigh, PriorityMedium, PriorityLow}
}

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ParseTaskPriority accepts a stored value or a symbolic name (case-insensitive).
func ParseTaskPriority(raw string) (TaskPriority, bool) {
	trimmed := strings.TrimSpace(raw)
	if p := TaskPriority(trimmed); p.Valid() {
		return p, true
	}
	for _, p := range TaskPriorities() {
		if strings.EqualFold(string(p), trimmed) {
			return p, true
		}
	}
	p, ok := taskPriorityNames[strings.ToLower(trimmed)]
	return p, ok
}

// AppData is the root of a user's document. It is always written whole.
type AppData struct {
	UserName       string          `json:"userName"`
	Hotels         []Hotel         `json:"hotels"`
	ScheduledTasks []ScheduledTask `json:"scheduledTasks"`
}

// Hotel owns its apartments.
type Hotel struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Address    string      `json:"address"`
	Photo      *string     `json:"photo"`
	Apartments []Apartment `json:"apartments"`
}

// Apartment owns its items and maintenance history.
type Apartment struct {
	ID              string           `json:"id"`
	Number          string           `json:"number"`
	Description     string           `json:"description"`
	Photos          []string         `json:"photos"`
	Items           []Item           `json:"items"`
	MaintenanceLogs []MaintenanceLog `json:"maintenanceLogs"`
}

// Item is an inspectable fixture inside an apartment.
type Item struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Status ItemStatus `json:"status"`
	Photos []string   `json:"photos"`
}

// MaintenanceLog records work done on an item. ItemID is a soft reference:
// the item may have been deleted since the log was written.
type MaintenanceLog struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	Notes  string    `json:"notes"`
	Photos []string  `json:"photos"`
	ItemID string    `json:"itemId"`
}

// ScheduledTask is a dated reminder owned by the user.
type ScheduledTask struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	DueDate          Date         `json:"dueDate"`
	Priority         TaskPriority `json:"priority"`
	IsComplete       bool         `json:"isComplete"`
	NotificationSent bool         `json:"notificationSent"`
}

// NewAppData returns the empty document used before the first snapshot and
// as the initial remote state for new users.
func NewAppData() AppData {
	return AppData{
		UserName:       DefaultUserName,
		Hotels:         []Hotel{},
		ScheduledTasks: []ScheduledTask{},
	}
}

// FindHotel returns the index of the hotel with id, or -1.
func (d AppData) FindHotel(id string) int {
	for i := range d.Hotels {
		if d.Hotels[i].ID == id {
			return i
		}
	}
	return -1
}

// FindTask returns the index of the task with id, or -1.
func (d AppData) FindTask(id string) int {
	for i := range d.ScheduledTasks {
		if d.ScheduledTasks[i].ID == id {
			return i
		}
	}
	return -1
}

// FindApartment returns the index of the apartment with id, or -1.
func (h Hotel) FindApartment(id string) int {
	for i := range h.Apartments {
		if h.Apartments[i].ID == id {
			return i
		}
	}
	return -1
}

// FindItem returns the index of the item with id, or -1.
func (a Apartment) FindItem(id string) int {
	for i := range a.Items {
		if a.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// HasPhoto reports whether the hotel carries a cover photo.
func (h Hotel) HasPhoto() bool {
	return h.Photo != nil && *h.Photo != ""
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
