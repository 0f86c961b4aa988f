// Package notify plans local reminders for scheduled tasks.
package notify

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"hotelcare/pkg/domain"
)

// ReminderHour is the local hour at which a task reminder fires on its due day.
const ReminderHour = 9

// Notification is one pending reminder.
type Notification struct {
	ID    int32
	Title string
	Body  string
	At    time.Time
}

// Scheduler is the platform notification capability.
type Scheduler interface {
	Pending(ctx context.Context) ([]Notification, error)
	Cancel(ctx context.Context, ids []int32) error
	Schedule(ctx context.Context, notifications []Notification) error
}

// NotificationID derives a stable positive 31-bit id from a task id.
func NotificationID(taskID string) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(taskID))
	return int32(h.Sum32() & 0x7fffffff)
}

// Plan returns a reminder for every incomplete task whose reminder time is
// still ahead of now, ordered by time.
func Plan(tasks []domain.ScheduledTask, now time.Time, loc *time.Location) []Notification {
	if loc == nil {
		loc = time.Local
	}
	out := make([]Notification, 0, len(tasks))
	for _, task := range tasks {
		if task.IsComplete || task.DueDate.IsZero() {
			continue
		}
		at := task.DueDate.In(loc).Add(ReminderHour * time.Hour)
		if !at.After(now) {
			continue
		}
		body := task.Description
		if body == "" {
			body = "Sua tarefa \"" + task.Title + "\" está agendada para hoje."
		}
		out = append(out, Notification{
			ID:    NotificationID(task.ID),
			Title: "Lembrete de Tarefa: " + task.Title,
			Body:  body,
			At:    at,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// Reschedule replaces every pending notification with the plan for tasks.
func Reschedule(ctx context.Context, s Scheduler, tasks []domain.ScheduledTask, now time.Time, loc *time.Location) ([]Notification, error) {
	pending, err := s.Pending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	if len(pending) > 0 {
		ids := make([]int32, len(pending))
		for i, n := range pending {
			ids[i] = n.ID
		}
		if err := s.Cancel(ctx, ids); err != nil {
			return nil, fmt.Errorf("cancel pending: %w", err)
		}
	}
	plan := Plan(tasks, now, loc)
	if len(plan) == 0 {
		return plan, nil
	}
	if err := s.Schedule(ctx, plan); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	return plan, nil
}

// MemoryScheduler keeps notifications in process.
type MemoryScheduler struct {
	mu      sync.Mutex
	pending map[int32]Notification
}

// NewMemoryScheduler returns an empty scheduler.
func NewMemoryScheduler() *MemoryScheduler {
	return &MemoryScheduler{pending: map[int32]Notification{}}
}

// Pending implements Scheduler. Results are ordered by time.
func (m *MemoryScheduler) Pending(context.Context) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, 0, len(m.pending))
	for _, n := range m.pending {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].ID < out[j].ID
		}
		return out[i].At.Before(out[j].At)
	})
	return out, nil
}

// Cancel implements Scheduler.
func (m *MemoryScheduler) Cancel(_ context.Context, ids []int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.pending, id)
	}
	return nil
}

// Schedule implements Scheduler.
func (m *MemoryScheduler) Schedule(_ context.Context, notifications []Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range notifications {
		m.pending[n.ID] = n
	}
	return nil
}
