package core

import (
	"sort"

	"hotelcare/pkg/domain"
)

// TaskStatusKind classifies a task relative to today.
type TaskStatusKind string

const (
	TaskDone     TaskStatusKind = "done"
	TaskOverdue  TaskStatusKind = "overdue"
	TaskDueToday TaskStatusKind = "due_today"
	TaskUpcoming TaskStatusKind = "upcoming"
)

// TaskStatus is the derived label shown next to a task.
type TaskStatus struct {
	Kind  TaskStatusKind
	Label string
}

// DescribeTask derives the status of task on the given day. Completion wins
// over any date comparison.
func DescribeTask(task domain.ScheduledTask, today domain.Date) TaskStatus {
	switch {
	case task.IsComplete:
		return TaskStatus{Kind: TaskDone, Label: "Concluída"}
	case task.DueDate.Before(today):
		return TaskStatus{Kind: TaskOverdue, Label: "Atrasada"}
	case task.DueDate == today:
		return TaskStatus{Kind: TaskDueToday, Label: "Para hoje"}
	default:
		return TaskStatus{Kind: TaskUpcoming, Label: task.DueDate.Display()}
	}
}

// SortTasks returns a copy ordered with incomplete tasks first, then by due date.
func SortTasks(tasks []domain.ScheduledTask) []domain.ScheduledTask {
	out := append(make([]domain.ScheduledTask, 0, len(tasks)), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsComplete != out[j].IsComplete {
			return !out[i].IsComplete
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}
