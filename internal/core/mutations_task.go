package core

import (
	"strings"

	"hotelcare/pkg/domain"
)

// TaskInput describes a scheduled task. Priority defaults to medium.
type TaskInput struct {
	Title       string `validate:"nonblank"`
	Description string
	DueDate     domain.Date
	Priority    domain.TaskPriority `validate:"omitempty,priority"`
}

func (in TaskInput) check() error {
	if err := checkInput(in); err != nil {
		return err
	}
	if in.DueDate.IsZero() {
		return ValidationError{Field: "DueDate", Rule: "required"}
	}
	return nil
}

func (in TaskInput) priority() domain.TaskPriority {
	if in.Priority == "" {
		return domain.PriorityMedium
	}
	return in.Priority
}

// AddTask appends an incomplete task.
func (m Mutations) AddTask(d domain.AppData, in TaskInput) (domain.AppData, domain.ScheduledTask, error) {
	if err := in.check(); err != nil {
		return d, domain.ScheduledTask{}, err
	}
	out := d.Clone()
	task := domain.ScheduledTask{
		ID:          m.id(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		Priority:    in.priority(),
	}
	out.ScheduledTasks = append(out.ScheduledTasks, task)
	return out, task, nil
}

// UpdateTask replaces the editable fields of a task. Completion and
// notification flags are kept; use ToggleTask to change completion.
func (m Mutations) UpdateTask(d domain.AppData, taskID string, in TaskInput) (domain.AppData, domain.ScheduledTask, error) {
	if err := in.check(); err != nil {
		return d, domain.ScheduledTask{}, err
	}
	i := d.FindTask(taskID)
	if i < 0 {
		return d, domain.ScheduledTask{}, NotFoundError{Entity: domain.EntityTask, ID: taskID}
	}
	out := d.Clone()
	task := &out.ScheduledTasks[i]
	if task.DueDate != in.DueDate {
		task.NotificationSent = false
	}
	task.Title = strings.TrimSpace(in.Title)
	task.Description = strings.TrimSpace(in.Description)
	task.DueDate = in.DueDate
	task.Priority = in.priority()
	return out, *task, nil
}

// ReplaceTask overwrites a task by id with the supplied value.
func (m Mutations) ReplaceTask(d domain.AppData, task domain.ScheduledTask) (domain.AppData, error) {
	in := TaskInput{Title: task.Title, Description: task.Description, DueDate: task.DueDate, Priority: task.Priority}
	if err := in.check(); err != nil {
		return d, err
	}
	i := d.FindTask(task.ID)
	if i < 0 {
		return d, NotFoundError{Entity: domain.EntityTask, ID: task.ID}
	}
	out := d.Clone()
	task.Priority = in.priority()
	out.ScheduledTasks[i] = task
	return out, nil
}

// ToggleTask flips the completion flag.
func (m Mutations) ToggleTask(d domain.AppData, taskID string) (domain.AppData, domain.ScheduledTask, error) {
	i := d.FindTask(taskID)
	if i < 0 {
		return d, domain.ScheduledTask{}, NotFoundError{Entity: domain.EntityTask, ID: taskID}
	}
	out := d.Clone()
	out.ScheduledTasks[i].IsComplete = !out.ScheduledTasks[i].IsComplete
	return out, out.ScheduledTasks[i], nil
}

// MarkNotificationSent records that a reminder was delivered for the task.
func (m Mutations) MarkNotificationSent(d domain.AppData, taskID string) (domain.AppData, error) {
	i := d.FindTask(taskID)
	if i < 0 {
		return d, NotFoundError{Entity: domain.EntityTask, ID: taskID}
	}
	out := d.Clone()
	out.ScheduledTasks[i].NotificationSent = true
	return out, nil
}

// DeleteTask removes a task.
func (m Mutations) DeleteTask(d domain.AppData, taskID string) (domain.AppData, error) {
	i := d.FindTask(taskID)
	if i < 0 {
		return d, NotFoundError{Entity: domain.EntityTask, ID: taskID}
	}
	out := d.Clone()
	out.ScheduledTasks = append(out.ScheduledTasks[:i], out.ScheduledTasks[i+1:]...)
	return out, nil
}

// SetUserName changes the display name. Blank names fall back to the default.
func (m Mutations) SetUserName(d domain.AppData, name string) (domain.AppData, error) {
	out := d.Clone()
	out.UserName = strings.TrimSpace(name)
	if out.UserName == "" {
		out.UserName = domain.DefaultUserName
	}
	return out, nil
}
