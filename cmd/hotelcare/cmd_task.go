package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hotelcare/internal/core"
	"hotelcare/internal/notify"
	"hotelcare/pkg/domain"
)

func parseTaskInput(title, description, due, priority string) (core.TaskInput, error) {
	in := core.TaskInput{Title: title, Description: description}
	if due != "" {
		d, err := domain.ParseDate(due)
		if err != nil {
			return in, err
		}
		in.DueDate = d
	}
	if priority != "" {
		p, ok := domain.ParseTaskPriority(priority)
		if !ok {
			return in, fmt.Errorf("prioridade desconhecida %q", priority)
		}
		in.Priority = p
	}
	return in, nil
}

func (a *app) taskCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "Scheduled maintenance tasks"}

	var description, due, priority string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Schedule a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parseTaskInput(args[0], description, due, priority)
			if err != nil {
				return err
			}
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			if in.DueDate.IsZero() {
				in.DueDate = svc.Today()
			}
			t, err := svc.AddTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", t.ID, t.Title, svc.TaskStatus(t).Label)
			return a.synced()
		},
	}
	add.Flags().StringVar(&description, "description", "", "details")
	add.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD (default today)")
	add.Flags().StringVar(&priority, "priority", "", "high, medium or low")

	var newTitle, newDescription, newDue, newPriority string
	edit := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Edit a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			d := svc.Data()
			i := d.FindTask(args[0])
			if i < 0 {
				return core.NotFoundError{Entity: domain.EntityTask, ID: args[0]}
			}
			cur := d.ScheduledTasks[i]
			flags := cmd.Flags()
			title, desc := cur.Title, cur.Description
			if flags.Changed("title") {
				title = newTitle
			}
			if flags.Changed("description") {
				desc = newDescription
			}
			in, err := parseTaskInput(title, desc, newDue, newPriority)
			if err != nil {
				return err
			}
			if in.DueDate.IsZero() {
				in.DueDate = cur.DueDate
			}
			if in.Priority == "" {
				in.Priority = cur.Priority
			}
			if _, err := svc.UpdateTask(cmd.Context(), args[0], in); err != nil {
				return err
			}
			return a.synced()
		},
	}
	edit.Flags().StringVar(&newTitle, "title", "", "new title")
	edit.Flags().StringVar(&newDescription, "description", "", "new details")
	edit.Flags().StringVar(&newDue, "due", "", "new due date YYYY-MM-DD")
	edit.Flags().StringVar(&newPriority, "priority", "", "new priority")

	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks, pending first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			w := a.table()
			for _, t := range svc.Tasks() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Priority, svc.TaskStatus(t).Label)
			}
			return w.Flush()
		},
	}

	done := &cobra.Command{
		Use:   "done <task-id>",
		Short: "Toggle a task between pending and complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			t, err := svc.ToggleTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s\t%s\n", t.Title, svc.TaskStatus(t).Label)
			return a.synced()
		},
	}

	del := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			p, err := svc.RequestDeleteTask(args[0])
			if err != nil {
				return err
			}
			return a.confirm(cmd.Context(), svc, p)
		},
	}

	remind := &cobra.Command{
		Use:   "reminders",
		Short: "Show the reminders that would be scheduled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			w := a.table()
			for _, n := range notify.Plan(svc.Tasks(), time.Now(), a.loc) {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", n.ID, n.At.Format("02/01/2006 15:04"), n.Title, n.Body)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(add, edit, list, done, del, remind)
	return cmd
}
