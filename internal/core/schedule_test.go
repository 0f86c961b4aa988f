package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelcare/pkg/domain"
)

func TestDescribeTask(t *testing.T) {
	today := domain.NewDate(2024, time.June, 10)
	cases := []struct {
		name string
		task domain.ScheduledTask
		kind TaskStatusKind
		want string
	}{
		{"done wins over overdue", domain.ScheduledTask{DueDate: today.AddDays(-3), IsComplete: true}, TaskDone, "Concluída"},
		{"overdue", domain.ScheduledTask{DueDate: today.AddDays(-1)}, TaskOverdue, "Atrasada"},
		{"today", domain.ScheduledTask{DueDate: today}, TaskDueToday, "Para hoje"},
		{"upcoming", domain.ScheduledTask{DueDate: domain.NewDate(2024, time.July, 2)}, TaskUpcoming, "02/07/2024"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DescribeTask(tc.task, today)
			assert.Equal(t, tc.kind, got.Kind)
			assert.Equal(t, tc.want, got.Label)
		})
	}
}

func TestSortTasks(t *testing.T) {
	d := domain.NewDate(2024, 1, 10)
	tasks := []domain.ScheduledTask{
		{ID: "done-early", DueDate: d.AddDays(-5), IsComplete: true},
		{ID: "late", DueDate: d.AddDays(3)},
		{ID: "soon", DueDate: d},
		{ID: "soon-2", DueDate: d},
	}
	got := SortTasks(tasks)
	ids := make([]string, len(got))
	for i, task := range got {
		ids[i] = task.ID
	}
	assert.Equal(t, []string{"soon", "soon-2", "late", "done-early"}, ids)
	assert.Equal(t, "done-early", tasks[0].ID, "input order untouched")
}

func TestHistoryFilter(t *testing.T) {
	apt := domain.Apartment{
		Items: []domain.Item{
			{ID: "tv", Name: "TV", Status: domain.StatusDamaged},
			{ID: "ac", Name: "Ar", Status: domain.StatusOK},
		},
		MaintenanceLogs: []domain.MaintenanceLog{
			{ID: "l3", ItemID: "gone"},
			{ID: "l2", ItemID: "ac"},
			{ID: "l1", ItemID: "tv"},
		},
	}
	all := History(apt, HistoryFilter{})
	require.Len(t, all, 3)
	assert.Equal(t, "l3", all[0].Log.ID)
	assert.True(t, all[0].Orphaned)
	assert.Equal(t, RemovedItemLabel, all[0].ItemLabel)
	assert.Equal(t, "Ar", all[1].ItemLabel)

	damaged := History(apt, HistoryFilter{Status: domain.StatusDamaged})
	require.Len(t, damaged, 1)
	assert.Equal(t, "l1", damaged[0].Log.ID)

	assert.Empty(t, History(apt, HistoryFilter{Status: domain.StatusNeedsRepair}))
}

func TestConfirmations(t *testing.T) {
	var c Confirmations
	ctx := context.Background()
	assert.ErrorIs(t, c.Confirm(ctx), ErrNoPendingConfirmation)

	runs := 0
	c.Request(Pending{Title: "first", Action: func(context.Context) error { runs += 10; return nil }})
	c.Request(Pending{Title: "second", Action: func(context.Context) error { runs++; return nil }})
	p, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "second", p.Title, "a new request replaces the pending one")

	require.NoError(t, c.Confirm(ctx))
	assert.Equal(t, 1, runs)
	assert.ErrorIs(t, c.Confirm(ctx), ErrNoPendingConfirmation, "runs at most once")

	c.Request(Pending{Action: func(context.Context) error { runs++; return nil }})
	c.Cancel()
	_, ok = c.Current()
	assert.False(t, ok)
	assert.Equal(t, 1, runs)

	boom := errors.New("boom")
	c.Request(Pending{Action: func(context.Context) error { return boom }})
	assert.ErrorIs(t, c.Confirm(ctx), boom)
}
