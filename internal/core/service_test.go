package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelcare/internal/infra/document/memory"
	"hotelcare/pkg/domain"
)

func newTestService(opts ...Option) *Service {
	base := []Option{WithIDGenerator(seqIDs("id")), WithClock(stubClock{fixedNow})}
	opts = append(base, opts...)
	return NewService(NewSession(memory.NewStore(), opts...), opts...)
}

func TestServiceHotelWorkflow(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	h, err := svc.AddHotel(ctx, HotelInput{Name: "Hotel Palace", Address: "Av. Principal, 123"})
	require.NoError(t, err)
	hotels := svc.Hotels()
	require.Len(t, hotels, 1)
	assert.Equal(t, "Hotel Palace", hotels[0].Name)
	assert.Equal(t, "Av. Principal, 123", hotels[0].Address)
	assert.Empty(t, hotels[0].Apartments)

	a, err := svc.AddApartment(ctx, h.ID, ApartmentInput{Number: "204", Photos: []string{"p1"}})
	require.NoError(t, err)
	_, err = svc.AppendApartmentPhotos(ctx, h.ID, a.ID, []string{"p2", "p3"})
	require.NoError(t, err)
	it, err := svc.AddItem(ctx, h.ID, a.ID, ItemInput{Name: "Chuveiro"})
	require.NoError(t, err)
	_, err = svc.SetItemStatus(ctx, h.ID, a.ID, it.ID, domain.StatusNeedsRepair)
	require.NoError(t, err)
	_, err = svc.AddLog(ctx, h.ID, a.ID, LogInput{ItemID: it.ID, Notes: "Resistência queimada"})
	require.NoError(t, err)

	entries, err := svc.History(h.ID, a.ID, HistoryFilter{Status: domain.StatusNeedsRepair})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Chuveiro", entries[0].ItemLabel)

	apt, err := svc.Apartment(h.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, apt.Photos)

	_, err = svc.Hotel("missing")
	assert.True(t, IsNotFound(err))
}

func TestServiceValidationLeavesDataUnchanged(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	before := svc.Data()
	_, err := svc.AddTask(ctx, TaskInput{Title: "  ", DueDate: domain.NewDate(2024, 6, 12)})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, before, svc.Data())
}

func TestServiceTasksSortedWithStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(WithLocation(time.UTC))
	today := svc.Today()
	assert.Equal(t, domain.DateOf(fixedNow), today)

	done, err := svc.AddTask(ctx, TaskInput{Title: "feita", DueDate: today.AddDays(-2)})
	require.NoError(t, err)
	_, err = svc.ToggleTask(ctx, done.ID)
	require.NoError(t, err)
	_, err = svc.AddTask(ctx, TaskInput{Title: "amanhã", DueDate: today.AddDays(1), Priority: domain.PriorityLow})
	require.NoError(t, err)
	_, err = svc.AddTask(ctx, TaskInput{Title: "hoje", DueDate: today})
	require.NoError(t, err)

	tasks := svc.Tasks()
	require.Len(t, tasks, 3)
	assert.Equal(t, "hoje", tasks[0].Title)
	assert.Equal(t, "Para hoje", svc.TaskStatus(tasks[0]).Label)
	assert.Equal(t, "amanhã", tasks[1].Title)
	assert.Equal(t, TaskDone, svc.TaskStatus(tasks[2]).Kind)
}

func TestServiceConfirmedDeletes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	h, err := svc.AddHotel(ctx, HotelInput{Name: "Hotel Palace"})
	require.NoError(t, err)

	p, err := svc.RequestDeleteHotel(h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Excluir", p.ConfirmLabel)
	assert.Contains(t, p.Message, "Hotel Palace")
	assert.Len(t, svc.Hotels(), 1, "nothing happens before confirmation")

	svc.Confirmations().Cancel()
	assert.ErrorIs(t, svc.Confirmations().Confirm(ctx), ErrNoPendingConfirmation)
	assert.Len(t, svc.Hotels(), 1)

	_, err = svc.RequestDeleteHotel(h.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Confirmations().Confirm(ctx))
	assert.Empty(t, svc.Hotels())

	_, err = svc.RequestDeleteTask("nope")
	assert.True(t, IsNotFound(err))

	loggedOut := false
	lp := svc.RequestLogout(func(context.Context) error { loggedOut = true; return nil })
	assert.Equal(t, "Sair", lp.ConfirmLabel)
	require.NoError(t, svc.Confirmations().Confirm(ctx))
	assert.True(t, loggedOut)
}

func TestServiceObservability(t *testing.T) {
	ctx := context.Background()
	log := &captureLogger{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	svc := newTestService(WithLogger(log), WithMetricsRecorder(metrics), WithTracer(tracer))

	_, err := svc.AddHotel(ctx, HotelInput{Name: "Observado"})
	require.NoError(t, err)
	err = svc.DeleteHotel(ctx, "missing")
	require.Error(t, err)
	var nf NotFoundError
	require.True(t, errors.As(err, &nf))

	assert.True(t, metrics.has("hotel.add", true))
	assert.True(t, metrics.has("hotel.delete", false))
	assert.True(t, tracer.has("hotel.add", true))
	assert.True(t, tracer.has("hotel.delete", false))
	assert.True(t, log.has("d:operation applied"))
	assert.True(t, log.has("w:operation rejected"))
}

func TestNilOptionsKeepDefaults(t *testing.T) {
	o := applyOptions([]Option{nil, WithLogger(nil), WithClock(nil), WithMetricsRecorder(nil), WithTracer(nil), WithIDGenerator(nil), WithLocation(nil)})
	assert.IsType(t, noopLogger{}, o.logger)
	assert.IsType(t, noopMetrics{}, o.metrics)
	assert.IsType(t, noopTracer{}, o.tracer)
	assert.Equal(t, time.UTC, o.location)
	assert.NotEmpty(t, o.newID())
	assert.WithinDuration(t, time.Now(), o.clock.Now(), time.Minute)
}
