package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelcare/pkg/domain"
)

// seedTree builds hotel -> apartment -> item through the handlers.
func seedTree(t *testing.T, m Mutations) (domain.AppData, domain.Hotel, domain.Apartment, domain.Item) {
	t.Helper()
	d, h, err := m.AddHotel(domain.NewAppData(), HotelInput{Name: "Hotel Palace", Address: "Av. Principal, 123"})
	require.NoError(t, err)
	d, a, err := m.AddApartment(d, h.ID, ApartmentInput{Number: "101"})
	require.NoError(t, err)
	d, it, err := m.AddItem(d, h.ID, a.ID, ItemInput{Name: "Ar-condicionado"})
	require.NoError(t, err)
	return d, h, a, it
}

func TestAddHotel(t *testing.T) {
	m := testMutations()
	before := domain.NewAppData()
	after, h, err := m.AddHotel(before, HotelInput{Name: " Hotel Palace ", Address: "Av. Principal, 123"})
	require.NoError(t, err)
	assert.Empty(t, before.Hotels, "input is not modified")
	require.Len(t, after.Hotels, 1)
	assert.Equal(t, "Hotel Palace", h.Name)
	assert.Equal(t, "Av. Principal, 123", h.Address)
	assert.Nil(t, h.Photo)
	assert.Equal(t, []domain.Apartment{}, h.Apartments)
	assert.Equal(t, h, after.Hotels[0])
}

func TestAddHotelRejectsBlankName(t *testing.T) {
	m := testMutations()
	before := domain.NewAppData()
	after, _, err := m.AddHotel(before, HotelInput{Name: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Name", verr.Field)
	assert.Equal(t, before, after)
}

func TestUpdateHotelIsIdempotent(t *testing.T) {
	m := testMutations()
	d, h, _, _ := seedTree(t, m)
	in := HotelInput{Name: "Palace II", Address: "Rua B", Photo: "data:image/png;base64,AA=="}
	once, _, err := m.UpdateHotel(d, h.ID, in)
	require.NoError(t, err)
	twice, _, err := m.UpdateHotel(once, h.ID, in)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Len(t, twice.Hotels[0].Apartments, 1, "apartments survive an update")
	require.NotNil(t, twice.Hotels[0].Photo)
}

func TestDeleteHotelCascades(t *testing.T) {
	m := testMutations()
	d, h, a, it := seedTree(t, m)
	d, _, err := m.AddLog(d, h.ID, a.ID, LogInput{ItemID: it.ID, Notes: "Filtro trocado"})
	require.NoError(t, err)
	after, err := m.DeleteHotel(d, h.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Hotels)
	assert.Len(t, d.Hotels, 1, "input is not modified")

	_, err = m.DeleteHotel(after, h.ID)
	assert.True(t, IsNotFound(err))
}

func TestDeleteApartmentCascades(t *testing.T) {
	m := testMutations()
	d, h, a, _ := seedTree(t, m)
	after, err := m.DeleteApartment(d, h.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Hotels[0].Apartments)
}

func TestDeleteItemKeepsOrphanLogs(t *testing.T) {
	m := testMutations()
	d, h, a, it := seedTree(t, m)
	d, entry, err := m.AddLog(d, h.ID, a.ID, LogInput{ItemID: it.ID, Notes: "Vazamento"})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, entry.Date)

	after, err := m.DeleteItem(d, h.ID, a.ID, it.ID)
	require.NoError(t, err)
	apt := after.Hotels[0].Apartments[0]
	assert.Empty(t, apt.Items)
	require.Len(t, apt.MaintenanceLogs, 1)
	assert.Equal(t, it.ID, apt.MaintenanceLogs[0].ItemID)
	assert.Equal(t, RemovedItemLabel, ItemLabel(apt, it.ID))
}

func TestAddLogNewestFirstAndRequiresItem(t *testing.T) {
	m := testMutations()
	d, h, a, it := seedTree(t, m)
	d, first, err := m.AddLog(d, h.ID, a.ID, LogInput{ItemID: it.ID, Notes: "um"})
	require.NoError(t, err)
	d, second, err := m.AddLog(d, h.ID, a.ID, LogInput{ItemID: it.ID, Notes: "dois"})
	require.NoError(t, err)
	logs := d.Hotels[0].Apartments[0].MaintenanceLogs
	require.Len(t, logs, 2)
	assert.Equal(t, second.ID, logs[0].ID)
	assert.Equal(t, first.ID, logs[1].ID)

	after, _, err := m.AddLog(d, h.ID, a.ID, LogInput{ItemID: "ghost", Notes: "x"})
	assert.True(t, IsNotFound(err))
	assert.Equal(t, d, after)

	_, _, err = m.AddLog(d, h.ID, a.ID, LogInput{ItemID: it.ID, Notes: " "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPhotoCap(t *testing.T) {
	m := testMutations()
	d, h, a, it := seedTree(t, m)
	seven := []string{"1", "2", "", "3", "4", "5", "6", "7"}

	d, apt, err := m.UpdateApartment(d, h.ID, a.ID, ApartmentInput{Number: "101", Photos: seven})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, apt.Photos)

	d, apt, err = m.AppendApartmentPhotos(d, h.ID, a.ID, []string{"8"})
	require.NoError(t, err)
	assert.Len(t, apt.Photos, domain.MaxPhotos)

	d, item, err := m.EditItem(d, h.ID, a.ID, it.ID, ItemInput{Name: "Ar", Photos: seven})
	require.NoError(t, err)
	assert.Len(t, item.Photos, domain.MaxPhotos)

	_, entry, err := m.AddLog(d, h.ID, a.ID, LogInput{ItemID: it.ID, Notes: "fotos", Photos: seven})
	require.NoError(t, err)
	assert.Len(t, entry.Photos, domain.MaxPhotos)

	assert.Equal(t, []string{"a", "b"}, MergePhotos([]string{"a"}, []string{"b"}))
}

func TestDeletePhotoByIndex(t *testing.T) {
	m := testMutations()
	d, h, a, it := seedTree(t, m)
	d, _, err := m.UpdateApartment(d, h.ID, a.ID, ApartmentInput{Number: "101", Photos: []string{"a", "b", "c"}})
	require.NoError(t, err)
	d, err = m.DeleteApartmentPhoto(d, h.ID, a.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, d.Hotels[0].Apartments[0].Photos)

	_, err = m.DeleteApartmentPhoto(d, h.ID, a.ID, 9)
	var nf NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, domain.EntityPhoto, nf.Entity)

	d, _, err = m.EditItem(d, h.ID, a.ID, it.ID, ItemInput{Name: "Ar", Photos: []string{"x"}})
	require.NoError(t, err)
	d, err = m.DeleteItemPhoto(d, h.ID, a.ID, it.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{}, d.Hotels[0].Apartments[0].Items[0].Photos)
}

func TestSetItemStatus(t *testing.T) {
	m := testMutations()
	d, h, a, it := seedTree(t, m)
	assert.Equal(t, domain.StatusOK, it.Status)
	d, got, err := m.SetItemStatus(d, h.ID, a.ID, it.ID, domain.StatusNeedsRepair)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNeedsRepair, got.Status)

	after, _, err := m.SetItemStatus(d, h.ID, a.ID, it.ID, "Quebrado")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, d, after)

	_, _, err = m.SetItemStatus(d, h.ID, "nope", it.ID, domain.StatusOK)
	var nf NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, domain.EntityApartment, nf.Entity)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("status: %w", err), ErrNotFound)
	assert.True(t, IsNotFound(err))
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestTaskLifecycle(t *testing.T) {
	m := testMutations()
	due := domain.NewDate(2024, time.June, 12)
	d, task, err := m.AddTask(domain.NewAppData(), TaskInput{Title: "Revisar elevador", DueDate: due})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.False(t, task.IsComplete)

	d, err = m.MarkNotificationSent(d, task.ID)
	require.NoError(t, err)
	assert.True(t, d.ScheduledTasks[0].NotificationSent)

	d, updated, err := m.UpdateTask(d, task.ID, TaskInput{Title: "Revisar elevador", DueDate: due, Priority: domain.PriorityHigh})
	require.NoError(t, err)
	assert.True(t, updated.NotificationSent, "same due date keeps the flag")

	d, updated, err = m.UpdateTask(d, task.ID, TaskInput{Title: "Revisar elevador", DueDate: due.AddDays(1)})
	require.NoError(t, err)
	assert.False(t, updated.NotificationSent, "a new due date re-arms the reminder")

	d, toggled, err := m.ToggleTask(d, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsComplete)

	replaced := toggled
	replaced.Title = "Trocar cabos"
	d, err = m.ReplaceTask(d, replaced)
	require.NoError(t, err)
	assert.Equal(t, "Trocar cabos", d.ScheduledTasks[0].Title)

	d, err = m.DeleteTask(d, task.ID)
	require.NoError(t, err)
	assert.Empty(t, d.ScheduledTasks)
	_, _, err = m.ToggleTask(d, task.ID)
	assert.True(t, IsNotFound(err))
}

func TestAddTaskWithEmptyTitleLeavesTreeUnchanged(t *testing.T) {
	m := testMutations()
	before, _, err := m.AddTask(domain.NewAppData(), TaskInput{Title: "ok", DueDate: domain.NewDate(2024, 1, 1)})
	require.NoError(t, err)
	after, _, err := m.AddTask(before, TaskInput{Title: "", DueDate: domain.NewDate(2024, 1, 2)})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, before, after)

	_, _, err = m.AddTask(before, TaskInput{Title: "sem data"})
	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "DueDate", verr.Field)

	_, _, err = m.AddTask(before, TaskInput{Title: "x", DueDate: domain.NewDate(2024, 1, 2), Priority: "urgente"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSetUserName(t *testing.T) {
	m := testMutations()
	d, err := m.SetUserName(domain.NewAppData(), " Carla ")
	require.NoError(t, err)
	assert.Equal(t, "Carla", d.UserName)
	d, err = m.SetUserName(d, "  ")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultUserName, d.UserName)
}
