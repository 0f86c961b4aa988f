package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemStatusAcceptsValuesAndNames(t *testing.T) {
	cases := map[string]ItemStatus{
		"OK":            StatusOK,
		"Requer Reparo": StatusNeedsRepair,
		"danificado":    StatusDamaged,
		"NEEDS_REPAIR":  StatusNeedsRepair,
		"damaged":       StatusDamaged,
	}
	for raw, want := range cases {
		got, ok := ParseItemStatus(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := ParseItemStatus("broken")
	assert.False(t, ok)
}

func TestParseTaskPriority(t *testing.T) {
	p, ok := ParseTaskPriority("alta")
	require.True(t, ok)
	assert.Equal(t, PriorityHigh, p)
	p, ok = ParseTaskPriority("MEDIUM")
	require.True(t, ok)
	assert.Equal(t, PriorityMedium, p)
	_, ok = ParseTaskPriority("urgent")
	assert.False(t, ok)
}

func TestNewAppDataDefaults(t *testing.T) {
	d := NewAppData()
	assert.Equal(t, DefaultUserName, d.UserName)
	assert.NotNil(t, d.Hotels)
	assert.NotNil(t, d.ScheduledTasks)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"userName":"Usuário","hotels":[],"scheduledTasks":[]}`, string(raw))
}

func TestCloneDoesNotAlias(t *testing.T) {
	photo := "data:image/png;base64,AA=="
	d := AppData{
		UserName: "Ana",
		Hotels: []Hotel{{
			ID: "h1", Photo: &photo,
			Apartments: []Apartment{{
				ID: "a1", Photos: []string{"p"},
				Items:           []Item{{ID: "i1", Photos: []string{"x"}}},
				MaintenanceLogs: []MaintenanceLog{{ID: "l1", Photos: []string{"y"}}},
			}},
		}},
	}
	c := d.Clone()
	*c.Hotels[0].Photo = "changed"
	c.Hotels[0].Apartments[0].Photos[0] = "changed"
	c.Hotels[0].Apartments[0].Items[0].Photos[0] = "changed"
	c.Hotels[0].Apartments[0].MaintenanceLogs[0].Photos[0] = "changed"

	assert.Equal(t, photo, *d.Hotels[0].Photo)
	assert.Equal(t, "p", d.Hotels[0].Apartments[0].Photos[0])
	assert.Equal(t, "x", d.Hotels[0].Apartments[0].Items[0].Photos[0])
	assert.Equal(t, "y", d.Hotels[0].Apartments[0].MaintenanceLogs[0].Photos[0])
	assert.NotNil(t, c.ScheduledTasks)
}

func TestDateRoundTripAndOrdering(t *testing.T) {
	d, err := ParseDate("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, "09/03/2024", d.Display())

	raw, err := json.Marshal(ScheduledTask{DueDate: d})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"dueDate":"2024-03-09"`)

	var back ScheduledTask
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d, back.DueDate)

	assert.True(t, d.Before(NewDate(2024, time.March, 10)))
	assert.True(t, d.After(NewDate(2023, time.December, 31)))
	assert.Equal(t, 0, d.Compare(NewDate(2024, time.March, 9)))

	_, err = ParseDate("09/03/2024")
	assert.Error(t, err)
}

func TestTodayUsesLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, NewDate(2024, time.January, 1), Today(now, loc))
	assert.Equal(t, NewDate(2024, time.January, 2), Today(now, nil))
}

func TestNewIDIsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := NewID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
