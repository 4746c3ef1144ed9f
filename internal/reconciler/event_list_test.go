package reconciler

import (
	"testing"
	"time"

	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datedEvent(id, category string, date time.Time) models.Event {
	e := testEvent(id)
	e.Category = category
	e.Date = date
	e.CreatedAt = date.Add(-time.Hour)
	return e
}

func TestEventList_QueuesUntilLoaded(t *testing.T) {
	l := NewEventList()

	assert.True(t, l.Apply(joined(t, "e1", bob)))
	assert.True(t, l.Apply(envelope(t, models.ActionEventCreated, testEvent("e2"))))
	_, ok := l.Get("e1")
	assert.False(t, ok)

	l.Load([]models.Event{testEvent("e1")})

	e1, ok := l.Get("e1")
	require.True(t, ok)
	assert.Equal(t, []models.UserRef{bob}, e1.Attendees)
	_, ok = l.Get("e2")
	assert.True(t, ok)
}

func TestEventList_Lifecycle(t *testing.T) {
	l := NewEventList()
	l.Load(nil)

	created := testEvent("e1")
	assert.True(t, l.Apply(envelope(t, models.ActionEventCreated, created)))
	assert.False(t, l.Apply(envelope(t, models.ActionEventCreated, created)))

	assert.True(t, l.Apply(joined(t, "e1", bob)))
	assert.False(t, l.Apply(joined(t, "e1", bob)))

	updated := testEvent("e1")
	updated.Title = "Renamed"
	assert.True(t, l.Apply(envelope(t, models.ActionEventUpdated, updated)))

	got, ok := l.Get("e1")
	require.True(t, ok)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, []models.UserRef{bob}, got.Attendees)

	assert.True(t, l.Apply(left(t, "e1", bob.ID)))
	got, _ = l.Get("e1")
	assert.Empty(t, got.Attendees)

	assert.True(t, l.Apply(envelope(t, models.ActionEventDeleted, models.EventDeleted{ID: "e1"})))
	assert.False(t, l.Apply(envelope(t, models.ActionEventDeleted, models.EventDeleted{ID: "e1"})))
	_, ok = l.Get("e1")
	assert.False(t, ok)
}

func TestEventList_AttendanceForUnknownEvent(t *testing.T) {
	l := NewEventList()
	l.Load(nil)

	assert.False(t, l.Apply(joined(t, "ghost", bob)))
	assert.False(t, l.Apply(left(t, "ghost", bob.ID)))
	assert.Empty(t, l.Events(models.EventFilter{}))
}

func TestEventList_EventsFilterAndOrder(t *testing.T) {
	day := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	l := NewEventList()
	l.Load([]models.Event{
		datedEvent("early", "tech", day.Add(9*time.Hour)),
		datedEvent("late", "tech", day.Add(20*time.Hour)),
		datedEvent("music", "music", day.Add(12*time.Hour)),
		datedEvent("tomorrow", "tech", day.Add(24*time.Hour)),
	})

	ids := func(events []models.Event) []string {
		out := make([]string, 0, len(events))
		for _, e := range events {
			out = append(out, e.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter models.EventFilter
		want   []string
	}{
		{"all", models.EventFilter{}, []string{"tomorrow", "late", "music", "early"}},
		{"category", models.EventFilter{Category: "tech"}, []string{"tomorrow", "late", "early"}},
		{"day", models.EventFilter{Day: day.Add(15 * time.Hour)}, []string{"late", "music", "early"}},
		{"category and day", models.EventFilter{Category: "music", Day: day}, []string{"music"}},
		{"no match", models.EventFilter{Category: "sports"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(l.Events(tt.filter)))
		})
	}

	assert.Equal(t, []string{"music", "tech"}, l.Categories())
}
