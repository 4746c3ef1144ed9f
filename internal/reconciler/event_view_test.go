package reconciler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ann = models.UserRef{ID: "u-ann", Name: "Ann"}
	bob = models.UserRef{ID: "u-bob", Name: "Bob"}
)

func envelope(t *testing.T, action string, payload interface{}) Envelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return Envelope{Action: action, Payload: raw}
}

func joined(t *testing.T, eventID string, user models.UserRef) Envelope {
	return envelope(t, models.ActionAttendeeJoined, models.AttendeeJoined{EventID: eventID, User: user})
}

func left(t *testing.T, eventID, userID string) Envelope {
	return envelope(t, models.ActionAttendeeLeft, models.AttendeeLeft{EventID: eventID, UserID: userID})
}

func testEvent(id string, attendees ...models.UserRef) models.Event {
	if attendees == nil {
		attendees = []models.UserRef{}
	}
	return models.Event{
		ID:        id,
		Title:     "Meetup",
		Category:  "tech",
		Date:      time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC),
		Organizer: ann,
		Attendees: attendees,
	}
}

func loadedView(t *testing.T, attendees ...models.UserRef) *EventView {
	t.Helper()
	v := NewEventView("e1")
	v.Load(testEvent("e1", attendees...))
	return v
}

func TestEventView_StartsLoading(t *testing.T) {
	v := NewEventView("e1")

	snap := v.Snapshot()
	assert.Equal(t, StateLoading, snap.State)
	assert.Equal(t, "loading", snap.State.String())
	assert.Equal(t, "e1", v.ID())
}

func TestEventView_JoinedIsIdempotent(t *testing.T) {
	v := loadedView(t)

	assert.True(t, v.Apply(joined(t, "e1", bob)))
	assert.True(t, v.Apply(joined(t, "e1", bob)))

	assert.Equal(t, []models.UserRef{bob}, v.Snapshot().Event.Attendees)
}

func TestEventView_Left(t *testing.T) {
	v := loadedView(t, ann, bob)

	v.Apply(left(t, "e1", ann.ID))
	v.Apply(left(t, "e1", ann.ID))

	assert.Equal(t, []models.UserRef{bob}, v.Snapshot().Event.Attendees)
}

func TestEventView_IgnoresOtherEvents(t *testing.T) {
	v := loadedView(t)

	assert.False(t, v.Apply(joined(t, "e2", bob)))
	assert.False(t, v.Apply(envelope(t, models.ActionEventCreated, testEvent("e1"))))
	assert.False(t, v.Apply(Envelope{Action: "something_else", Payload: json.RawMessage(`{}`)}))
	assert.False(t, v.Apply(Envelope{Action: models.ActionAttendeeJoined, Payload: json.RawMessage(`not json`)}))

	assert.Empty(t, v.Snapshot().Event.Attendees)
}

func TestEventView_QueuesWhileLoading(t *testing.T) {
	v := NewEventView("e1")

	assert.True(t, v.Apply(joined(t, "e1", bob)))
	assert.True(t, v.Apply(left(t, "e1", ann.ID)))
	assert.Empty(t, v.Snapshot().Event.Attendees)

	v.Load(testEvent("e1", ann))

	snap := v.Snapshot()
	assert.Equal(t, StateLoaded, snap.State)
	assert.Equal(t, []models.UserRef{bob}, snap.Event.Attendees)
}

func TestEventView_LoadIgnoresOtherEvent(t *testing.T) {
	v := NewEventView("e1")

	v.Load(testEvent("e2", bob))

	assert.Equal(t, StateLoading, v.Snapshot().State)
}

func TestEventView_UpdateKeepsAttendees(t *testing.T) {
	v := loadedView(t, bob)

	updated := testEvent("e1")
	updated.Title = "Renamed"
	v.Apply(envelope(t, models.ActionEventUpdated, updated))

	snap := v.Snapshot()
	assert.Equal(t, "Renamed", snap.Event.Title)
	assert.Equal(t, []models.UserRef{bob}, snap.Event.Attendees)
}

func TestEventView_Deleted(t *testing.T) {
	v := loadedView(t)

	assert.True(t, v.Apply(envelope(t, models.ActionEventDeleted, models.EventDeleted{ID: "e1"})))

	assert.True(t, v.Snapshot().Deleted)
}

func TestEventView_OptimisticToggleAndEcho(t *testing.T) {
	v := loadedView(t, ann)

	assert.Equal(t, models.AttendanceJoined, v.Optimistic(bob))
	assert.Equal(t, []models.UserRef{ann, bob}, v.Snapshot().Event.Attendees)

	// A stale broadcast about bob while the request is in flight is ignored.
	v.Apply(left(t, "e1", bob.ID))
	assert.Equal(t, []models.UserRef{ann, bob}, v.Snapshot().Event.Attendees)

	v.ApplyLocal(bob, models.AttendanceResult{EventID: "e1", Action: models.AttendanceJoined})
	v.Apply(joined(t, "e1", bob))

	assert.Equal(t, []models.UserRef{ann, bob}, v.Snapshot().Event.Attendees)
}

func TestEventView_ApplyLocalFollowsServer(t *testing.T) {
	v := loadedView(t)

	v.Optimistic(bob)
	// Someone else's toggle landed first, so the server reports a leave.
	v.ApplyLocal(bob, models.AttendanceResult{EventID: "e1", Action: models.AttendanceLeft})

	assert.Empty(t, v.Snapshot().Event.Attendees)
}

func TestEventView_Rollback(t *testing.T) {
	v := loadedView(t, bob)

	assert.Equal(t, models.AttendanceLeft, v.Optimistic(bob))
	assert.Empty(t, v.Snapshot().Event.Attendees)

	v.Rollback(bob)
	assert.Equal(t, []models.UserRef{bob}, v.Snapshot().Event.Attendees)

	// Nothing pending; a second rollback changes nothing.
	v.Rollback(bob)
	assert.Equal(t, []models.UserRef{bob}, v.Snapshot().Event.Attendees)

	// Deltas about bob apply again once settled.
	v.Apply(left(t, "e1", bob.ID))
	assert.Empty(t, v.Snapshot().Event.Attendees)
}

func TestEventView_Observe(t *testing.T) {
	v := NewEventView("e1")
	stream := v.Observe()

	first := stream.Value().(Snapshot)
	assert.Equal(t, StateLoading, first.State)

	v.Load(testEvent("e1"))
	v.Apply(joined(t, "e1", bob))

	select {
	case <-stream.Changes():
	case <-time.After(time.Second):
		t.Fatal("no change published")
	}
	loaded := stream.Next().(Snapshot)
	assert.Equal(t, StateLoaded, loaded.State)
	assert.Empty(t, loaded.Event.Attendees)

	<-stream.Changes()
	latest := stream.Next().(Snapshot)
	assert.Equal(t, []models.UserRef{bob}, latest.Event.Attendees)
	assert.False(t, stream.HasNext())
}

func TestEventView_ReloadKeepsPendingToggle(t *testing.T) {
	v := loadedView(t, ann)

	v.Optimistic(bob)
	v.Load(testEvent("e1", ann))
	assert.Equal(t, []models.UserRef{ann, bob}, v.Snapshot().Event.Attendees)

	v.Optimistic(ann)
	v.Load(testEvent("e1", ann))
	assert.Equal(t, []models.UserRef{bob}, v.Snapshot().Event.Attendees)

	v.Rollback(bob)
	v.ApplyLocal(ann, models.AttendanceResult{EventID: "e1", Action: models.AttendanceLeft})
	v.Load(testEvent("e1", ann))
	assert.Equal(t, []models.UserRef{ann}, v.Snapshot().Event.Attendees)
}
