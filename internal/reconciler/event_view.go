package reconciler

import (
	"sync"

	"github.com/imkira/go-observer"
	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/rs/zerolog/log"
)

// State is the lifecycle state of an EventView.
type State int

const (
	StateLoading State = iota
	StateLoaded
)

func (s State) String() string {
	if s == StateLoaded {
		return "loaded"
	}
	return "loading"
}

// pendingToggle is an optimistic toggle awaiting the server's answer.
type pendingToggle struct {
	user   models.UserRef
	action models.AttendanceAction
}

// Snapshot is an immutable copy of an EventView.
type Snapshot struct {
	State   State
	Event   models.Event
	Deleted bool
}

// EventView is the cached state of a single event page. Deltas received
// before the initial load are queued and replayed once the event arrives.
type EventView struct {
	mu        sync.Mutex
	id        string
	state     State
	event     models.Event
	attendees *AttendeeList
	deleted   bool
	queue     []delta
	pending   map[string]pendingToggle
	prop      observer.Property
}

// NewEventView creates a view for the event with the given id in the
// Loading state.
func NewEventView(id string) *EventView {
	v := &EventView{
		id:        id,
		state:     StateLoading,
		event:     models.Event{ID: id},
		attendees: NewAttendeeList(nil),
		pending:   make(map[string]pendingToggle),
	}
	v.prop = observer.NewProperty(v.snapshotLocked())
	return v
}

// ID returns the id of the viewed event.
func (v *EventView) ID() string {
	return v.id
}

// Load installs a freshly fetched copy of the event and replays any deltas
// queued while loading. Loading again replaces the cached copy, except for
// toggles still in flight, which stay applied on top of it.
func (v *EventView) Load(event models.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if event.ID != v.id {
		log.Warn().Str("view", v.id).Str("event_id", event.ID).Msg("Ignoring load for another event")
		return
	}
	v.event = event
	v.attendees = NewAttendeeList(event.Attendees)
	for _, p := range v.pending {
		v.applyToggle(p.user, p.action)
	}
	v.state = StateLoaded
	v.deleted = false

	queued := v.queue
	v.queue = nil
	for _, d := range queued {
		v.applyLocked(d)
	}
	v.publishLocked()
}

// Apply merges a feed message into the view. It reports whether the message
// concerned this event.
func (v *EventView) Apply(env Envelope) bool {
	d, err := decode(env)
	if err != nil {
		log.Debug().Err(err).Str("action", env.Action).Msg("Skipping feed message")
		return false
	}
	if d.eventID != v.id || d.action == models.ActionEventCreated {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateLoading {
		v.queue = append(v.queue, d)
		return true
	}
	if v.applyLocked(d) {
		v.publishLocked()
	}
	return true
}

// Optimistic flips self's membership locally ahead of the server call and
// returns the action it assumed. Feed deltas about self are ignored until
// ApplyLocal or Rollback settles the toggle.
func (v *EventView) Optimistic(self models.UserRef) models.AttendanceAction {
	v.mu.Lock()
	defer v.mu.Unlock()

	action := models.AttendanceJoined
	if v.attendees.Contains(self.ID) {
		action = models.AttendanceLeft
	}
	v.applyToggle(self, action)
	v.pending[self.ID] = pendingToggle{user: self, action: action}
	v.publishLocked()
	return action
}

// ApplyLocal applies the result of self's own toggle. The broadcast echo of
// the same toggle is then a no-op.
func (v *EventView) ApplyLocal(self models.UserRef, result models.AttendanceResult) {
	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.pending, self.ID)
	v.applyToggle(self, result.Action)
	v.publishLocked()
}

// Rollback reverts an optimistic toggle whose request failed.
func (v *EventView) Rollback(self models.UserRef) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p, ok := v.pending[self.ID]
	if !ok {
		return
	}
	delete(v.pending, self.ID)
	if p.action == models.AttendanceJoined {
		v.attendees.Remove(self.ID)
	} else {
		v.attendees.Upsert(self)
	}
	v.publishLocked()
}

// Snapshot returns the current state of the view.
func (v *EventView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Observe returns a stream of snapshots, starting with the current one.
func (v *EventView) Observe() observer.Stream {
	return v.prop.Observe()
}

func (v *EventView) applyToggle(user models.UserRef, action models.AttendanceAction) {
	switch action {
	case models.AttendanceJoined:
		v.attendees.Upsert(user)
	case models.AttendanceLeft:
		v.attendees.Remove(user.ID)
	}
}

func (v *EventView) applyLocked(d delta) bool {
	switch d.action {
	case models.ActionAttendeeJoined:
		if _, busy := v.pending[d.joined.ID]; busy {
			return false
		}
		return v.attendees.Upsert(d.joined)
	case models.ActionAttendeeLeft:
		if _, busy := v.pending[d.leftID]; busy {
			return false
		}
		return v.attendees.Remove(d.leftID)
	case models.ActionEventUpdated:
		// Attendance only moves through attendee deltas.
		updated := d.event
		updated.Attendees = nil
		v.event = updated
		return true
	case models.ActionEventDeleted:
		v.deleted = true
		return true
	}
	return false
}

func (v *EventView) snapshotLocked() Snapshot {
	e := v.event
	e.Attendees = v.attendees.Items()
	return Snapshot{State: v.state, Event: e, Deleted: v.deleted}
}

func (v *EventView) publishLocked() {
	v.prop.Update(v.snapshotLocked())
}
