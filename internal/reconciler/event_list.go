package reconciler

import (
	"sort"
	"sync"

	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/rs/zerolog/log"
)

type listEntry struct {
	event     models.Event
	attendees *AttendeeList
}

// EventList is the cached dashboard: every known event with its attendees.
type EventList struct {
	mu     sync.RWMutex
	loaded bool
	queue  []delta
	events map[string]*listEntry
}

// NewEventList creates an empty, not yet loaded list.
func NewEventList() *EventList {
	return &EventList{events: make(map[string]*listEntry)}
}

// Load replaces the cache with a freshly fetched listing and replays the
// deltas received before it.
func (l *EventList) Load(events []models.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = make(map[string]*listEntry, len(events))
	for _, e := range events {
		l.put(e)
	}
	l.loaded = true

	queued := l.queue
	l.queue = nil
	for _, d := range queued {
		l.applyLocked(d)
	}
}

// Apply merges a feed message into the cache. It reports whether the
// message was relevant to the list.
func (l *EventList) Apply(env Envelope) bool {
	d, err := decode(env)
	if err != nil {
		log.Debug().Err(err).Str("action", env.Action).Msg("Skipping feed message")
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded {
		l.queue = append(l.queue, d)
		return true
	}
	return l.applyLocked(d)
}

func (l *EventList) put(e models.Event) {
	l.events[e.ID] = &listEntry{event: e, attendees: NewAttendeeList(e.Attendees)}
}

func (l *EventList) applyLocked(d delta) bool {
	entry, known := l.events[d.eventID]
	switch d.action {
	case models.ActionEventCreated:
		if known {
			return false
		}
		l.put(d.event)
		return true
	case models.ActionEventUpdated:
		if !known {
			l.put(d.event)
			return true
		}
		updated := d.event
		updated.Attendees = nil
		entry.event = updated
		return true
	case models.ActionEventDeleted:
		if !known {
			return false
		}
		delete(l.events, d.eventID)
		return true
	case models.ActionAttendeeJoined:
		return known && entry.attendees.Upsert(d.joined)
	case models.ActionAttendeeLeft:
		return known && entry.attendees.Remove(d.leftID)
	}
	return false
}

// Get returns a single cached event.
func (l *EventList) Get(id string) (models.Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.events[id]
	if !ok {
		return models.Event{}, false
	}
	return entry.snapshot(), true
}

// Events returns the cached events matching filter, newest date first.
func (l *EventList) Events(filter models.EventFilter) []models.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start, end := filter.DayBounds()
	out := make([]models.Event, 0, len(l.events))
	for _, entry := range l.events {
		e := entry.event
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if !filter.Day.IsZero() && (e.Date.Before(start) || !e.Date.Before(end)) {
			continue
		}
		out = append(out, entry.snapshot())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Categories returns the distinct categories of the cached events.
func (l *EventList) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, entry := range l.events {
		if c := entry.event.Category; c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

func (e *listEntry) snapshot() models.Event {
	out := e.event
	out.Attendees = e.attendees.Items()
	return out
}
