// Package reconciler keeps client-side copies of events in step with the
// server by applying the deltas pushed over the websocket feed.
package reconciler

import "github.com/isdelr/eventhub-be/internal/models"

// AttendeeList is an ordered set of attendees keyed by user id. Adding an
// existing attendee or removing a missing one is a no-op, so deltas can be
// replayed or delivered twice without corrupting the list.
type AttendeeList struct {
	items []models.UserRef
	index map[string]int
}

// NewAttendeeList builds a list from refs, keeping the first occurrence of
// every id.
func NewAttendeeList(refs []models.UserRef) *AttendeeList {
	l := &AttendeeList{index: make(map[string]int, len(refs))}
	for _, r := range refs {
		if l.Contains(r.ID) {
			continue
		}
		l.Upsert(r)
	}
	return l
}

// Upsert appends ref unless its id is already present, in which case only
// the display name is refreshed. It reports whether membership changed.
func (l *AttendeeList) Upsert(ref models.UserRef) bool {
	if ref.ID == "" {
		return false
	}
	if i, ok := l.index[ref.ID]; ok {
		if ref.Name != "" {
			l.items[i].Name = ref.Name
		}
		return false
	}
	l.index[ref.ID] = len(l.items)
	l.items = append(l.items, ref)
	return true
}

// Remove drops the attendee with the given id. It reports whether
// membership changed.
func (l *AttendeeList) Remove(id string) bool {
	i, ok := l.index[id]
	if !ok {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	delete(l.index, id)
	for j := i; j < len(l.items); j++ {
		l.index[l.items[j].ID] = j
	}
	return true
}

// Contains reports whether id is an attendee.
func (l *AttendeeList) Contains(id string) bool {
	_, ok := l.index[id]
	return ok
}

// Len returns the number of attendees.
func (l *AttendeeList) Len() int {
	return len(l.items)
}

// Items returns a copy of the attendees in insertion order.
func (l *AttendeeList) Items() []models.UserRef {
	out := make([]models.UserRef, len(l.items))
	copy(out, l.items)
	return out
}
