package models

import "time"

// Event represents a scheduled gathering with an organizer and a set of attendees.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Image       string    `json:"image,omitempty"`
	Organizer   UserRef   `json:"organizer"`
	Attendees   []UserRef `json:"attendees"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasAttendee reports whether the user is currently in the attendee set.
func (e Event) HasAttendee(userID string) bool {
	for _, a := range e.Attendees {
		if a.ID == userID {
			return true
		}
	}
	return false
}

// HasPassed reports whether the event date is before now.
func (e Event) HasPassed(now time.Time) bool {
	return e.Date.Before(now)
}

// EventUpdate carries the organizer-editable fields. Nil fields are left untouched.
// Organizer and attendees cannot be changed through an update.
type EventUpdate struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,min=1,max=5000"`
	Location    *string    `json:"location,omitempty" validate:"omitempty,min=1,max=200"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Date        *time.Time `json:"date,omitempty"`
	Image       *string    `json:"image,omitempty" validate:"omitempty,url"`
}

// Apply copies the non-nil fields of u onto e.
func (u EventUpdate) Apply(e *Event) {
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Location != nil {
		e.Location = *u.Location
	}
	if u.Category != nil {
		e.Category = *u.Category
	}
	if u.Date != nil {
		e.Date = u.Date.UTC()
	}
	if u.Image != nil {
		e.Image = *u.Image
	}
}

// EventFilter narrows an event listing. Zero values mean no filtering.
type EventFilter struct {
	Category string
	Day      time.Time // any instant within the UTC calendar day to match
}

// DayBounds returns the [start, end) UTC range of the filter day.
func (f EventFilter) DayBounds() (time.Time, time.Time) {
	d := f.Day.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
