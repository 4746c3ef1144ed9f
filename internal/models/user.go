package models

import "time"

// User represents a user account in the system.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash,omitempty"` // Never expose this to the client
	IsGuest      bool      `json:"isGuest" bson:"is_guest"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

// Ref returns the canonical reference used for organizers and attendees.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name}
}

// UserRef is the single shape in which a user appears inside an event,
// whether as organizer or attendee.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
