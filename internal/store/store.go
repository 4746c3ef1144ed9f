// Package store defines the persistence contracts for users and events.
// Implementations live in the sqlstore and mongostore subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/isdelr/eventhub-be/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListGuestsCreatedBefore(ctx context.Context, before time.Time) ([]models.User, error)
	// DeleteUser removes the user and their attendance. It returns the ids of
	// the events the user was attending.
	DeleteUser(ctx context.Context, id string) ([]string, error)
	CountUsers(ctx context.Context) (int, error)
}

// EventStore persists events and their attendee sets.
type EventStore interface {
	CreateEvent(ctx context.Context, event models.Event) (models.Event, error)
	ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	GetEventByID(ctx context.Context, id string) (models.Event, error)
	UpdateEvent(ctx context.Context, id string, update models.EventUpdate) (models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	// ToggleAttendee atomically flips the user's membership in the event's
	// attendee set and returns the action taken with the resulting set.
	ToggleAttendee(ctx context.Context, eventID, userID string) (models.AttendanceAction, []models.UserRef, error)
	ListCategories(ctx context.Context) ([]string, error)
	CountEvents(ctx context.Context) (int, error)
}

// Store is a complete backend.
type Store interface {
	UserStore
	EventStore
	Close() error
}
