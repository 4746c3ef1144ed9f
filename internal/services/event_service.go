package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/isdelr/eventhub-be/internal/store"
	"github.com/rs/zerolog/log"
)

// EventServiceProvider defines the interface for event management.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, organizer models.User, input EventInput) (models.Event, error)
	ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	GetEvent(ctx context.Context, id string) (models.Event, error)
	UpdateEvent(ctx context.Context, id string, user models.User, update models.EventUpdate) (models.Event, error)
	DeleteEvent(ctx context.Context, id string, user models.User) error
	ToggleAttendance(ctx context.Context, id string, user models.User) (models.AttendanceResult, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// EventInput defines the structure for event creation requests.
type EventInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"required,max=5000"`
	Location    string    `json:"location" validate:"required,max=200"`
	Category    string    `json:"category" validate:"required,max=100"`
	Date        time.Time `json:"date" validate:"required"`
	Image       string    `json:"image" validate:"omitempty,url"`
}

// EventOptions tunes event policy.
type EventOptions struct {
	Scope          string
	LockPastEvents bool
}

// EventService provides business logic for events and attendance.
type EventService struct {
	events store.EventStore
	notify notifier
	opts   EventOptions
	now    func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(events store.EventStore, hub Broadcaster, opts EventOptions) *EventService {
	return &EventService{
		events: events,
		notify: notifier{hub: hub, scope: opts.Scope},
		opts:   opts,
		now:    time.Now,
	}
}

// CreateEvent stores a new event owned by organizer. The attendee set starts empty.
func (s *EventService) CreateEvent(ctx context.Context, organizer models.User, input EventInput) (models.Event, error) {
	if organizer.ID == "" {
		return models.Event{}, ErrUnauthorized
	}
	if organizer.IsGuest {
		return models.Event{}, fmt.Errorf("%w: guests cannot create events", ErrForbidden)
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Category = strings.TrimSpace(input.Category)
	if err := validateStruct(input); err != nil {
		return models.Event{}, err
	}

	event := models.Event{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Category:    input.Category,
		Date:        input.Date.UTC(),
		Image:       input.Image,
		Organizer:   organizer.Ref(),
		Attendees:   []models.UserRef{},
		CreatedAt:   s.now().UTC(),
	}
	created, err := s.events.CreateEvent(ctx, event)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to create event: %w", err)
	}

	log.Info().Str("event_id", created.ID).Str("organizer_id", organizer.ID).Msg("Event created")
	s.notify.global(models.ActionEventCreated, created)
	return created, nil
}

// ListEvents returns events matching filter, newest date first.
func (s *EventService) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	return s.events.ListEvents(ctx, filter)
}

// GetEvent retrieves a single event.
func (s *EventService) GetEvent(ctx context.Context, id string) (models.Event, error) {
	return s.events.GetEventByID(ctx, id)
}

// authorize loads the event and checks that user organizes it.
func (s *EventService) authorize(ctx context.Context, id string, user models.User) (models.Event, error) {
	event, err := s.events.GetEventByID(ctx, id)
	if err != nil {
		return models.Event{}, err
	}
	if user.ID == "" || event.Organizer.ID != user.ID {
		return models.Event{}, fmt.Errorf("%w: only the organizer can modify this event", ErrUnauthorized)
	}
	return event, nil
}

// UpdateEvent applies update on behalf of the organizer. Attendees are preserved.
func (s *EventService) UpdateEvent(ctx context.Context, id string, user models.User, update models.EventUpdate) (models.Event, error) {
	if _, err := s.authorize(ctx, id, user); err != nil {
		return models.Event{}, err
	}
	if err := validateStruct(update); err != nil {
		return models.Event{}, err
	}

	updated, err := s.events.UpdateEvent(ctx, id, update)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to update event: %w", err)
	}

	log.Info().Str("event_id", id).Msg("Event updated")
	s.notify.global(models.ActionEventUpdated, updated)
	return updated, nil
}

// DeleteEvent removes an event on behalf of the organizer.
func (s *EventService) DeleteEvent(ctx context.Context, id string, user models.User) error {
	if _, err := s.authorize(ctx, id, user); err != nil {
		return err
	}
	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	log.Info().Str("event_id", id).Msg("Event deleted")
	s.notify.global(models.ActionEventDeleted, models.EventDeleted{ID: id})
	return nil
}

// ToggleAttendance adds the user to the event's attendees if absent and
// removes them otherwise, then notifies connected clients of the change.
func (s *EventService) ToggleAttendance(ctx context.Context, id string, user models.User) (models.AttendanceResult, error) {
	if user.ID == "" {
		return models.AttendanceResult{}, ErrUnauthorized
	}

	if s.opts.LockPastEvents {
		event, err := s.events.GetEventByID(ctx, id)
		if err != nil {
			return models.AttendanceResult{}, err
		}
		if event.HasPassed(s.now()) {
			return models.AttendanceResult{}, ErrEventClosed
		}
	}

	action, attendees, err := s.events.ToggleAttendee(ctx, id, user.ID)
	if err != nil {
		return models.AttendanceResult{}, err
	}
	if attendees == nil {
		attendees = []models.UserRef{}
	}

	switch action {
	case models.AttendanceJoined:
		s.notify.joined(id, user.Ref())
	case models.AttendanceLeft:
		s.notify.left(id, user.ID)
	}

	log.Debug().Str("event_id", id).Str("user_id", user.ID).Str("action", string(action)).Msg("Attendance toggled")
	return models.AttendanceResult{EventID: id, Action: action, Attendees: attendees}, nil
}

// ListCategories returns the distinct categories in use.
func (s *EventService) ListCategories(ctx context.Context) ([]string, error) {
	return s.events.ListCategories(ctx)
}
