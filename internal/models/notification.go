package models

// Broadcast actions pushed over the websocket.
const (
	ActionAttendeeJoined = "attendee_joined"
	ActionAttendeeLeft   = "attendee_left"
	ActionEventCreated   = "event_created"
	ActionEventUpdated   = "event_updated"
	ActionEventDeleted   = "event_deleted"
	ActionError          = "error"
)

// Client requests received over the websocket.
const (
	ActionJoinEvent  = "join_event"
	ActionLeaveEvent = "leave_event"
)

// AttendeeJoined is the payload of an attendee_joined broadcast.
type AttendeeJoined struct {
	EventID string  `json:"eventId"`
	User    UserRef `json:"user"`
}

// AttendeeLeft is the payload of an attendee_left broadcast.
type AttendeeLeft struct {
	EventID string `json:"eventId"`
	UserID  string `json:"userId"`
}

// EventDeleted is the payload of an event_deleted broadcast.
type EventDeleted struct {
	ID string `json:"id"`
}
