package reconciler

import (
	"encoding/json"
	"fmt"

	"github.com/isdelr/eventhub-be/internal/models"
)

// Envelope is a websocket message as received, with the payload left raw
// until a consumer knows which shape to expect.
type Envelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Handler consumes feed messages.
type Handler interface {
	Apply(env Envelope) bool
}

// delta is a decoded attendance, event or deletion notification.
type delta struct {
	action  string
	eventID string
	joined  models.UserRef
	leftID  string
	event   models.Event
}

func decode(env Envelope) (delta, error) {
	d := delta{action: env.Action}
	switch env.Action {
	case models.ActionAttendeeJoined:
		var p models.AttendeeJoined
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return d, err
		}
		d.eventID, d.joined = p.EventID, p.User
	case models.ActionAttendeeLeft:
		var p models.AttendeeLeft
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return d, err
		}
		d.eventID, d.leftID = p.EventID, p.UserID
	case models.ActionEventCreated, models.ActionEventUpdated:
		if err := json.Unmarshal(env.Payload, &d.event); err != nil {
			return d, err
		}
		d.eventID = d.event.ID
	case models.ActionEventDeleted:
		var p models.EventDeleted
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return d, err
		}
		d.eventID = p.ID
	default:
		return d, fmt.Errorf("unhandled action %q", env.Action)
	}
	if d.eventID == "" {
		return d, fmt.Errorf("%s without event id", env.Action)
	}
	return d, nil
}
