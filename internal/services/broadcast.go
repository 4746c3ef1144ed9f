package services

import (
	"github.com/isdelr/eventhub-be/internal/config"
	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/isdelr/eventhub-be/internal/websocket"
)

// Broadcaster pushes notifications to connected clients. websocket.Hub implements it.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
	BroadcastTo(room string, msg websocket.Message)
}

// notifier routes attendance notifications according to the configured scope.
type notifier struct {
	hub   Broadcaster
	scope string
}

func (n notifier) attendance(eventID string, msg websocket.Message) {
	if n.scope == config.ScopeRoom {
		n.hub.BroadcastTo(eventID, msg)
		return
	}
	n.hub.Broadcast(msg)
}

func (n notifier) joined(eventID string, user models.UserRef) {
	n.attendance(eventID, websocket.Message{
		Action:  models.ActionAttendeeJoined,
		Payload: models.AttendeeJoined{EventID: eventID, User: user},
	})
}

func (n notifier) left(eventID, userID string) {
	n.attendance(eventID, websocket.Message{
		Action:  models.ActionAttendeeLeft,
		Payload: models.AttendeeLeft{EventID: eventID, UserID: userID},
	})
}

func (n notifier) global(action string, payload interface{}) {
	n.hub.Broadcast(websocket.Message{Action: action, Payload: payload})
}
