package websocket

import "github.com/isdelr/eventhub-be/internal/models"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewErrorMessage builds the message sent back to a client whose request failed.
func NewErrorMessage(msg string) Message {
	return Message{Action: models.ActionError, Payload: map[string]string{"message": msg}}
}
