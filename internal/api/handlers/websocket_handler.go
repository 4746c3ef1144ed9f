package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/isdelr/eventhub-be/internal/auth"
	"github.com/isdelr/eventhub-be/internal/models"
	ws "github.com/isdelr/eventhub-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles upgrading HTTP connections to WebSocket connections.
type WebSocketHandler struct {
	hub      *ws.Hub
	verifier auth.Verifier
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Connections are
// accepted from the given origins; an empty list accepts any origin.
func NewWebSocketHandler(hub *ws.Hub, verifier auth.Verifier, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{hub: hub, verifier: verifier}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// incoming is a client request. Room requests carry the event id as payload.
type incoming struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Serve handles the WebSocket connection request. A token is optional; when
// present it only tags the connection with the user's id.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	var userID string
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.TokenFromRequest(r)
	}
	if token != "" && h.verifier != nil {
		if user, err := h.verifier.Verify(r.Context(), token); err == nil {
			userID = user.ID
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleIncomingWSMessage)
}

// handleIncomingWSMessage processes messages received from a websocket client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg incoming
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Debug().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		h.hub.SendTo(client, ws.NewErrorMessage("Invalid message"))
		return
	}

	switch msg.Action {
	case models.ActionJoinEvent, models.ActionLeaveEvent:
		var eventID string
		if err := json.Unmarshal(msg.Payload, &eventID); err != nil || eventID == "" {
			h.hub.SendTo(client, ws.NewErrorMessage("Invalid payload for "+msg.Action))
			return
		}
		if msg.Action == models.ActionJoinEvent {
			h.hub.Join(client, eventID)
		} else {
			h.hub.Leave(client, eventID)
		}
		log.Debug().Str("user_id", client.UserID).Str("event_id", eventID).Str("action", msg.Action).Msg("Room subscription changed")

	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		h.hub.SendTo(client, ws.NewErrorMessage("Unknown action: "+msg.Action))
	}
}
