package reconciler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/rs/zerolog/log"
)

const feedWriteWait = 10 * time.Second

// Feed is a websocket subscription to the server's broadcasts. It does not
// reconnect: once the connection drops, views drift until the next load.
type Feed struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	handlersMu sync.RWMutex
	handlers   []Handler
}

// Dial connects to the websocket endpoint at url. token may be empty.
func Dial(ctx context.Context, url, token string) (*Feed, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return &Feed{conn: conn}, nil
}

// Subscribe registers h to receive every message from the feed.
func (f *Feed) Subscribe(h Handler) {
	f.handlersMu.Lock()
	defer f.handlersMu.Unlock()
	f.handlers = append(f.handlers, h)
}

// JoinRoom asks the server for the room-scoped notifications of an event.
func (f *Feed) JoinRoom(eventID string) error {
	return f.send(models.ActionJoinEvent, eventID)
}

// LeaveRoom undoes JoinRoom.
func (f *Feed) LeaveRoom(eventID string) error {
	return f.send(models.ActionLeaveEvent, eventID)
}

func (f *Feed) send(action, eventID string) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	f.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
	return f.conn.WriteJSON(map[string]string{"action": action, "payload": eventID})
}

// Run reads messages and dispatches them to the subscribed handlers until
// the connection closes or ctx is done. A normal close returns nil.
func (f *Feed) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { f.conn.Close() })
	defer stop()

	for {
		_, data, err := f.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Debug().Err(err).Msg("Undecodable feed message")
			continue
		}
		if env.Action == models.ActionError {
			log.Warn().RawJSON("payload", env.Payload).Msg("Server reported a websocket error")
			continue
		}
		f.dispatch(env)
	}
}

func (f *Feed) dispatch(env Envelope) {
	f.handlersMu.RLock()
	defer f.handlersMu.RUnlock()
	for _, h := range f.handlers {
		h.Apply(env)
	}
}

// Close sends a close frame and closes the connection.
func (f *Feed) Close() error {
	f.writeMu.Lock()
	f.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(feedWriteWait))
	f.writeMu.Unlock()
	return f.conn.Close()
}
