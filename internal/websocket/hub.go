package websocket

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

const broadcastQueueSize = 256

// outbound is a message queued for delivery. An empty room with a nil
// client means every connected client.
type outbound struct {
	room   string
	client *Client
	data   []byte
}

type subscription struct {
	client *Client
	room   string
	join   bool
}

// Hub maintains the set of active clients and broadcasts messages to them.
// All client maps and every write to a client's Send channel belong to the
// Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// A map of event IDs to the set of clients that joined that room.
	rooms map[string]map[*Client]bool

	outbound    chan outbound
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	done        chan struct{}
	stopped     chan struct{}
	stopOnce    sync.Once
	clientCount atomic.Int64
}

// NewHub creates a new Hub. Call Run to start it and Stop to tear it down.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		outbound:   make(chan outbound, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.clientCount.Store(int64(len(h.clients)))
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case sub := <-h.subscribe:
			if _, ok := h.clients[sub.client]; !ok {
				continue
			}
			if sub.join {
				h.addSubscription(sub.client, sub.room)
			} else {
				h.removeSubscription(sub.client, sub.room)
			}
		case msg := <-h.outbound:
			h.deliver(msg)
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			log.Info().Msg("Websocket hub stopped")
			return
		}
	}
}

// Stop closes every client connection and ends Run. It must only be called
// once Run has been started.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	<-h.stopped
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Join subscribes a client to the room of an event.
func (h *Hub) Join(client *Client, room string) {
	select {
	case h.subscribe <- subscription{client: client, room: room, join: true}:
	case <-h.done:
	}
}

// Leave unsubscribes a client from the room of an event.
func (h *Hub) Leave(client *Client, room string) {
	select {
	case h.subscribe <- subscription{client: client, room: room}:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// Broadcast queues a message for every connected client. It never blocks.
func (h *Hub) Broadcast(msg Message) {
	h.enqueue(outbound{}, msg)
}

// BroadcastTo queues a message for the clients that joined the given room.
func (h *Hub) BroadcastTo(room string, msg Message) {
	h.enqueue(outbound{room: room}, msg)
}

// SendTo queues a message for a single client.
func (h *Hub) SendTo(client *Client, msg Message) {
	h.enqueue(outbound{client: client}, msg)
}

func (h *Hub) enqueue(o outbound, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("action", msg.Action).Msg("Error marshalling websocket message")
		return
	}
	o.data = data

	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.outbound <- o:
	default:
		log.Warn().Str("action", msg.Action).Msg("Broadcast queue full, dropping message")
	}
}

func (h *Hub) deliver(msg outbound) {
	switch {
	case msg.client != nil:
		if _, ok := h.clients[msg.client]; ok {
			h.send(msg.client, msg.data)
		}
	case msg.room != "":
		for client := range h.rooms[msg.room] {
			h.send(client, msg.data)
		}
	default:
		for client := range h.clients {
			h.send(client, msg.data)
		}
	}
}

// send hands data to a client, dropping it if its buffer is full.
func (h *Hub) send(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		log.Debug().Str("user_id", client.UserID).Msg("Client send buffer full, dropping client")
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	for room := range h.rooms {
		h.removeSubscription(client, room)
	}
	h.clientCount.Store(int64(len(h.clients)))
}

func (h *Hub) addSubscription(client *Client, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
}

func (h *Hub) removeSubscription(client *Client, room string) {
	if subs, ok := h.rooms[room]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
}
