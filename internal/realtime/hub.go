package realtime

import (
	"context"
	"encoding/json"
	"log"

	"neontune/internal/session"
)

// message is a raw event with the session it belongs to.
type message struct {
	sessionID string
	data      []byte
}

// Hub owns the set of connected clients and routes each event to the
// clients of its session. Only the Run goroutine touches the client set.
// done is closed when Run returns; sends into the hub give up on it.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is done, then closes every client. It must
// be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.sessionID != msg.sessionID {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer.
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	_ = client.conn.Close()
}

// Dispatch routes a raw JSON event by its payload.sessionId. Events without
// one are discarded.
func (h *Hub) Dispatch(data []byte) {
	var env struct {
		Payload struct {
			SessionID string `json:"sessionId"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil || env.Payload.SessionID == "" {
		log.Printf("realtime: dropping event without session: %s", data)
		return
	}
	select {
	case h.broadcast <- message{sessionID: env.Payload.SessionID, data: data}:
	case <-h.done:
	}
}

// Publish lets sessions push straight into the hub when Redis is not
// configured.
func (h *Hub) Publish(ctx context.Context, ev session.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("realtime: marshal event: %v", err)
		return
	}
	select {
	case h.broadcast <- message{sessionID: ev.Payload.SessionID, data: data}:
	case <-ctx.Done():
	case <-h.done:
	}
}
