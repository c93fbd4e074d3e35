package ws

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Hub manages all active WebSocket clients and fans feed events out to them.
// A user may hold several connections; each is a separate client.
type Hub struct {
	clients map[*Client]struct{}
	log     logrus.FieldLogger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	stopped    chan struct{}
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		log:        log.WithField("module", "ws"),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		stopped:    make(chan struct{}),
	}
}

// Run owns the client set until ctx is done. Call this in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.log.WithField("user_id", client.userID).Debugf("client connected (%d total)", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.log.WithField("user_id", client.userID).Debugf("client disconnected (%d total)", len(h.clients))
			}

		case data := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Client buffer full - disconnect
					h.log.WithField("user_id", client.userID).Warn("dropping slow client")
					h.drop(client)
				}
			}
		}
	}
}

// join reports false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	close(client.done)
}

// Publish delivers an event to every connected client on this process.
func (h *Hub) Publish(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.WithError(err).Error("marshal event")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.WithField("type", event.Type).Warn("broadcast queue full, event dropped")
	}
}
