package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 64
)

// Client represents a single WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID

	send   chan []byte
	direct chan []byte
	done   chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufSize),
		direct: make(chan []byte, 8),
		done:   make(chan struct{}),
	}
}

// ReadPump reads messages from the WebSocket until it closes.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.leave(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	log := c.hub.log.WithField("user_id", c.userID)

	for {
		var event Event
		err := wsjson.Read(ctx, c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Debug("client closed connection")
			} else {
				log.WithError(err).Debug("read error")
			}
			return
		}

		c.handleEvent(&event)
	}
}

// WritePump writes messages from the send channel to the WebSocket.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	log := c.hub.log.WithField("user_id", c.userID)

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				log.WithError(err).Debug("write error")
				return
			}

		case message := <-c.direct:
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				log.WithError(err).Debug("write error")
				return
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				log.WithError(err).Debug("ping error")
				return
			}

		case <-c.done:
			return

		case <-ctx.Done():
			return
		}
	}
}

// handleEvent routes an incoming client event. The feed stream is
// server-to-client only, so the sole client request is a ping.
func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypePing:
		c.reply(&Event{Type: EventTypePong, Timestamp: time.Now().Unix()})

	default:
		evt, err := NewEvent(EventTypeError, nil, ErrorPayload{Code: "UNKNOWN_EVENT", Message: "unknown event type: " + event.Type})
		if err != nil {
			return
		}
		c.reply(evt)
	}
}

// reply queues a direct response. send belongs to the hub and may be closed
// at any time, so replies use their own channel.
func (c *Client) reply(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.direct <- data:
	default:
	}
}
