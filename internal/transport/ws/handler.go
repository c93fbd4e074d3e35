package ws

import (
	"net/http"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

// TokenVerifier resolves a bearer token to the user it was issued for.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
// An origin of "*" accepts any origin.
func ServeWS(hub *Hub, tokens TokenVerifier, origin string) http.HandlerFunc {
	opts := &websocket.AcceptOptions{}
	if origin == "*" {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = []string{origin}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := tokens.Verify(r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			hub.log.WithError(err).Warn("accept failed")
			return
		}

		client := NewClient(hub, conn, userID)
		if !hub.join(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		// The request context stays live while the handler blocks in ReadPump.
		ctx := r.Context()
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}
