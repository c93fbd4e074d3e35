package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vedran77/voiceapp/internal/transport/ws"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const maxWatchBackoff = 30 * time.Second

// Watcher subscribes to the server's feed events and calls onChange for
// each one that makes the feed stale.
type Watcher struct {
	api      *API
	onChange func(ws.Event)
	log      logrus.FieldLogger
}

func NewWatcher(api *API, onChange func(ws.Event), log logrus.FieldLogger) *Watcher {
	return &Watcher{api: api, onChange: onChange, log: log.WithField("module", "watch")}
}

// Run keeps a subscription open until ctx is done, reconnecting with
// backoff. Polling covers the gaps.
func (w *Watcher) Run(ctx context.Context) {
	backoff := time.Second
	for {
		err := w.Watch(ctx)
		if ctx.Err() != nil {
			return
		}
		w.log.WithError(err).WithField("retry_in", backoff.String()).Warn("event stream disconnected")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxWatchBackoff)
	}
}

// Watch holds one subscription until it fails or ctx is done.
func (w *Watcher) Watch(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, w.api.WebSocketURL(), nil)
	if err != nil {
		return fmt.Errorf("dialing event stream: %w", err)
	}
	defer conn.CloseNow()

	w.log.Debug("subscribed to feed events")
	for {
		var evt ws.Event
		if err := wsjson.Read(ctx, conn, &evt); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if evt.IsFeedChange() {
			w.onChange(evt)
		}
	}
}
