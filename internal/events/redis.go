// Package events fans feed events out across API processes over Redis
// pub/sub, so a websocket client sees changes made through any instance.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vedran77/voiceapp/internal/transport/ws"
)

const publishTimeout = 2 * time.Second

// Connect parses a redis:// URL and pings the server, retrying with backoff.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	const maxRetries = 5
	for i := 0; ; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return rdb, nil
		}
		if i == maxRetries-1 {
			rdb.Close()
			return nil, fmt.Errorf("connecting to redis after %d attempts: %w", maxRetries, err)
		}

		select {
		case <-ctx.Done():
			rdb.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(1<<i) * 100 * time.Millisecond):
		}
	}
}

// Broker publishes events to a Redis channel and relays everything received
// on that channel, including its own messages, to the local publisher.
type Broker struct {
	rdb     *redis.Client
	channel string
	local   ws.Publisher
	log     logrus.FieldLogger
}

func NewBroker(rdb *redis.Client, channel string, local ws.Publisher, log logrus.FieldLogger) *Broker {
	return &Broker{
		rdb:     rdb,
		channel: channel,
		local:   local,
		log:     log.WithField("module", "events"),
	}
}

// Publish implements ws.Publisher. If Redis is unreachable the event is still
// delivered to this process's clients.
func (b *Broker) Publish(event *ws.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.log.WithError(err).Error("marshal event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		b.log.WithError(err).WithField("type", event.Type).Warn("redis publish failed, delivering locally")
		b.local.Publish(event)
	}
}

// Run subscribes to the channel until ctx is done. Call this in a goroutine.
func (b *Broker) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription confirmation so no event published after
	// Run starts is missed.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", b.channel, err)
	}
	b.log.WithField("channel", b.channel).Info("subscribed to feed events")

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			event, err := decode(msg.Payload)
			if err != nil {
				b.log.WithError(err).Warn("discarding malformed event")
				continue
			}
			b.local.Publish(event)
		}
	}
}

func decode(payload string) (*ws.Event, error) {
	var event ws.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}
	if event.Type == "" {
		return nil, fmt.Errorf("event without type")
	}
	return &event, nil
}
