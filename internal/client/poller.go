package client

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultPollInterval = 5 * time.Second

// Poller calls refresh on a fixed interval and whenever Trigger is called.
// Triggers that arrive while a refresh is pending collapse into one.
type Poller struct {
	interval time.Duration
	refresh  func(ctx context.Context) error
	trigger  chan struct{}
	log      logrus.FieldLogger
}

func NewPoller(interval time.Duration, refresh func(ctx context.Context) error, log logrus.FieldLogger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		interval: interval,
		refresh:  refresh,
		trigger:  make(chan struct{}, 1),
		log:      log.WithField("module", "poller"),
	}
}

// Trigger requests an immediate refresh without waiting for the next tick.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.trigger:
		}

		if err := p.refresh(ctx); err != nil && ctx.Err() == nil {
			p.log.WithError(err).Warn("feed refresh failed")
		}
	}
}
