package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vedran77/voiceapp/internal/client"
	"github.com/vedran77/voiceapp/internal/domain"
	"github.com/vedran77/voiceapp/internal/transport/ws"
)

func (c *cli) watchCmd() *cobra.Command {
	var interval time.Duration
	var push bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the feed, redrawing it when it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			app, err := c.resume(ctx, nil)
			if err != nil {
				return err
			}

			var (
				shown []domain.FeedVoice
				drawn bool
			)
			redraw := func() {
				feed := app.Feed()
				if drawn && sameFeed(shown, feed) {
					return
				}
				shown, drawn = feed, true
				fmt.Fprintf(c.out, "\n--- %s ---\n", time.Now().Format(time.Kitchen))
				printFeed(c.out, feed, nil)
			}
			redraw()

			poller := client.NewPoller(interval, func(ctx context.Context) error {
				if err := app.Refresh(ctx); err != nil {
					if errors.Is(err, client.ErrNotAuthenticated) {
						fmt.Fprintln(c.out, "Session expired, log in again.")
						cancel()
					}
					return err
				}
				redraw()
				return nil
			}, c.log)

			if push {
				watcher := client.NewWatcher(app.API(), func(evt ws.Event) {
					c.log.WithField("type", evt.Type).Debug("feed event")
					poller.Trigger()
				}, c.log)
				go watcher.Run(ctx)
			}

			poller.Run(ctx)
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", client.DefaultPollInterval, "polling interval")
	cmd.Flags().BoolVar(&push, "push", true, "refresh on server push events as well as polling")
	return cmd
}

// sameFeed compares what printFeed shows.
func sameFeed(a, b []domain.FeedVoice) bool {
	type row struct {
		id      uuid.UUID
		likes   int
		liked   bool
		replies int
	}
	rows := func(feed []domain.FeedVoice) []row {
		out := make([]row, len(feed))
		for i, v := range feed {
			out[i] = row{v.ID, v.Likes, v.LikedByUser, len(v.Replies)}
		}
		return out
	}
	return slices.Equal(rows(a), rows(b))
}
