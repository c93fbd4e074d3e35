package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vedran77/voiceapp/internal/client"
)

const (
	defaultRecorder = "arecord -q -f S16_LE -r 16000 -c 1 -t wav"
	defaultPlayer   = "ffplay -nodisp -autoexit -loglevel quiet -"
)

// recordFlags pick the audio source for post and reply.
type recordFlags struct {
	file     string
	recorder string
	duration time.Duration
}

func (f *recordFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "upload an existing audio file instead of recording")
	cmd.Flags().StringVar(&f.recorder, "recorder", defaultRecorder, "command that writes captured audio to stdout")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "stop recording after this long (default: wait for Enter)")
}

func (f *recordFlags) device() client.Device {
	fields := strings.Fields(f.recorder)
	if len(fields) == 0 {
		return nil
	}
	return client.CommandDevice{Name: fields[0], Args: fields[1:]}
}

// capture records one clip, stopping on Enter, after the duration, or when
// the command is interrupted.
func (c *cli) capture(ctx context.Context, f *recordFlags, start, stop func(context.Context) error) error {
	if err := start(ctx); err != nil {
		return err
	}

	if f.duration > 0 {
		fmt.Fprintf(c.out, "Recording for %s...\n", f.duration)
		select {
		case <-time.After(f.duration):
		case <-ctx.Done():
		}
	} else {
		fmt.Fprintln(c.out, "Recording... press Enter to stop")
		entered := make(chan struct{})
		go func() {
			_, _ = c.in.ReadString('\n')
			close(entered)
		}()
		select {
		case <-entered:
		case <-ctx.Done():
		}
	}

	// Upload even if interrupted; the clip so far is kept.
	return stop(context.WithoutCancel(ctx))
}

func (c *cli) postCmd() *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Record and post a voice message",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.resume(cmd.Context(), f.device())
			if err != nil {
				return err
			}
			if f.file != "" {
				data, err := os.ReadFile(f.file)
				if err != nil {
					return err
				}
				err = app.PostVoice(cmd.Context(), filepath.Base(f.file), data)
				if err != nil {
					return err
				}
			} else if err := c.capture(cmd.Context(), &f, app.StartRecording, app.StopRecording); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Posted")
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func (c *cli) replyCmd() *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "reply <voice-id>",
		Short: "Record and post a reply to a voice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voiceID, err := parseVoiceID(args[0])
			if err != nil {
				return err
			}
			app, err := c.resume(cmd.Context(), f.device())
			if err != nil {
				return err
			}
			if f.file != "" {
				data, err := os.ReadFile(f.file)
				if err != nil {
					return err
				}
				if err := app.Reply(cmd.Context(), voiceID, filepath.Base(f.file), data); err != nil {
					return err
				}
			} else {
				start := func(ctx context.Context) error { return app.StartReply(ctx, voiceID) }
				if err := c.capture(cmd.Context(), &f, start, app.StopReply); err != nil {
					return err
				}
			}
			fmt.Fprintln(c.out, "Replied")
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func (c *cli) likeCmd(like bool) *cobra.Command {
	use, short := "like", "Like a voice"
	if !like {
		use, short = "unlike", "Remove your like from a voice"
	}
	return &cobra.Command{
		Use:   use + " <voice-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voiceID, err := parseVoiceID(args[0])
			if err != nil {
				return err
			}
			app, err := c.resume(cmd.Context(), nil)
			if err != nil {
				return err
			}
			res, err := app.Like(cmd.Context(), voiceID, like)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s %d\n", heart(res.LikedByUser), res.Likes)
			return nil
		},
	}
}

func (c *cli) feedCmd() *cobra.Command {
	var waves bool
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List every voice, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.resume(cmd.Context(), nil)
			if err != nil {
				return err
			}
			printFeed(c.out, app.Feed(), c.waveformFunc(cmd.Context(), app, waves))
			return nil
		},
	}
	cmd.Flags().BoolVar(&waves, "waveforms", false, "download audio and draw waveforms")
	return cmd
}

func (c *cli) mineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your own voices",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.resume(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if err := app.SelectTab(client.TabProfile); err != nil {
				return err
			}
			printMine(c.out, app.Mine())
			return nil
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <voice-id>",
		Short: "Delete one of your voices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voiceID, err := parseVoiceID(args[0])
			if err != nil {
				return err
			}
			app, err := c.resume(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if err := app.Delete(cmd.Context(), voiceID); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Deleted")
			return nil
		},
	}
}

func (c *cli) repliesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replies <voice-id>",
		Short: "List the replies to a voice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voiceID, err := parseVoiceID(args[0])
			if err != nil {
				return err
			}
			app, err := c.resume(cmd.Context(), nil)
			if err != nil {
				return err
			}
			replies, err := app.API().Replies(cmd.Context(), voiceID)
			if err != nil {
				return err
			}
			printReplies(c.out, replies, nil)
			return nil
		},
	}
}

func (c *cli) playCmd() *cobra.Command {
	var out, player string
	cmd := &cobra.Command{
		Use:   "play <voice-id>",
		Short: "Play a voice, or save it with --out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voiceID, err := parseVoiceID(args[0])
			if err != nil {
				return err
			}
			app, err := c.resume(cmd.Context(), nil)
			if err != nil {
				return err
			}
			voice, err := app.API().Voice(cmd.Context(), voiceID)
			if err != nil {
				return err
			}
			audio, err := app.API().Audio(cmd.Context(), voice.AudioURL)
			if err != nil {
				return err
			}

			w := app.Waveforms().Init(voice.ID.String(), audio)
			fmt.Fprintf(c.out, "%s  %s, %s\n%s\n", voice.User.Email, voice.City, voice.Country, w.Render())

			if out != "" {
				return os.WriteFile(out, audio, 0o644)
			}
			return playAudio(cmd.Context(), player, audio)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the audio to this file instead of playing it")
	cmd.Flags().StringVar(&player, "player", defaultPlayer, "command that plays audio from stdin")
	return cmd
}

func playAudio(ctx context.Context, player string, audio []byte) error {
	fields := strings.Fields(player)
	if len(fields) == 0 {
		return fmt.Errorf("no player configured")
	}
	p := exec.CommandContext(ctx, fields[0], fields[1:]...)
	p.Stdin = bytes.NewReader(audio)
	p.Stderr = os.Stderr
	if err := p.Run(); err != nil {
		return fmt.Errorf("running %s: %w", fields[0], err)
	}
	return nil
}

// waveformFunc fetches waveforms on demand when enabled.
func (c *cli) waveformFunc(ctx context.Context, app *client.App, enabled bool) func(id uuid.UUID, audioURL string) string {
	if !enabled {
		return nil
	}
	return func(id uuid.UUID, audioURL string) string {
		w, err := app.Waveform(ctx, id, audioURL)
		if err != nil {
			c.log.WithError(err).WithField("id", id).Warn("waveform unavailable")
			return ""
		}
		return w.Render()
	}
}
