// Command voicectl is a terminal client for the voice feed: it records and
// posts clips, replies, likes and follows the feed as it changes.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vedran77/voiceapp/internal/client"
	"github.com/vedran77/voiceapp/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli is the state shared by every command.
type cli struct {
	in  *bufio.Reader
	out io.Writer
	tty *int

	configPath string
	server     string
	logLevel   string

	log     *logrus.Logger
	session *client.Session
	app     *client.App
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: bufio.NewReader(in), out: out}
	if fd, ok := terminalFD(in); ok {
		c.tty = &fd
	}

	root := &cobra.Command{
		Use:           "voicectl",
		Short:         "Record, post and listen to voice messages",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "session file (default $VOICECTL_CONFIG or user config dir)")
	root.PersistentFlags().StringVar(&c.server, "server", "", "server base URL, saved with the session")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		c.signupCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.profileCmd(),
		c.postCmd(),
		c.replyCmd(),
		c.likeCmd(true),
		c.likeCmd(false),
		c.feedCmd(),
		c.mineCmd(),
		c.deleteCmd(),
		c.repliesCmd(),
		c.playCmd(),
		c.watchCmd(),
	)
	return root
}

func (c *cli) init() error {
	c.log = logging.NewWithWriter(os.Stderr, c.logLevel, "text")

	if c.configPath == "" {
		p, err := client.SessionPath()
		if err != nil {
			return err
		}
		c.configPath = p
	}
	s, err := client.LoadSession(c.configPath)
	if err != nil {
		return err
	}
	if c.server != "" {
		s.Server = c.server
	}
	c.session = s
	return nil
}

// newApp builds an App over the given capture device.
func (c *cli) newApp(device client.Device) *client.App {
	c.app = client.NewApp(client.NewAPI(c.session.Server, nil), device, c.log)
	return c.app
}

// resume restores the saved login and loads the feed.
func (c *cli) resume(ctx context.Context, device client.Device) (*client.App, error) {
	if !c.session.LoggedIn() {
		return nil, fmt.Errorf("%w: run voicectl login first", client.ErrNotAuthenticated)
	}
	app := c.newApp(device)
	if err := app.Resume(ctx, c.session.Token); err != nil {
		c.session.Token = ""
		_ = c.session.Save(c.configPath)
		return nil, fmt.Errorf("session expired, log in again: %w", err)
	}
	if err := app.Refresh(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func (c *cli) saveLogin(email string) error {
	c.session.Token = c.app.Token()
	c.session.Email = email
	if err := c.session.Save(c.configPath); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func parseVoiceID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(arg))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid voice id %q", arg)
	}
	return id, nil
}
