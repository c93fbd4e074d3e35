package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	DefaultServer    = "http://localhost:3000"
	sessionConfigEnv = "VOICECTL_CONFIG"
)

// Session is the persisted login state of the CLI.
type Session struct {
	Server string `toml:"server"`
	Token  string `toml:"token,omitempty"`
	Email  string `toml:"email,omitempty"`
}

func (s *Session) LoggedIn() bool { return s.Token != "" }

// SessionPath is $VOICECTL_CONFIG, or session.toml under the user config dir.
func SessionPath() (string, error) {
	if p := os.Getenv(sessionConfigEnv); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, "voicectl", "session.toml"), nil
}

// LoadSession reads path. A missing file yields a logged-out session.
func LoadSession(path string) (*Session, error) {
	s := &Session{Server: DefaultServer}
	if _, err := toml.DecodeFile(path, s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading session %s: %w", path, err)
	}
	if s.Server == "" {
		s.Server = DefaultServer
	}
	return s, nil
}

// Save writes the session with owner-only permissions since it holds a token.
func (s *Session) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		return fmt.Errorf("writing session: %w", err)
	}
	return f.Close()
}
