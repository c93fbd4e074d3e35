package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vedran77/voiceapp/internal/domain"
)

type Screen string

const (
	ScreenLogin  Screen = "login"
	ScreenSignup Screen = "signup"
	ScreenMain   Screen = "main"
)

type Tab string

const (
	TabFeed    Tab = "feed"
	TabProfile Tab = "profile"
)

var (
	ErrInvalidTransition = errors.New("invalid screen transition")
	ErrNotAuthenticated  = errors.New("not logged in")
)

const recordingFilename = "recording.wav"

// App is the client state machine: current screen and tab, the signed in
// user, the last applied feed and own-voices lists, and two capture slots.
type App struct {
	api       *API
	device    Device
	waveforms *Waveforms
	log       logrus.FieldLogger

	mu      sync.Mutex
	screen  Screen
	tab     Tab
	user    *domain.PublicUser
	feed    []domain.FeedVoice
	mine    []domain.MyVoice
	issued  uint64
	applied uint64

	recording *CaptureSession
	reply     *CaptureSession
	replyTo   uuid.UUID
}

func NewApp(api *API, device Device, log logrus.FieldLogger) *App {
	return &App{
		api:       api,
		device:    device,
		waveforms: NewWaveforms(DefaultWaveformBars),
		log:       log.WithField("module", "app"),
		screen:    ScreenLogin,
		tab:       TabFeed,
	}
}

func (a *App) Screen() Screen {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screen
}

func (a *App) Tab() Tab {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tab
}

func (a *App) User() *domain.PublicUser {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

func (a *App) Feed() []domain.FeedVoice {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.FeedVoice(nil), a.feed...)
}

func (a *App) Mine() []domain.MyVoice {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.MyVoice(nil), a.mine...)
}

func (a *App) Waveforms() *Waveforms { return a.waveforms }

// Token is the bearer token of the current login, empty when logged out.
func (a *App) Token() string { return a.api.Token() }

func (a *App) API() *API { return a.api }

// --- Screens ---

func (a *App) ShowSignup() error { return a.move(ScreenLogin, ScreenSignup) }

func (a *App) ShowLogin() error { return a.move(ScreenSignup, ScreenLogin) }

func (a *App) move(from, to Screen) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.screen != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.screen, to)
	}
	a.screen = to
	return nil
}

func (a *App) SelectTab(tab Tab) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.screen != ScreenMain {
		return ErrNotAuthenticated
	}
	if tab != TabFeed && tab != TabProfile {
		return fmt.Errorf("unknown tab %q", tab)
	}
	a.tab = tab
	return nil
}

// --- Auth ---

// Signup is only valid from the signup screen. Failures leave the screen
// unchanged and are returned for the caller to show.
func (a *App) Signup(ctx context.Context, req SignupRequest) error {
	if err := a.require(ScreenSignup); err != nil {
		return err
	}
	resp, err := a.api.Signup(ctx, req)
	if err != nil {
		return err
	}
	a.enter(resp)
	return nil
}

func (a *App) Login(ctx context.Context, email, password string) error {
	if err := a.require(ScreenLogin); err != nil {
		return err
	}
	resp, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	a.enter(resp)
	return nil
}

// Resume restores a saved token. An invalid token logs out.
func (a *App) Resume(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	a.api.SetToken(token)
	user, err := a.api.Me(ctx)
	if err != nil {
		a.Logout()
		return err
	}
	a.enter(&AuthResponse{Token: token, User: *user})
	return nil
}

func (a *App) enter(resp *AuthResponse) {
	a.api.SetToken(resp.Token)

	a.mu.Lock()
	defer a.mu.Unlock()
	user := resp.User
	a.user = &user
	a.screen = ScreenMain
	a.tab = TabFeed
}

// Logout drops the token and all per-user state, abandoning any recording.
func (a *App) Logout() {
	a.api.SetToken("")

	a.mu.Lock()
	rec, rep := a.recording, a.reply
	a.recording, a.reply, a.replyTo = nil, nil, uuid.Nil
	a.user = nil
	a.feed, a.mine = nil, nil
	a.applied = a.issued
	a.screen = ScreenLogin
	a.tab = TabFeed
	a.mu.Unlock()

	for _, s := range []*CaptureSession{rec, rep} {
		if s != nil {
			_, _ = s.Stop()
		}
	}
	a.waveforms.DestroyAll()
}

func (a *App) require(screen Screen) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.screen != screen {
		return fmt.Errorf("%w: expected %s screen, on %s", ErrInvalidTransition, screen, a.screen)
	}
	return nil
}

// --- Feed ---

// Refresh fetches the feed and own voices. Refreshes may overlap; each is
// numbered and a response older than the last applied one is dropped.
func (a *App) Refresh(ctx context.Context) error {
	a.mu.Lock()
	if a.screen != ScreenMain {
		a.mu.Unlock()
		return ErrNotAuthenticated
	}
	a.issued++
	seq := a.issued
	a.mu.Unlock()

	feed, err := a.api.Feed(ctx)
	if err != nil {
		return a.fail("refresh feed", err)
	}
	mine, err := a.api.Mine(ctx)
	if err != nil {
		return a.fail("refresh own voices", err)
	}

	a.mu.Lock()
	if seq <= a.applied || a.screen != ScreenMain {
		a.mu.Unlock()
		a.log.WithField("seq", seq).Debug("discarding stale refresh")
		return nil
	}
	a.applied = seq
	a.feed = feed
	a.mine = mine
	a.mu.Unlock()

	a.waveforms.Prune(liveIDs(feed, mine))
	return nil
}

func liveIDs(feed []domain.FeedVoice, mine []domain.MyVoice) map[string]bool {
	ids := make(map[string]bool)
	for _, v := range feed {
		ids[v.ID.String()] = true
		for _, r := range v.Replies {
			ids[r.ID.String()] = true
		}
	}
	for _, v := range mine {
		ids[v.ID.String()] = true
		for _, r := range v.Replies {
			ids[r.ID.String()] = true
		}
	}
	return ids
}

// Waveform lazily builds the waveform for a voice or reply from its audio.
func (a *App) Waveform(ctx context.Context, id uuid.UUID, audioURL string) (*Waveform, error) {
	return a.waveforms.Ensure(id.String(), func() ([]byte, error) {
		return a.api.Audio(ctx, audioURL)
	})
}

// --- Capture ---

func (a *App) StartRecording(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.screen != ScreenMain {
		return ErrNotAuthenticated
	}
	if a.recording != nil {
		return ErrSessionActive
	}
	s := NewCaptureSession(a.device)
	if err := s.Start(ctx); err != nil {
		return err
	}
	a.recording = s
	return nil
}

// StopRecording uploads the captured clip as a new voice.
func (a *App) StopRecording(ctx context.Context) error {
	a.mu.Lock()
	s := a.recording
	a.recording = nil
	a.mu.Unlock()
	if s == nil {
		return ErrNotRecording
	}

	audio, err := s.Stop()
	if err != nil {
		return a.fail("stop recording", err)
	}
	return a.PostVoice(ctx, recordingFilename, audio)
}

func (a *App) StartReply(ctx context.Context, voiceID uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.screen != ScreenMain {
		return ErrNotAuthenticated
	}
	if a.reply != nil {
		return ErrSessionActive
	}
	s := NewCaptureSession(a.device)
	if err := s.Start(ctx); err != nil {
		return err
	}
	a.reply = s
	a.replyTo = voiceID
	return nil
}

// ReplyTarget is the voice the active reply session is recording for.
func (a *App) ReplyTarget() (uuid.UUID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.replyTo, a.reply != nil
}

func (a *App) StopReply(ctx context.Context) error {
	a.mu.Lock()
	s, voiceID := a.reply, a.replyTo
	a.reply, a.replyTo = nil, uuid.Nil
	a.mu.Unlock()
	if s == nil {
		return ErrNotRecording
	}

	audio, err := s.Stop()
	if err != nil {
		return a.fail("stop reply", err)
	}
	return a.Reply(ctx, voiceID, recordingFilename, audio)
}

// --- Mutations ---

func (a *App) PostVoice(ctx context.Context, filename string, audio []byte) error {
	if err := a.api.PostVoice(ctx, filename, bytes.NewReader(audio)); err != nil {
		return a.fail("post voice", err)
	}
	return a.refreshAfter(ctx)
}

func (a *App) Reply(ctx context.Context, voiceID uuid.UUID, filename string, audio []byte) error {
	if err := a.api.Reply(ctx, voiceID, filename, bytes.NewReader(audio)); err != nil {
		return a.fail("reply", err)
	}
	return a.refreshAfter(ctx)
}

// Like shows the server's count, never a local increment.
func (a *App) Like(ctx context.Context, voiceID uuid.UUID, like bool) (*domain.LikeResult, error) {
	res, err := a.api.Like(ctx, voiceID, like)
	if err != nil {
		return nil, a.fail("like", err)
	}

	a.mu.Lock()
	for i := range a.feed {
		if a.feed[i].ID == voiceID {
			a.feed[i].Likes = res.Likes
			a.feed[i].LikedByUser = res.LikedByUser
		}
	}
	for i := range a.mine {
		if a.mine[i].ID == voiceID {
			a.mine[i].Likes = res.Likes
		}
	}
	a.mu.Unlock()

	return res, a.refreshAfter(ctx)
}

func (a *App) Delete(ctx context.Context, voiceID uuid.UUID) error {
	if err := a.api.Delete(ctx, voiceID); err != nil {
		return a.fail("delete", err)
	}
	a.waveforms.Destroy(voiceID.String())
	return a.refreshAfter(ctx)
}

func (a *App) UpdateProfile(ctx context.Context, city, country *string) error {
	user, err := a.api.UpdateProfile(ctx, city, country)
	if err != nil {
		return a.fail("update profile", err)
	}
	a.mu.Lock()
	a.user = user
	a.mu.Unlock()
	return nil
}

func (a *App) SetProfilePic(ctx context.Context, filename string, image []byte) error {
	pic, err := a.api.UploadProfilePic(ctx, filename, bytes.NewReader(image))
	if err != nil {
		return a.fail("upload profile picture", err)
	}
	a.mu.Lock()
	if a.user != nil {
		a.user.ProfilePic = &pic
	}
	a.mu.Unlock()
	return nil
}

func (a *App) refreshAfter(ctx context.Context) error {
	if err := a.Refresh(ctx); err != nil && !errors.Is(err, ErrNotAuthenticated) {
		return err
	}
	return nil
}

// fail logs a failed call and returns it. A rejected token ends the session.
func (a *App) fail(op string, err error) error {
	a.log.WithError(err).WithField("op", op).Warn("request failed")

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		a.Logout()
		return fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}
	return fmt.Errorf("%s: %w", op, err)
}
