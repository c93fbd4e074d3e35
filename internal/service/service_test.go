package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/voiceapp/internal/domain"
	"github.com/vedran77/voiceapp/internal/repository/memory"
	"github.com/vedran77/voiceapp/internal/token"
)

// stepClock advances by one second on every call so creation order is
// observable in timestamps.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(e string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) NotifyNewVoice(*domain.Voice)          { n.record("new") }
func (n *recordingNotifier) NotifyReply(uuid.UUID, *domain.Reply) { n.record("reply") }
func (n *recordingNotifier) NotifyLike(uuid.UUID, int)            { n.record("like") }
func (n *recordingNotifier) NotifyDeletedVoice(uuid.UUID)         { n.record("delete") }

type fixture struct {
	users  *memory.UserRepo
	voices *memory.VoiceRepo
	tokens *token.Service
	auth   *AuthService
	voice  *VoiceService
	events *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := newStepClock()
	f := &fixture{
		users:  memory.NewUserRepo(),
		voices: memory.NewVoiceRepo(),
		tokens: token.NewService("test-secret", time.Hour),
		events: &recordingNotifier{},
	}
	f.auth = NewAuthService(f.users, f.tokens, clock)
	f.voice = NewVoiceService(f.voices, f.users, clock)
	f.voice.SetNotifier(f.events)
	return f
}

func (f *fixture) signup(t *testing.T, email, city, country string) uuid.UUID {
	t.Helper()
	resp, err := f.auth.Signup(t.Context(), SignupInput{
		Email:    email,
		Password: "secret",
		City:     city,
		Country:  country,
	})
	require.NoError(t, err)
	return resp.User.ID
}
