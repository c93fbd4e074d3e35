package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/voiceapp/internal/media"
	"github.com/vedran77/voiceapp/internal/repository/memory"
	"github.com/vedran77/voiceapp/internal/service"
	"github.com/vedran77/voiceapp/internal/token"
	"github.com/vedran77/voiceapp/internal/transport/http/router"
	"github.com/vedran77/voiceapp/internal/transport/ws"
)

// newServer runs the full HTTP stack over in-memory stores.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := media.NewFileStore(t.TempDir())
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	users := memory.NewUserRepo()
	voices := memory.NewVoiceRepo()
	tokens := token.NewService("test-secret", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	voiceService := service.NewVoiceService(voices, users, service.RealClock{})
	voiceService.SetNotifier(ws.NewHubNotifier(hub, log))

	srv := httptest.NewServer(router.New(router.Deps{
		AuthService:    service.NewAuthService(users, tokens, service.RealClock{}),
		VoiceService:   voiceService,
		Tokens:         tokens,
		Media:          store,
		Hub:            hub,
		Log:            log,
		CORSOrigin:     "*",
		MaxUploadBytes: 1 << 20,
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fakeDevice streams its chunks through a pipe and then stays open until
// the session closes it.
type fakeDevice struct {
	chunks  [][]byte
	err     error
	opens   atomic.Int32
	written atomic.Int32
}

func (d *fakeDevice) Open(ctx context.Context) (io.ReadCloser, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.opens.Add(1)
	pr, pw := io.Pipe()
	go func() {
		for _, c := range d.chunks {
			if _, err := pw.Write(c); err != nil {
				return
			}
			d.written.Add(1)
		}
	}()
	return pr, nil
}

// drained waits until every open session has consumed every chunk.
func (d *fakeDevice) drained(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return int(d.written.Load()) == int(d.opens.Load())*len(d.chunks)
	}, 2*time.Second, 5*time.Millisecond)
}

// gatedTransport holds back the next feed response until released.
type gatedTransport struct {
	armed   atomic.Bool
	hit     chan struct{}
	release chan struct{}
}

func newGatedTransport() *gatedTransport {
	return &gatedTransport{hit: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := http.DefaultTransport.RoundTrip(req)
	if req.URL.Path == "/api/voices" && g.armed.CompareAndSwap(true, false) {
		close(g.hit)
		<-g.release
	}
	return resp, err
}
