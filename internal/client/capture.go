package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

var (
	ErrNotRecording  = errors.New("no recording in progress")
	ErrSessionActive = errors.New("a recording session is already active")
	ErrNoDevice      = errors.New("no capture device configured")
)

const (
	chunkSize      = 32 << 10
	releaseTimeout = 2 * time.Second
)

// Device is a capture source. The returned stream is held open for the
// whole session and closed on stop.
type Device interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

type captureState int

const (
	stateIdle captureState = iota
	stateRecording
)

// CaptureSession buffers chunks from a Device between Start and Stop.
type CaptureSession struct {
	device Device

	mu     sync.Mutex
	state  captureState
	stream io.ReadCloser
	cancel context.CancelFunc
	chunks [][]byte
	done   chan error
}

func NewCaptureSession(device Device) *CaptureSession {
	return &CaptureSession{device: device}
}

func (s *CaptureSession) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateRecording
}

// Start acquires the device and begins buffering in the background.
func (s *CaptureSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateRecording {
		return ErrSessionActive
	}
	if s.device == nil {
		return ErrNoDevice
	}

	ctx, cancel := context.WithCancel(ctx)
	stream, err := s.device.Open(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("opening capture device: %w", err)
	}

	s.state = stateRecording
	s.stream = stream
	s.cancel = cancel
	s.chunks = nil
	s.done = make(chan error, 1)

	go s.read(stream, s.done)
	return nil
}

func (s *CaptureSession) read(stream io.Reader, done chan<- error) {
	for {
		buf := make([]byte, chunkSize)
		n, err := stream.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.chunks = append(s.chunks, buf[:n])
			s.mu.Unlock()
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
				err = nil
			}
			done <- err
			return
		}
	}
}

// Stop releases the device and returns the buffered audio as one object.
func (s *CaptureSession) Stop() ([]byte, error) {
	s.mu.Lock()
	if s.state != stateRecording {
		s.mu.Unlock()
		return nil, ErrNotRecording
	}
	stream, cancel, done := s.stream, s.cancel, s.done
	s.mu.Unlock()

	closeErr := stream.Close()
	var readErr error
	select {
	case readErr = <-done:
	case <-time.After(releaseTimeout):
		cancel()
		readErr = <-done
	}
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	audio := bytes.Join(s.chunks, nil)
	s.state = stateIdle
	s.stream = nil
	s.cancel = nil
	s.chunks = nil
	s.done = nil

	if readErr != nil && len(audio) == 0 {
		return nil, fmt.Errorf("capturing audio: %w", readErr)
	}
	if closeErr != nil && len(audio) == 0 {
		return nil, fmt.Errorf("releasing capture device: %w", closeErr)
	}
	return audio, nil
}

// FileDevice replays an existing recording as if it were captured live.
type FileDevice struct {
	Path string
}

func (d FileDevice) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(d.Path)
}

// CommandDevice records from an external program's stdout, e.g.
// arecord -q -f S16_LE -r 16000 -t wav.
type CommandDevice struct {
	Name string
	Args []string
}

func (d CommandDevice) Open(ctx context.Context) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, d.Name, d.Args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &commandStream{cmd: cmd, out: out}, nil
}

type commandStream struct {
	cmd  *exec.Cmd
	out  io.ReadCloser
	once sync.Once
}

// Read drains the recorder and reaps it once its output ends.
func (c *commandStream) Read(p []byte) (int, error) {
	n, err := c.out.Read(p)
	if err != nil {
		c.once.Do(func() { _ = c.cmd.Wait() })
	}
	return n, err
}

// Close asks the recorder to finish. A recorder that ignores the signal is
// killed when the session context is cancelled.
func (c *commandStream) Close() error {
	if c.cmd.Process == nil {
		return nil
	}
	err := c.cmd.Process.Signal(os.Interrupt)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
