package client

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureSession_ConcatenatesChunks(t *testing.T) {
	device := &fakeDevice{chunks: [][]byte{[]byte("one "), []byte("two "), []byte("three")}}
	s := NewCaptureSession(device)

	assert.False(t, s.Recording())
	require.NoError(t, s.Start(t.Context()))
	assert.True(t, s.Recording())

	device.drained(t)
	audio, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, "one two three", string(audio))
	assert.False(t, s.Recording())
}

func TestCaptureSession_States(t *testing.T) {
	device := &fakeDevice{}
	s := NewCaptureSession(device)

	_, err := s.Stop()
	assert.ErrorIs(t, err, ErrNotRecording)

	require.NoError(t, s.Start(t.Context()))
	assert.ErrorIs(t, s.Start(t.Context()), ErrSessionActive)
	assert.Equal(t, int32(1), device.opens.Load())

	audio, err := s.Stop()
	require.NoError(t, err)
	assert.Empty(t, audio)

	// A stopped session can record again and starts from an empty buffer.
	require.NoError(t, s.Start(t.Context()))
	_, err = s.Stop()
	require.NoError(t, err)
	assert.Equal(t, int32(2), device.opens.Load())
}

func TestCaptureSession_DeviceError(t *testing.T) {
	s := NewCaptureSession(&fakeDevice{err: errors.New("busy")})

	err := s.Start(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "busy")
	assert.False(t, s.Recording())
}

func TestFileDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("recorded"), 0o600))

	s := NewCaptureSession(FileDevice{Path: path})
	require.NoError(t, s.Start(t.Context()))
	audio, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, "recorded", string(audio))

	missing := NewCaptureSession(FileDevice{Path: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, missing.Start(t.Context()))
}
