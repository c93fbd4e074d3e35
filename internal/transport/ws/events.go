package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types - Client → Server
const (
	EventTypePing = "ping"
)

// Event types - Server → Client
const (
	EventTypeVoiceNew     = "voice.new"
	EventTypeVoiceReplied = "voice.replied"
	EventTypeVoiceLiked   = "voice.liked"
	EventTypeVoiceDeleted = "voice.deleted"
	EventTypePong         = "pong"
	EventTypeError        = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	VoiceID   *uuid.UUID      `json:"voice_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// IsFeedChange reports whether the event means a client's feed is stale.
func (e *Event) IsFeedChange() bool {
	switch e.Type {
	case EventTypeVoiceNew, EventTypeVoiceReplied, EventTypeVoiceLiked, EventTypeVoiceDeleted:
		return true
	}
	return false
}

// --- Server → Client payloads ---

type VoicePayload struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	AudioURL string    `json:"audio_url"`
	City     string    `json:"city"`
	Country  string    `json:"country"`
}

type ReplyPayload struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	AudioURL string    `json:"audio_url"`
}

type LikePayload struct {
	Likes int `json:"likes"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, voiceID *uuid.UUID, payload any) (*Event, error) {
	evt := &Event{
		Type:      eventType,
		VoiceID:   voiceID,
		Timestamp: time.Now().Unix(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		evt.Payload = data
	}
	return evt, nil
}
