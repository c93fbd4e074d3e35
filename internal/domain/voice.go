package domain

import (
	"time"

	"github.com/google/uuid"
)

type Voice struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"userId"`
	File      string      `json:"file"`
	City      string      `json:"city"`
	Country   string      `json:"country"`
	CreatedAt time.Time   `json:"createdAt"`
	Replies   []Reply     `json:"replies"`
	Likes     int         `json:"likes"`
	LikedBy   []uuid.UUID `json:"likedBy"`
}

// LikedByUser reports whether userID is in the liking set.
func (v *Voice) LikedByUser(userID uuid.UUID) bool {
	for _, id := range v.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

type Reply struct {
	ID        uuid.UUID `json:"id"`
	VoiceID   uuid.UUID `json:"voiceId"`
	UserID    uuid.UUID `json:"userId"`
	File      string    `json:"file"`
	CreatedAt time.Time `json:"createdAt"`
}

// Response shapes. Joined user data is always the public view.

type FeedReply struct {
	ID        uuid.UUID  `json:"id"`
	AudioURL  string     `json:"audioUrl"`
	CreatedAt time.Time  `json:"createdAt"`
	User      PublicUser `json:"user"`
}

type FeedVoice struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"userId"`
	AudioURL    string      `json:"audioUrl"`
	City        string      `json:"city"`
	Country     string      `json:"country"`
	CreatedAt   time.Time   `json:"createdAt"`
	Likes       int         `json:"likes"`
	LikedByUser bool        `json:"likedByUser"`
	User        PublicUser  `json:"user"`
	Replies     []FeedReply `json:"replies"`
}

type MyVoice struct {
	ID        uuid.UUID   `json:"id"`
	AudioURL  string      `json:"audioUrl"`
	City      string      `json:"city"`
	Country   string      `json:"country"`
	CreatedAt time.Time   `json:"createdAt"`
	Likes     int         `json:"likes"`
	Replies   []FeedReply `json:"replies"`
}

type LikeResult struct {
	Likes       int  `json:"likes"`
	LikedByUser bool `json:"likedByUser"`
}

// AudioURL is the public path the static audio server exposes a file under.
func AudioURL(file string) string {
	return "/audio/" + file
}
