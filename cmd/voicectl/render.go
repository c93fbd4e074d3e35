package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/voiceapp/internal/domain"
)

// waveFunc returns a rendered waveform, or "" to skip it.
type waveFunc func(id uuid.UUID, audioURL string) string

func heart(liked bool) string {
	if liked {
		return "♥"
	}
	return "♡"
}

func printUser(w io.Writer, u *domain.PublicUser) {
	if u == nil {
		fmt.Fprintln(w, "Not logged in")
		return
	}
	pic := "-"
	if u.ProfilePic != nil {
		pic = domain.AudioURL(*u.ProfilePic)
	}
	fmt.Fprintf(w, "%s\n  id:       %s\n  location: %s, %s\n  picture:  %s\n", u.Email, u.ID, u.City, u.Country, pic)
}

func printFeed(w io.Writer, feed []domain.FeedVoice, wave waveFunc) {
	if len(feed) == 0 {
		fmt.Fprintln(w, "No voices yet.")
		return
	}
	for _, v := range feed {
		fmt.Fprintf(w, "%s  %s (%s, %s)  %s %d  %s\n",
			v.ID, v.User.Email, v.City, v.Country, heart(v.LikedByUser), v.Likes, ago(v.CreatedAt))
		printWave(w, "    ", v.ID, v.AudioURL, wave)
		printReplies(w, v.Replies, wave)
	}
}

func printMine(w io.Writer, mine []domain.MyVoice) {
	if len(mine) == 0 {
		fmt.Fprintln(w, "You have not posted anything yet.")
		return
	}
	for _, v := range mine {
		fmt.Fprintf(w, "%s  (%s, %s)  ♥ %d  %d replies  %s\n",
			v.ID, v.City, v.Country, v.Likes, len(v.Replies), ago(v.CreatedAt))
		printReplies(w, v.Replies, nil)
	}
}

func printReplies(w io.Writer, replies []domain.FeedReply, wave waveFunc) {
	for _, r := range replies {
		fmt.Fprintf(w, "    ↳ %s  %s\n", r.User.Email, ago(r.CreatedAt))
		printWave(w, "      ", r.ID, r.AudioURL, wave)
	}
}

func printWave(w io.Writer, indent string, id uuid.UUID, audioURL string, wave waveFunc) {
	if wave == nil {
		return
	}
	if bars := wave(id, audioURL); bars != "" {
		fmt.Fprintf(w, "%s%s\n", indent, bars)
	}
}

func ago(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Local().Format("2006-01-02")
	}
}
