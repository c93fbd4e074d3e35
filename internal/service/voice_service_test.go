package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/voiceapp/internal/domain"
)

func TestPost_SnapshotsLocation(t *testing.T) {
	f := newFixture(t)
	id := f.signup(t, "a@x", "Paris", "France")

	voice, err := f.voice.Post(t.Context(), id, "1-a.webm")
	require.NoError(t, err)
	assert.Equal(t, "Paris", voice.City)
	assert.Equal(t, "France", voice.Country)

	city := "Lyon"
	_, err = f.auth.UpdateProfile(t.Context(), id, UpdateProfileInput{City: &city})
	require.NoError(t, err)

	feed, err := f.voice.Feed(t.Context(), id)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "Paris", feed[0].City, "voice keeps the location it was posted from")
	assert.Equal(t, "Lyon", feed[0].User.City)
	assert.Equal(t, "/audio/1-a.webm", feed[0].AudioURL)
	assert.Zero(t, feed[0].Likes)
	assert.Empty(t, feed[0].Replies)
}

func TestPost_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.voice.Post(t.Context(), uuid.New(), "x.webm")
	require.ErrorIs(t, err, ErrUserNotFound)

	id := f.signup(t, "a@x", "", "")
	_, err = f.voice.Post(t.Context(), id, "")
	require.ErrorIs(t, err, ErrNoFileProvided)
}

func TestLike_Idempotent(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "a@x", "", "")
	bob := f.signup(t, "b@x", "", "")
	voice, err := f.voice.Post(t.Context(), alice, "v.webm")
	require.NoError(t, err)

	tests := []struct {
		name  string
		calls []bool
		want  int
	}{
		{"single like", []bool{true}, 1},
		{"double like", []bool{true, true}, 1},
		{"like then unlike", []bool{true, false}, 0},
		{"unlike only", []bool{false}, 0},
		{"unlike then like", []bool{false, false, true}, 1},
		{"alternating ends liked", []bool{true, false, true, true}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.voice.SetLike(t.Context(), voice.ID, bob, false)
			require.NoError(t, err)

			var res *domain.LikeResult
			for _, like := range tt.calls {
				res, err = f.voice.SetLike(t.Context(), voice.ID, bob, like)
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, res.Likes)
			assert.Equal(t, tt.calls[len(tt.calls)-1], res.LikedByUser)

			feed, err := f.voice.Feed(t.Context(), bob)
			require.NoError(t, err)
			assert.Equal(t, tt.want, feed[0].Likes)
			assert.Equal(t, tt.want == 1, feed[0].LikedByUser)
		})
	}
}

func TestLike_CountsDistinctUsers(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "a@x", "", "")
	bob := f.signup(t, "b@x", "", "")
	voice, err := f.voice.Post(t.Context(), alice, "v.webm")
	require.NoError(t, err)

	_, err = f.voice.SetLike(t.Context(), voice.ID, alice, true)
	require.NoError(t, err)
	res, err := f.voice.SetLike(t.Context(), voice.ID, bob, true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Likes)

	feed, err := f.voice.Feed(t.Context(), alice)
	require.NoError(t, err)
	assert.True(t, feed[0].LikedByUser)

	_, err = f.voice.SetLike(t.Context(), uuid.New(), bob, true)
	require.ErrorIs(t, err, ErrVoiceNotFound)
}

func TestReply(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "a@x", "", "")
	bob := f.signup(t, "b@x", "Oslo", "Norway")
	voice, err := f.voice.Post(t.Context(), alice, "v.webm")
	require.NoError(t, err)

	_, err = f.voice.Reply(t.Context(), voice.ID, bob, "r.webm")
	require.NoError(t, err)

	replies, err := f.voice.Replies(t.Context(), voice.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "/audio/r.webm", replies[0].AudioURL)
	assert.Equal(t, bob, replies[0].User.ID)
	assert.Equal(t, "Oslo", replies[0].User.City)

	_, err = f.voice.Reply(t.Context(), uuid.New(), bob, "r2.webm")
	require.ErrorIs(t, err, ErrVoiceNotFound)

	_, err = f.voice.Reply(t.Context(), voice.ID, bob, "")
	require.ErrorIs(t, err, ErrNoFileProvided)
}

func TestFeed_NewestFirstRegardlessOfReplies(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "a@x", "", "")

	first, err := f.voice.Post(t.Context(), alice, "1.webm")
	require.NoError(t, err)
	second, err := f.voice.Post(t.Context(), alice, "2.webm")
	require.NoError(t, err)

	_, err = f.voice.Reply(t.Context(), first.ID, alice, "r.webm")
	require.NoError(t, err)

	feed, err := f.voice.Feed(t.Context(), alice)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, second.ID, feed[0].ID)
	assert.Equal(t, first.ID, feed[1].ID)
	assert.True(t, feed[0].CreatedAt.After(feed[1].CreatedAt))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "a@x", "", "")
	bob := f.signup(t, "b@x", "", "")
	voice, err := f.voice.Post(t.Context(), alice, "v.webm")
	require.NoError(t, err)

	err = f.voice.Delete(t.Context(), voice.ID, bob)
	require.ErrorIs(t, err, ErrVoiceNotFound, "only the owner may delete")

	require.NoError(t, f.voice.Delete(t.Context(), voice.ID, alice))

	feed, err := f.voice.Feed(t.Context(), alice)
	require.NoError(t, err)
	assert.Empty(t, feed)

	mine, err := f.voice.Mine(t.Context(), alice)
	require.NoError(t, err)
	assert.Empty(t, mine)

	_, err = f.voice.Replies(t.Context(), voice.ID)
	require.ErrorIs(t, err, ErrVoiceNotFound)

	_, err = f.voice.Get(t.Context(), voice.ID, alice)
	require.ErrorIs(t, err, ErrVoiceNotFound)

	err = f.voice.Delete(t.Context(), voice.ID, alice)
	require.ErrorIs(t, err, ErrVoiceNotFound)
}

func TestMine_OnlyOwnVoices(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "a@x", "", "")
	bob := f.signup(t, "b@x", "", "")

	_, err := f.voice.Post(t.Context(), alice, "a1.webm")
	require.NoError(t, err)
	bv, err := f.voice.Post(t.Context(), bob, "b1.webm")
	require.NoError(t, err)
	_, err = f.voice.Post(t.Context(), alice, "a2.webm")
	require.NoError(t, err)
	_, err = f.voice.Reply(t.Context(), bv.ID, alice, "r.webm")
	require.NoError(t, err)

	mine, err := f.voice.Mine(t.Context(), alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "/audio/a2.webm", mine[0].AudioURL)
	assert.Equal(t, "/audio/a1.webm", mine[1].AudioURL)

	bobs, err := f.voice.Mine(t.Context(), bob)
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	require.Len(t, bobs[0].Replies, 1)
	assert.Equal(t, "a@x", bobs[0].Replies[0].User.Email)
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "a@x", "", "")
	voice, err := f.voice.Post(t.Context(), alice, "v.webm")
	require.NoError(t, err)

	got, err := f.voice.Get(t.Context(), voice.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, voice.ID, got.ID)
	assert.Equal(t, "a@x", got.User.Email)
}

func TestExists(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "a@x", "", "")
	voice, err := f.voice.Post(t.Context(), alice, "v.webm")
	require.NoError(t, err)

	assert.NoError(t, f.voice.Exists(t.Context(), voice.ID))
	assert.ErrorIs(t, f.voice.Exists(t.Context(), uuid.New()), ErrVoiceNotFound)

	require.NoError(t, f.voice.Delete(t.Context(), voice.ID, alice))
	assert.ErrorIs(t, f.voice.Exists(t.Context(), voice.ID), ErrVoiceNotFound)
}

func TestNotifier_ReceivesMutations(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "a@x", "", "")
	voice, err := f.voice.Post(t.Context(), alice, "v.webm")
	require.NoError(t, err)
	_, err = f.voice.Reply(t.Context(), voice.ID, alice, "r.webm")
	require.NoError(t, err)
	_, err = f.voice.SetLike(t.Context(), voice.ID, alice, true)
	require.NoError(t, err)
	require.NoError(t, f.voice.Delete(t.Context(), voice.ID, alice))

	// Failed mutations emit nothing.
	_, err = f.voice.SetLike(t.Context(), voice.ID, alice, true)
	require.Error(t, err)

	assert.Equal(t, []string{"new", "reply", "like", "delete"}, f.events.events)
}

func TestFeed_MissingPosterFallsBackToUnknown(t *testing.T) {
	f := newFixture(t)
	ghost := uuid.New()
	require.NoError(t, f.voices.Create(t.Context(), &domain.Voice{ID: uuid.New(), UserID: ghost, File: "g.webm"}))

	feed, err := f.voice.Feed(t.Context(), ghost)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, ghost, feed[0].User.ID)
	assert.Equal(t, domain.DefaultLocation, feed[0].User.City)
	assert.Empty(t, feed[0].User.Email)
}
