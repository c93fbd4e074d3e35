package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/voiceapp/internal/domain"
	"github.com/vedran77/voiceapp/internal/repository"
)

func TestUserRepo(t *testing.T) {
	repo := NewUserRepo()
	user := &domain.User{ID: uuid.New(), Email: "a@x", City: "Paris"}

	require.NoError(t, repo.Create(t.Context(), user))
	require.ErrorIs(t, repo.Create(t.Context(), &domain.User{ID: uuid.New(), Email: "a@x"}), repository.ErrDuplicate)

	byEmail, err := repo.GetByEmail(t.Context(), "a@x")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	missing, err := repo.GetByID(t.Context(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Returned records are copies.
	byEmail.City = "Mutated"
	again, err := repo.GetByID(t.Context(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paris", again.City)

	pic := "p.png"
	again.City = "Lyon"
	again.ProfilePic = &pic
	require.NoError(t, repo.Update(t.Context(), again))

	updated, err := repo.GetByEmail(t.Context(), "a@x")
	require.NoError(t, err)
	assert.Equal(t, "Lyon", updated.City)
	require.NotNil(t, updated.ProfilePic)
	assert.Equal(t, "p.png", *updated.ProfilePic)

	require.ErrorIs(t, repo.Update(t.Context(), &domain.User{ID: uuid.New()}), repository.ErrNotFound)
}

func newVoice(owner uuid.UUID, at time.Time) *domain.Voice {
	return &domain.Voice{ID: uuid.New(), UserID: owner, File: "f.webm", CreatedAt: at}
}

func TestVoiceRepo_Ordering(t *testing.T) {
	repo := NewVoiceRepo()
	alice, bob := uuid.New(), uuid.New()
	base := time.Now()

	v1 := newVoice(alice, base)
	v2 := newVoice(bob, base.Add(time.Second))
	v3 := newVoice(alice, base.Add(2*time.Second))
	for _, v := range []*domain.Voice{v1, v2, v3} {
		require.NoError(t, repo.Create(t.Context(), v))
	}

	recent, err := repo.ListRecent(t.Context())
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []uuid.UUID{v3.ID, v2.ID, v1.ID}, []uuid.UUID{recent[0].ID, recent[1].ID, recent[2].ID})
	assert.NotNil(t, recent[0].Replies)
	assert.NotNil(t, recent[0].LikedBy)

	mine, err := repo.ListByUser(t.Context(), alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, v3.ID, mine[0].ID)
	assert.Equal(t, v1.ID, mine[1].ID)
}

func TestVoiceRepo_RepliesLikesDelete(t *testing.T) {
	repo := NewVoiceRepo()
	owner, other := uuid.New(), uuid.New()
	v := newVoice(owner, time.Now())
	require.NoError(t, repo.Create(t.Context(), v))

	reply := &domain.Reply{ID: uuid.New(), VoiceID: v.ID, UserID: other, File: "r.webm"}
	require.NoError(t, repo.AddReply(t.Context(), reply))
	require.ErrorIs(t, repo.AddReply(t.Context(), &domain.Reply{VoiceID: uuid.New()}), repository.ErrNotFound)

	n, err := repo.SetLike(t.Context(), v.ID, other, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.SetLike(t.Context(), v.ID, other, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.SetLike(t.Context(), v.ID, owner, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = repo.SetLike(t.Context(), v.ID, other, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.SetLike(t.Context(), uuid.New(), other, true)
	require.ErrorIs(t, err, repository.ErrNotFound)

	got, err := repo.GetByID(t.Context(), v.ID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 1)
	assert.Equal(t, []uuid.UUID{owner}, got.LikedBy)
	assert.Equal(t, 1, got.Likes)

	require.ErrorIs(t, repo.Delete(t.Context(), v.ID, other), repository.ErrNotFound)
	require.NoError(t, repo.Delete(t.Context(), v.ID, owner))

	gone, err := repo.GetByID(t.Context(), v.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestVoiceRepo_ConcurrentLikes(t *testing.T) {
	repo := NewVoiceRepo()
	v := newVoice(uuid.New(), time.Now())
	require.NoError(t, repo.Create(t.Context(), v))

	users := make([]uuid.UUID, 50)
	for i := range users {
		users[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for _, u := range users {
		for range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.SetLike(t.Context(), v.ID, u, true)
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	got, err := repo.GetByID(t.Context(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, len(users), got.Likes)
	assert.Len(t, got.LikedBy, len(users))
}
