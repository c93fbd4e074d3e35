package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/voiceapp/internal/database"
	"github.com/vedran77/voiceapp/internal/domain"
	"github.com/vedran77/voiceapp/internal/repository"
)

// dsnEnv names a disposable database. The tests migrate it and leave their
// rows behind, each under fresh users.
const dsnEnv = "VOICEAPP_TEST_DATABASE_URL"

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		fmt.Printf("skipping postgres tests: %s not set\n", dsnEnv)
		os.Exit(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := pgxpool.New(ctx, dsn)
	if err == nil {
		err = pool.Ping(ctx)
	}
	if err == nil {
		err = database.Migrate(ctx, pool)
	}
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres setup: %v\n", err)
		os.Exit(1)
	}

	testPool = pool
	code := m.Run()
	pool.Close()
	os.Exit(code)
}

func newUser(t *testing.T, users *UserRepo) *domain.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &domain.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		City:         domain.DefaultLocation,
		Country:      domain.DefaultLocation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, users.Create(t.Context(), u))
	return u
}

func newVoice(t *testing.T, voices *VoiceRepo, owner *domain.User, createdAt time.Time) *domain.Voice {
	t.Helper()
	v := &domain.Voice{
		ID:        uuid.New(),
		UserID:    owner.ID,
		File:      uuid.NewString() + ".wav",
		City:      owner.City,
		Country:   owner.Country,
		CreatedAt: createdAt,
	}
	require.NoError(t, voices.Create(t.Context(), v))
	return v
}

func TestUserRepo(t *testing.T) {
	ctx := t.Context()
	users := NewUserRepo(testPool)
	u := newUser(t, users)

	dup := *u
	dup.ID = uuid.New()
	assert.ErrorIs(t, users.Create(ctx, &dup), repository.ErrDuplicate)

	got, err := users.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Nil(t, got.ProfilePic)

	pic := "1-abcd1234-me.png"
	u.City, u.ProfilePic = "Zagreb", &pic
	require.NoError(t, users.Update(ctx, u))
	got, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zagreb", got.City)
	require.NotNil(t, got.ProfilePic)
	assert.Equal(t, pic, *got.ProfilePic)

	missing, err := users.GetByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)

	gone := *u
	gone.ID = uuid.New()
	assert.ErrorIs(t, users.Update(ctx, &gone), repository.ErrNotFound)
}

func TestVoiceRepo_Likes(t *testing.T) {
	ctx := t.Context()
	users := NewUserRepo(testPool)
	voices := NewVoiceRepo(testPool)
	owner := newUser(t, users)
	alice := newUser(t, users)
	bob := newUser(t, users)
	v := newVoice(t, voices, owner, time.Now())

	steps := []struct {
		user  *domain.User
		like  bool
		likes int
	}{
		{alice, true, 1},
		{alice, true, 1},
		{bob, true, 2},
		{alice, false, 1},
		{alice, false, 1},
		{bob, false, 0},
	}
	for i, s := range steps {
		likes, err := voices.SetLike(ctx, v.ID, s.user.ID, s.like)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, s.likes, likes, "step %d", i)
	}

	_, err := voices.SetLike(ctx, v.ID, alice.ID, true)
	require.NoError(t, err)
	got, err := voices.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice.ID}, got.LikedBy)
	assert.Equal(t, 1, got.Likes)
	assert.True(t, got.LikedByUser(alice.ID))

	_, err = voices.SetLike(ctx, uuid.New(), alice.ID, true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestVoiceRepo_OrderedByInsertion(t *testing.T) {
	ctx := t.Context()
	users := NewUserRepo(testPool)
	voices := NewVoiceRepo(testPool)
	owner := newUser(t, users)
	replier := newUser(t, users)

	// equal timestamps: only insertion order can tell these apart
	at := time.Now().UTC().Truncate(time.Second)
	first := newVoice(t, voices, owner, at)
	second := newVoice(t, voices, owner, at)
	third := newVoice(t, voices, owner, at)

	mine, err := voices.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, []uuid.UUID{third.ID, second.ID, first.ID},
		[]uuid.UUID{mine[0].ID, mine[1].ID, mine[2].ID})

	recent, err := voices.ListRecent(ctx)
	require.NoError(t, err)
	pos := map[uuid.UUID]int{}
	for i, v := range recent {
		pos[v.ID] = i
	}
	assert.Less(t, pos[third.ID], pos[second.ID])
	assert.Less(t, pos[second.ID], pos[first.ID])

	var replyIDs []uuid.UUID
	for range 3 {
		r := &domain.Reply{ID: uuid.New(), VoiceID: first.ID, UserID: replier.ID, File: uuid.NewString() + ".wav", CreatedAt: at}
		require.NoError(t, voices.AddReply(ctx, r))
		replyIDs = append(replyIDs, r.ID)
	}
	got, err := voices.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 3)
	for i, r := range got.Replies {
		assert.Equal(t, replyIDs[i], r.ID)
	}

	err = voices.AddReply(ctx, &domain.Reply{ID: uuid.New(), VoiceID: uuid.New(), UserID: replier.ID, File: "x.wav", CreatedAt: at})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestVoiceRepo_Delete(t *testing.T) {
	ctx := t.Context()
	users := NewUserRepo(testPool)
	voices := NewVoiceRepo(testPool)
	owner := newUser(t, users)
	other := newUser(t, users)
	v := newVoice(t, voices, owner, time.Now())

	_, err := voices.SetLike(ctx, v.ID, other.ID, true)
	require.NoError(t, err)
	require.NoError(t, voices.AddReply(ctx, &domain.Reply{ID: uuid.New(), VoiceID: v.ID, UserID: other.ID, File: "r.wav", CreatedAt: time.Now()}))

	assert.ErrorIs(t, voices.Delete(ctx, v.ID, other.ID), repository.ErrNotFound)
	require.NoError(t, voices.Delete(ctx, v.ID, owner.ID))

	got, err := voices.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	var orphans int
	require.NoError(t, testPool.QueryRow(ctx,
		"SELECT (SELECT COUNT(*) FROM voice_likes WHERE voice_id = $1) + (SELECT COUNT(*) FROM voice_replies WHERE voice_id = $1)",
		v.ID).Scan(&orphans))
	assert.Zero(t, orphans)
}
