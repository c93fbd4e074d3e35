package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/voiceapp/internal/domain"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Lookups return (nil, nil) when nothing matches. Mutations on a missing
// record return ErrNotFound.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type VoiceRepository interface {
	Create(ctx context.Context, voice *domain.Voice) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Voice, error)
	// ListRecent returns every voice, newest first.
	ListRecent(ctx context.Context) ([]domain.Voice, error)
	// ListByUser returns the voices owned by userID, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Voice, error)
	AddReply(ctx context.Context, reply *domain.Reply) error
	// SetLike adds or removes userID from the liking set and returns the
	// recomputed like count.
	SetLike(ctx context.Context, voiceID, userID uuid.UUID, like bool) (int, error)
	// Delete removes the voice only if ownerID owns it.
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}
