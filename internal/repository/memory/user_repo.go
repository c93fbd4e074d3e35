package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/voiceapp/internal/domain"
	"github.com/vedran77/voiceapp/internal/repository"
)

// UserRepo keeps users keyed by email, with a secondary id index.
type UserRepo struct {
	mu      sync.RWMutex
	byEmail map[string]*domain.User
	byID    map[uuid.UUID]*domain.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[uuid.UUID]*domain.User),
	}
}

func (r *UserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return repository.ErrDuplicate
	}

	u := *user
	r.byEmail[u.Email] = &u
	r.byID[u.ID] = &u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyUser(r.byID[id]), nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyUser(r.byEmail[email]), nil
}

// Update overwrites the mutable profile fields. Email is the key and never changes.
func (r *UserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[user.ID]
	if !ok {
		return repository.ErrNotFound
	}

	existing.City = user.City
	existing.Country = user.Country
	existing.ProfilePic = user.ProfilePic
	existing.UpdatedAt = user.UpdatedAt
	return nil
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.ProfilePic != nil {
		pic := *u.ProfilePic
		c.ProfilePic = &pic
	}
	return &c
}
