package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/voiceapp/internal/domain"
	"github.com/vedran77/voiceapp/internal/repository"
)

// VoiceRepo holds voices in insertion order. Callers always get copies, so
// nothing outside the lock can mutate stored state.
type VoiceRepo struct {
	mu     sync.RWMutex
	voices []*domain.Voice
}

func NewVoiceRepo() *VoiceRepo {
	return &VoiceRepo{}
}

func (r *VoiceRepo) Create(_ context.Context, voice *domain.Voice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := copyVoice(voice)
	v.Likes = len(v.LikedBy)
	r.voices = append(r.voices, v)
	return nil
}

func (r *VoiceRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Voice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return copyVoice(r.voices[i]), nil
	}
	return nil, nil
}

func (r *VoiceRepo) ListRecent(_ context.Context) ([]domain.Voice, error) {
	return r.list(func(*domain.Voice) bool { return true }), nil
}

func (r *VoiceRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Voice, error) {
	return r.list(func(v *domain.Voice) bool { return v.UserID == userID }), nil
}

func (r *VoiceRepo) AddReply(_ context.Context, reply *domain.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(reply.VoiceID)
	if i < 0 {
		return repository.ErrNotFound
	}
	r.voices[i].Replies = append(r.voices[i].Replies, *reply)
	return nil
}

func (r *VoiceRepo) SetLike(_ context.Context, voiceID, userID uuid.UUID, like bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(voiceID)
	if i < 0 {
		return 0, repository.ErrNotFound
	}

	v := r.voices[i]
	if like {
		if !slices.Contains(v.LikedBy, userID) {
			v.LikedBy = append(v.LikedBy, userID)
		}
	} else {
		v.LikedBy = slices.DeleteFunc(v.LikedBy, func(id uuid.UUID) bool { return id == userID })
	}

	v.Likes = len(v.LikedBy)
	return v.Likes, nil
}

func (r *VoiceRepo) Delete(_ context.Context, id, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 || r.voices[i].UserID != ownerID {
		return repository.ErrNotFound
	}
	r.voices = slices.Delete(r.voices, i, i+1)
	return nil
}

// indexOf must be called with the lock held.
func (r *VoiceRepo) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(r.voices, func(v *domain.Voice) bool { return v.ID == id })
}

func (r *VoiceRepo) list(keep func(*domain.Voice) bool) []domain.Voice {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Voice, 0, len(r.voices))
	for i := len(r.voices) - 1; i >= 0; i-- {
		if keep(r.voices[i]) {
			out = append(out, *copyVoice(r.voices[i]))
		}
	}
	return out
}

func copyVoice(v *domain.Voice) *domain.Voice {
	c := *v
	c.Replies = slices.Clone(v.Replies)
	c.LikedBy = slices.Clone(v.LikedBy)
	if c.Replies == nil {
		c.Replies = []domain.Reply{}
	}
	if c.LikedBy == nil {
		c.LikedBy = []uuid.UUID{}
	}
	return &c
}
