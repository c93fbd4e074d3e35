package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vedran77/voiceapp/internal/domain"
	"github.com/vedran77/voiceapp/internal/repository"
)

var ErrVoiceNotFound = errors.New("voice not found")

// Notifier broadcasts feed changes to connected clients.
type Notifier interface {
	NotifyNewVoice(voice *domain.Voice)
	NotifyReply(voiceID uuid.UUID, reply *domain.Reply)
	NotifyLike(voiceID uuid.UUID, likes int)
	NotifyDeletedVoice(voiceID uuid.UUID)
}

type VoiceService struct {
	voiceRepo repository.VoiceRepository
	userRepo  repository.UserRepository
	clock     Clock
	notifier  Notifier
}

func NewVoiceService(voiceRepo repository.VoiceRepository, userRepo repository.UserRepository, clock Clock) *VoiceService {
	return &VoiceService{
		voiceRepo: voiceRepo,
		userRepo:  userRepo,
		clock:     clock,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *VoiceService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Post stores a new voice for userID. The audio file must already be
// persisted under filename.
func (s *VoiceService) Post(ctx context.Context, userID uuid.UUID, filename string) (*domain.Voice, error) {
	if filename == "" {
		return nil, ErrNoFileProvided
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	voice := &domain.Voice{
		ID:        uuid.New(),
		UserID:    user.ID,
		File:      filename,
		City:      user.City,
		Country:   user.Country,
		CreatedAt: s.clock.Now(),
		Replies:   []domain.Reply{},
		LikedBy:   []uuid.UUID{},
	}

	if err := s.voiceRepo.Create(ctx, voice); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("creating voice: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyNewVoice(voice)
	}

	return voice, nil
}

func (s *VoiceService) Reply(ctx context.Context, voiceID, userID uuid.UUID, filename string) (*domain.Reply, error) {
	if filename == "" {
		return nil, ErrNoFileProvided
	}

	reply := &domain.Reply{
		ID:        uuid.New(),
		VoiceID:   voiceID,
		UserID:    userID,
		File:      filename,
		CreatedAt: s.clock.Now(),
	}

	if err := s.voiceRepo.AddReply(ctx, reply); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVoiceNotFound
		}
		return nil, fmt.Errorf("adding reply: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyReply(voiceID, reply)
	}

	return reply, nil
}

// SetLike is idempotent in both directions. The returned count is always
// recomputed from the liking set.
func (s *VoiceService) SetLike(ctx context.Context, voiceID, userID uuid.UUID, like bool) (*domain.LikeResult, error) {
	likes, err := s.voiceRepo.SetLike(ctx, voiceID, userID, like)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVoiceNotFound
		}
		return nil, fmt.Errorf("setting like: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyLike(voiceID, likes)
	}

	return &domain.LikeResult{Likes: likes, LikedByUser: like}, nil
}

// Delete answers ErrVoiceNotFound both for unknown ids and for voices owned
// by someone else.
func (s *VoiceService) Delete(ctx context.Context, voiceID, userID uuid.UUID) error {
	if err := s.voiceRepo.Delete(ctx, voiceID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVoiceNotFound
		}
		return fmt.Errorf("deleting voice: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyDeletedVoice(voiceID)
	}

	return nil
}

// Feed lists every voice newest first, enriched for callerID.
func (s *VoiceService) Feed(ctx context.Context, callerID uuid.UUID) ([]domain.FeedVoice, error) {
	voices, err := s.voiceRepo.ListRecent(ctx)
	if err != nil {
		return nil, err
	}

	users := newUserCache(s.userRepo)
	feed := make([]domain.FeedVoice, 0, len(voices))
	for i := range voices {
		fv, err := s.enrich(ctx, users, &voices[i], callerID)
		if err != nil {
			return nil, err
		}
		feed = append(feed, *fv)
	}
	return feed, nil
}

func (s *VoiceService) Get(ctx context.Context, voiceID, callerID uuid.UUID) (*domain.FeedVoice, error) {
	voice, err := s.getVoice(ctx, voiceID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, newUserCache(s.userRepo), voice, callerID)
}

// Exists returns ErrVoiceNotFound when voiceID names no voice.
func (s *VoiceService) Exists(ctx context.Context, voiceID uuid.UUID) error {
	_, err := s.getVoice(ctx, voiceID)
	return err
}

func (s *VoiceService) Replies(ctx context.Context, voiceID uuid.UUID) ([]domain.FeedReply, error) {
	voice, err := s.getVoice(ctx, voiceID)
	if err != nil {
		return nil, err
	}
	return s.enrichReplies(ctx, newUserCache(s.userRepo), voice.Replies)
}

// Mine lists userID's own voices newest first. Replier data goes through
// the same public view as the feed.
func (s *VoiceService) Mine(ctx context.Context, userID uuid.UUID) ([]domain.MyVoice, error) {
	voices, err := s.voiceRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	users := newUserCache(s.userRepo)
	mine := make([]domain.MyVoice, 0, len(voices))
	for _, v := range voices {
		replies, err := s.enrichReplies(ctx, users, v.Replies)
		if err != nil {
			return nil, err
		}
		mine = append(mine, domain.MyVoice{
			ID:        v.ID,
			AudioURL:  domain.AudioURL(v.File),
			City:      v.City,
			Country:   v.Country,
			CreatedAt: v.CreatedAt,
			Likes:     len(v.LikedBy),
			Replies:   replies,
		})
	}
	return mine, nil
}

func (s *VoiceService) getVoice(ctx context.Context, voiceID uuid.UUID) (*domain.Voice, error) {
	voice, err := s.voiceRepo.GetByID(ctx, voiceID)
	if err != nil {
		return nil, err
	}
	if voice == nil {
		return nil, ErrVoiceNotFound
	}
	return voice, nil
}

func (s *VoiceService) enrich(ctx context.Context, users *userCache, v *domain.Voice, callerID uuid.UUID) (*domain.FeedVoice, error) {
	poster, err := users.get(ctx, v.UserID)
	if err != nil {
		return nil, err
	}
	replies, err := s.enrichReplies(ctx, users, v.Replies)
	if err != nil {
		return nil, err
	}

	return &domain.FeedVoice{
		ID:          v.ID,
		UserID:      v.UserID,
		AudioURL:    domain.AudioURL(v.File),
		City:        v.City,
		Country:     v.Country,
		CreatedAt:   v.CreatedAt,
		Likes:       len(v.LikedBy),
		LikedByUser: v.LikedByUser(callerID),
		User:        poster,
		Replies:     replies,
	}, nil
}

func (s *VoiceService) enrichReplies(ctx context.Context, users *userCache, replies []domain.Reply) ([]domain.FeedReply, error) {
	out := make([]domain.FeedReply, 0, len(replies))
	for _, r := range replies {
		u, err := users.get(ctx, r.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.FeedReply{
			ID:        r.ID,
			AudioURL:  domain.AudioURL(r.File),
			CreatedAt: r.CreatedAt,
			User:      u,
		})
	}
	return out, nil
}

// userCache memoizes public user lookups for the duration of one listing.
type userCache struct {
	repo  repository.UserRepository
	users map[uuid.UUID]domain.PublicUser
}

func newUserCache(repo repository.UserRepository) *userCache {
	return &userCache{repo: repo, users: make(map[uuid.UUID]domain.PublicUser)}
}

func (c *userCache) get(ctx context.Context, id uuid.UUID) (domain.PublicUser, error) {
	if u, ok := c.users[id]; ok {
		return u, nil
	}

	user, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return domain.PublicUser{}, fmt.Errorf("loading user %s: %w", id, err)
	}

	pub := domain.UnknownUser(id)
	if user != nil {
		pub = user.Public()
	}
	c.users[id] = pub
	return pub, nil
}
