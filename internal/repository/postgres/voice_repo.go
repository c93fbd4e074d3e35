package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/voiceapp/internal/domain"
	"github.com/vedran77/voiceapp/internal/repository"
)

// Likes are never stored as a number; the count is always len(liked_by).
const voiceSelect = `
	SELECT v.id, v.user_id, v.file, v.city, v.country, v.created_at,
		COALESCE((SELECT array_agg(l.user_id::text ORDER BY l.created_at)
			FROM voice_likes l WHERE l.voice_id = v.id), '{}')
	FROM voices v`

type VoiceRepo struct {
	pool *pgxpool.Pool
}

func NewVoiceRepo(pool *pgxpool.Pool) *VoiceRepo {
	return &VoiceRepo{pool: pool}
}

func (r *VoiceRepo) Create(ctx context.Context, voice *domain.Voice) error {
	query := `
		INSERT INTO voices (id, user_id, file, city, country, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		voice.ID, voice.UserID, voice.File, voice.City, voice.Country, voice.CreatedAt,
	)
	if pgCode(err) == foreignKeyViolation {
		return repository.ErrNotFound
	}
	return err
}

func (r *VoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Voice, error) {
	voices, err := r.query(ctx, voiceSelect+" WHERE v.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(voices) == 0 {
		return nil, nil
	}
	return &voices[0], nil
}

func (r *VoiceRepo) ListRecent(ctx context.Context) ([]domain.Voice, error) {
	return r.query(ctx, voiceSelect+" ORDER BY v.seq DESC")
}

func (r *VoiceRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Voice, error) {
	return r.query(ctx, voiceSelect+" WHERE v.user_id = $1 ORDER BY v.seq DESC", userID)
}

func (r *VoiceRepo) AddReply(ctx context.Context, reply *domain.Reply) error {
	query := `
		INSERT INTO voice_replies (id, voice_id, user_id, file, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query,
		reply.ID, reply.VoiceID, reply.UserID, reply.File, reply.CreatedAt,
	)
	if pgCode(err) == foreignKeyViolation {
		return repository.ErrNotFound
	}
	return err
}

func (r *VoiceRepo) SetLike(ctx context.Context, voiceID, userID uuid.UUID, like bool) (int, error) {
	var likes int
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM voices WHERE id = $1 FOR SHARE)", voiceID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}

		var err error
		if like {
			_, err = tx.Exec(ctx, `
				INSERT INTO voice_likes (voice_id, user_id, created_at)
				VALUES ($1, $2, now())
				ON CONFLICT (voice_id, user_id) DO NOTHING`, voiceID, userID)
		} else {
			_, err = tx.Exec(ctx,
				"DELETE FROM voice_likes WHERE voice_id = $1 AND user_id = $2", voiceID, userID)
		}
		if err != nil {
			return err
		}

		return tx.QueryRow(ctx,
			"SELECT COUNT(*) FROM voice_likes WHERE voice_id = $1", voiceID,
		).Scan(&likes)
	})
	if err != nil {
		return 0, err
	}
	return likes, nil
}

// Delete relies on ON DELETE CASCADE for replies and likes.
func (r *VoiceRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM voices WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *VoiceRepo) query(ctx context.Context, query string, args ...any) ([]domain.Voice, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	voices := []domain.Voice{}
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var v domain.Voice
		var likedBy []string
		if err := rows.Scan(&v.ID, &v.UserID, &v.File, &v.City, &v.Country, &v.CreatedAt, &likedBy); err != nil {
			return nil, err
		}
		v.LikedBy, err = parseUUIDs(likedBy)
		if err != nil {
			return nil, err
		}
		v.Likes = len(v.LikedBy)
		v.Replies = []domain.Reply{}
		index[v.ID] = len(voices)
		voices = append(voices, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(voices) == 0 {
		return voices, nil
	}
	if err := r.attachReplies(ctx, voices, index); err != nil {
		return nil, err
	}
	return voices, nil
}

func (r *VoiceRepo) attachReplies(ctx context.Context, voices []domain.Voice, index map[uuid.UUID]int) error {
	ids := make([]string, len(voices))
	for i, v := range voices {
		ids[i] = v.ID.String()
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, voice_id, user_id, file, created_at
		FROM voice_replies
		WHERE voice_id = ANY($1::uuid[])
		ORDER BY seq ASC`, ids)
	if err != nil {
		return fmt.Errorf("loading replies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rep domain.Reply
		if err := rows.Scan(&rep.ID, &rep.VoiceID, &rep.UserID, &rep.File, &rep.CreatedAt); err != nil {
			return err
		}
		if i, ok := index[rep.VoiceID]; ok {
			voices[i].Replies = append(voices[i].Replies, rep)
		}
	}
	return rows.Err()
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("bad uuid %q in liked_by", s), err)
		}
		out = append(out, id)
	}
	return out, nil
}
