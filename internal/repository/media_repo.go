package repository

import (
	"context"
	"errors"
	"time"

	"nego/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const mediaColumns = `id, talent_id, url, storage_path, type, is_premium, unlock_price, moderation_status,
	moderation_notes, moderated_at, flagged, flagged_reason, created_at`

type MediaRepository struct {
	db *pgxpool.Pool
}

func NewMediaRepository(db *pgxpool.Pool) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Create(ctx context.Context, m *domain.Media) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO media (talent_id, url, storage_path, type, is_premium, unlock_price, moderation_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, m.TalentID, m.URL, m.StoragePath, m.Type, m.IsPremium, m.UnlockPrice, m.ModerationStatus,
	).Scan(&m.ID, &m.CreatedAt)
}

func (r *MediaRepository) GetByID(ctx context.Context, id string) (*domain.Media, error) {
	return scanMedia(r.db.QueryRow(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
}

func (r *MediaRepository) GetByIDWithTx(ctx context.Context, tx pgx.Tx, id string) (*domain.Media, error) {
	return scanMedia(tx.QueryRow(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
}

func (r *MediaRepository) Delete(ctx context.Context, id, talentID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media WHERE id = $1 AND talent_id = $2`, id, talentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

// ListPublic returns a talent's gallery without rejected items, newest first
func (r *MediaRepository) ListPublic(ctx context.Context, talentID string) ([]*domain.Media, error) {
	return r.query(ctx, `
		SELECT `+mediaColumns+` FROM media
		WHERE talent_id = $1 AND (moderation_status IS NULL OR moderation_status IN ('approved', 'pending'))
		ORDER BY created_at DESC
	`, talentID)
}

// ListByTalent returns everything the talent uploaded, including rejected items
func (r *MediaRepository) ListByTalent(ctx context.Context, talentID string) ([]*domain.Media, error) {
	return r.query(ctx, `SELECT `+mediaColumns+` FROM media WHERE talent_id = $1 ORDER BY created_at DESC`, talentID)
}

// ListForModeration filters by moderation status ("" = all, "unreviewed" = NULL) and flag
func (r *MediaRepository) ListForModeration(ctx context.Context, status string, flaggedOnly bool, limit int) ([]*domain.Media, error) {
	return r.query(ctx, `
		SELECT `+mediaColumns+` FROM media
		WHERE ($1 = '' OR ($1 = 'unreviewed' AND moderation_status IS NULL) OR moderation_status = $1)
		  AND (NOT $2 OR flagged)
		ORDER BY created_at ASC
		LIMIT $3
	`, status, flaggedOnly, clampLimit(limit, 100, 500))
}

// SetModeration writes status, notes and moderated_at exactly as given
func (r *MediaRepository) SetModeration(ctx context.Context, id string, status *domain.ModerationStatus, notes *string, at *time.Time) error {
	return r.exec(ctx, `
		UPDATE media SET moderation_status = $2, moderation_notes = $3, moderated_at = $4 WHERE id = $1
	`, id, status, notes, at)
}

// SetFlag writes the flag pair exactly as given
func (r *MediaRepository) SetFlag(ctx context.Context, id string, flagged bool, reason *string) error {
	return r.exec(ctx, `UPDATE media SET flagged = $2, flagged_reason = $3 WHERE id = $1`, id, flagged, reason)
}

// HasUnlock reports whether the user already owns the media item
func (r *MediaRepository) HasUnlock(ctx context.Context, q Querier, userID, mediaID string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM user_unlocks WHERE user_id = $1 AND media_id = $2)
	`, userID, mediaID).Scan(&exists)
	return exists, err
}

// CreateUnlockWithTx records ownership. false means it already existed.
func (r *MediaRepository) CreateUnlockWithTx(ctx context.Context, tx pgx.Tx, userID, mediaID string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO user_unlocks (user_id, media_id) VALUES ($1, $2)
		ON CONFLICT (user_id, media_id) DO NOTHING
	`, userID, mediaID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UnlockedIDs returns which of the talent's media the user owns
func (r *MediaRepository) UnlockedIDs(ctx context.Context, userID, talentID string) (map[string]bool, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.media_id FROM user_unlocks u
		JOIN media m ON m.id = u.media_id
		WHERE u.user_id = $1 AND m.talent_id = $2
	`, userID, talentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	result := make(map[string]bool, len(ids))
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *MediaRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM media WHERE moderation_status = 'pending' OR flagged`).Scan(&n)
	return n, err
}

func (r *MediaRepository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *MediaRepository) query(ctx context.Context, sql string, args ...any) ([]*domain.Media, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func scanMedia(row pgx.Row) (*domain.Media, error) {
	var m domain.Media
	if err := row.Scan(
		&m.ID, &m.TalentID, &m.URL, &m.StoragePath, &m.Type, &m.IsPremium, &m.UnlockPrice, &m.ModerationStatus,
		&m.ModerationNotes, &m.ModeratedAt, &m.Flagged, &m.FlaggedReason, &m.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
