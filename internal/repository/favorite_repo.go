package repository

import (
	"context"

	"nego/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type FavoriteRepository struct {
	db *pgxpool.Pool
}

func NewFavoriteRepository(db *pgxpool.Pool) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) Add(ctx context.Context, userID, talentID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO favorites (user_id, talent_id) VALUES ($1, $2)
		ON CONFLICT (user_id, talent_id) DO NOTHING
	`, userID, talentID)
	return err
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, talentID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND talent_id = $2`, userID, talentID)
	return err
}

// ListTalents returns the favourited talent profiles, most recent first
func (r *FavoriteRepository) ListTalents(ctx context.Context, userID string) ([]*domain.Profile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+prefixedProfileColumns+`
		FROM favorites f
		JOIN profiles p ON p.id = f.talent_id
		WHERE f.user_id = $1 AND NOT p.is_suspended
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

const prefixedProfileColumns = `p.id, p.email, p.password_hash, p.username, p.display_name, p.full_name, p.role,
	p.bio, p.location, p.avatar_url, p.status, p.is_verified, p.is_suspended, p.suspension_reason, p.suspended_at,
	p.admin_notes, p.created_at, p.updated_at`
