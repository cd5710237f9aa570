package repository

import (
	"context"
	"errors"
	"time"

	"nego/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `id, email, password_hash, username, display_name, full_name, role, bio, location,
	avatar_url, status, is_verified, is_suspended, suspension_reason, suspended_at, admin_notes,
	created_at, updated_at`

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// CreateWithTx inserts a profile inside an existing transaction
func (r *ProfileRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, p *domain.Profile) error {
	return tx.QueryRow(ctx, `
		INSERT INTO profiles (email, password_hash, username, display_name, full_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at, updated_at
	`, p.Email, p.PasswordHash, p.Username, p.DisplayName, p.FullName, p.Role).
		Scan(&p.ID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID returns nil, nil when the profile does not exist
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return r.getByID(ctx, r.db, id)
}

// GetByIDWithTx locks the profile row for the rest of the transaction
func (r *ProfileRepository) GetByIDWithTx(ctx context.Context, tx pgx.Tx, id string) (*domain.Profile, error) {
	return scanProfile(tx.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1 FOR UPDATE`, id))
}

func (r *ProfileRepository) getByID(ctx context.Context, q Querier, id string) (*domain.Profile, error) {
	return scanProfile(q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1)`, email))
}

func (r *ProfileRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM profiles WHERE lower(email) = lower($1))`, email).Scan(&exists)
	return exists, err
}

// UsernameTaken checks uniqueness, ignoring the profile identified by excludeID
func (r *ProfileRepository) UsernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM profiles WHERE username = $1 AND id::text <> $2)
	`, username, excludeID).Scan(&exists)
	return exists, err
}

// Update applies the non-nil fields of patch
func (r *ProfileRepository) Update(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.Profile, error) {
	return scanProfile(r.db.QueryRow(ctx, `
		UPDATE profiles SET
			username     = COALESCE($2, username),
			display_name = COALESCE($3, display_name),
			full_name    = COALESCE($4, full_name),
			bio          = COALESCE($5, bio),
			location     = COALESCE($6, location),
			avatar_url   = COALESCE($7, avatar_url),
			status       = COALESCE($8, status),
			updated_at   = NOW()
		WHERE id = $1
		RETURNING `+profileColumns,
		id, patch.Username, patch.DisplayName, patch.FullName, patch.Bio, patch.Location, patch.AvatarURL, patch.Status,
	))
}

// ListTalents returns a page of non-suspended talents and the total match count
func (r *ProfileRepository) ListTalents(ctx context.Context, f domain.TalentFilter) ([]*domain.Profile, int64, error) {
	limit := clampLimit(f.Limit, 20, 100)
	skip := f.Skip
	if skip < 0 {
		skip = 0
	}

	where := `role = 'talent' AND is_suspended = FALSE
		AND ($1 = '' OR location ILIKE '%' || $1 || '%')
		AND ($2::boolean IS NULL OR is_verified = $2)`

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE `+where, f.Location, f.Verified).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+profileColumns+` FROM profiles WHERE `+where+`
		ORDER BY is_verified DESC, created_at DESC
		LIMIT $3 OFFSET $4
	`, f.Location, f.Verified, limit, skip)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	profiles, err := scanProfiles(rows)
	return profiles, total, err
}

// ListAll is the admin user listing
func (r *ProfileRepository) ListAll(ctx context.Context, role string, limit, offset int) ([]*domain.Profile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+profileColumns+` FROM profiles
		WHERE ($1 = '' OR role = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, role, clampLimit(limit, 50, 200), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func (r *ProfileRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE profiles SET is_verified = $2, updated_at = NOW() WHERE id = $1`, id, verified)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ProfileRepository) SetAdminNotes(ctx context.Context, id, notes string) error {
	tag, err := r.db.Exec(ctx, `UPDATE profiles SET admin_notes = $2, updated_at = NOW() WHERE id = $1`, id, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetSuspended writes the suspension triple as given; nil reason/at clear the columns
func (r *ProfileRepository) SetSuspended(ctx context.Context, id string, suspended bool, reason *string, at *time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE profiles
		SET is_suspended = $2, suspension_reason = $3, suspended_at = $4, updated_at = NOW()
		WHERE id = $1
	`, id, suspended, reason, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListAdminIDs is used to fan out admin notifications
func (r *ProfileRepository) ListAdminIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM profiles WHERE role = 'admin'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	if err := row.Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.Username, &p.DisplayName, &p.FullName, &p.Role, &p.Bio, &p.Location,
		&p.AvatarURL, &p.Status, &p.IsVerified, &p.IsSuspended, &p.SuspensionReason, &p.SuspendedAt, &p.AdminNotes,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func scanProfiles(rows pgx.Rows) ([]*domain.Profile, error) {
	var result []*domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
