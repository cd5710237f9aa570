package repository

import (
	"context"
	"errors"

	"nego/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TalentServiceRepository stores talent service menus
type TalentServiceRepository struct {
	db *pgxpool.Pool
}

func NewTalentServiceRepository(db *pgxpool.Pool) *TalentServiceRepository {
	return &TalentServiceRepository{db: db}
}

func (r *TalentServiceRepository) Create(ctx context.Context, s *domain.TalentService) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO talent_services (talent_id, name, price, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, s.TalentID, s.Name, s.Price, s.IsActive).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *TalentServiceRepository) GetByID(ctx context.Context, id string) (*domain.TalentService, error) {
	return scanTalentService(r.db.QueryRow(ctx, `
		SELECT id, talent_id, name, price, is_active, created_at, updated_at
		FROM talent_services WHERE id = $1
	`, id))
}

// Update rewrites name, price and active flag; talentID guards ownership
func (r *TalentServiceRepository) Update(ctx context.Context, s *domain.TalentService) error {
	err := r.db.QueryRow(ctx, `
		UPDATE talent_services SET name = $3, price = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1 AND talent_id = $2
		RETURNING created_at, updated_at
	`, s.ID, s.TalentID, s.Name, s.Price, s.IsActive).Scan(&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConditionFailed
	}
	return err
}

func (r *TalentServiceRepository) Delete(ctx context.Context, id, talentID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM talent_services WHERE id = $1 AND talent_id = $2`, id, talentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

// ListByTalent returns the talent's menu; activeOnly hides disabled items
func (r *TalentServiceRepository) ListByTalent(ctx context.Context, talentID string, activeOnly bool) ([]*domain.TalentService, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, talent_id, name, price, is_active, created_at, updated_at
		FROM talent_services
		WHERE talent_id = $1 AND (NOT $2 OR is_active)
		ORDER BY price ASC
	`, talentID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTalentServices(rows)
}

// GetActiveByIDsWithTx loads the selected active services of one talent
func (r *TalentServiceRepository) GetActiveByIDsWithTx(ctx context.Context, tx pgx.Tx, talentID string, ids []string) ([]*domain.TalentService, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, talent_id, name, price, is_active, created_at, updated_at
		FROM talent_services
		WHERE talent_id = $1 AND is_active AND id::text = ANY($2)
	`, talentID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTalentServices(rows)
}

func scanTalentService(row pgx.Row) (*domain.TalentService, error) {
	var s domain.TalentService
	if err := row.Scan(&s.ID, &s.TalentID, &s.Name, &s.Price, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func scanTalentServices(rows pgx.Rows) ([]*domain.TalentService, error) {
	var result []*domain.TalentService
	for rows.Next() {
		s, err := scanTalentService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
