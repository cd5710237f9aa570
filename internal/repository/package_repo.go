package repository

import (
	"context"
	"errors"

	"nego/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const packageColumns = `id, coins, price::float8, price_in_kobo, display_name, description, popular, best_value,
	is_new, is_recommended, is_active, display_order`

// CoinPackageRepository manages the coin_packages catalogue
type CoinPackageRepository struct {
	db *pgxpool.Pool
}

func NewCoinPackageRepository(db *pgxpool.Pool) *CoinPackageRepository {
	return &CoinPackageRepository{db: db}
}

// ListActive returns active packages in display order
func (r *CoinPackageRepository) ListActive(ctx context.Context) ([]*domain.CoinPackage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+packageColumns+` FROM coin_packages WHERE is_active ORDER BY display_order ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.CoinPackage
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetActive returns nil, nil for unknown or disabled packages
func (r *CoinPackageRepository) GetActive(ctx context.Context, id string) (*domain.CoinPackage, error) {
	return scanPackage(r.db.QueryRow(ctx, `SELECT `+packageColumns+` FROM coin_packages WHERE id = $1 AND is_active`, id))
}

// ListAll includes disabled packages, for the admin catalogue
func (r *CoinPackageRepository) ListAll(ctx context.Context) ([]*domain.CoinPackage, error) {
	rows, err := r.db.Query(ctx, `SELECT `+packageColumns+` FROM coin_packages ORDER BY display_order ASC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.CoinPackage
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Create returns ErrConditionFailed when the id is taken.
func (r *CoinPackageRepository) Create(ctx context.Context, p *domain.CoinPackage) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO coin_packages (id, coins, price, price_in_kobo, display_name, description, popular, best_value,
			is_new, is_recommended, is_active, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`, p.ID, p.Coins, p.Price, p.PriceInKobo, p.DisplayName, p.Description, p.Popular, p.BestValue,
		p.IsNew, p.IsRecommended, p.IsActive, p.DisplayOrder)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

// Update rewrites every field but the id. Returns nil, nil when missing.
func (r *CoinPackageRepository) Update(ctx context.Context, p *domain.CoinPackage) (*domain.CoinPackage, error) {
	return scanPackage(r.db.QueryRow(ctx, `
		UPDATE coin_packages SET coins = $2, price = $3, price_in_kobo = $4, display_name = $5, description = $6,
			popular = $7, best_value = $8, is_new = $9, is_recommended = $10, is_active = $11, display_order = $12
		WHERE id = $1
		RETURNING `+packageColumns,
		p.ID, p.Coins, p.Price, p.PriceInKobo, p.DisplayName, p.Description, p.Popular, p.BestValue,
		p.IsNew, p.IsRecommended, p.IsActive, p.DisplayOrder))
}

// ToggleActive flips is_active. Returns nil, nil when missing.
func (r *CoinPackageRepository) ToggleActive(ctx context.Context, id string) (*domain.CoinPackage, error) {
	return scanPackage(r.db.QueryRow(ctx, `
		UPDATE coin_packages SET is_active = NOT is_active WHERE id = $1
		RETURNING `+packageColumns, id))
}

func scanPackage(row pgx.Row) (*domain.CoinPackage, error) {
	var p domain.CoinPackage
	if err := row.Scan(
		&p.ID, &p.Coins, &p.Price, &p.PriceInKobo, &p.DisplayName, &p.Description, &p.Popular, &p.BestValue,
		&p.IsNew, &p.IsRecommended, &p.IsActive, &p.DisplayOrder,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
