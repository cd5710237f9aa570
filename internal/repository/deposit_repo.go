package repository

import (
	"context"
	"errors"
	"time"

	"nego/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const depositColumns = `id, user_id, amount::float8, proof_url, reference, status, admin_notes,
	reviewed_by, reviewed_at, created_at`

// DepositRepository stores manual bank-transfer deposit requests
type DepositRepository struct {
	db *pgxpool.Pool
}

func NewDepositRepository(db *pgxpool.Pool) *DepositRepository {
	return &DepositRepository{db: db}
}

func (r *DepositRepository) Create(ctx context.Context, d *domain.DepositRequest) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO deposit_requests (user_id, amount, proof_url, reference)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at
	`, d.UserID, d.Amount, d.ProofURL, d.Reference).Scan(&d.ID, &d.Status, &d.CreatedAt)
}

// GetByID retrieves deposit request by ID
func (r *DepositRepository) GetByID(ctx context.Context, id string) (*domain.DepositRequest, error) {
	return scanDeposit(r.db.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposit_requests WHERE id = $1`, id))
}

func (r *DepositRepository) LockWithTx(ctx context.Context, tx pgx.Tx, id string) (*domain.DepositRequest, error) {
	return scanDeposit(tx.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposit_requests WHERE id = $1 FOR UPDATE`, id))
}

// GetByUserID retrieves the user's deposit requests
func (r *DepositRepository) GetByUserID(ctx context.Context, userID string, limit int) ([]*domain.DepositRequest, error) {
	return r.list(ctx, `WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, clampLimit(limit, 50, 200))
}

// GetPending retrieves requests awaiting review, oldest first
func (r *DepositRepository) GetPending(ctx context.Context) ([]*domain.DepositRequest, error) {
	return r.list(ctx, `WHERE status = 'pending' ORDER BY created_at ASC`)
}

// ReviewWithTx closes a pending request
func (r *DepositRepository) ReviewWithTx(ctx context.Context, tx pgx.Tx, id string, status domain.DepositStatus, adminID string, notes *string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE deposit_requests
		SET status = $2, reviewed_by = $3, admin_notes = $4, reviewed_at = $5
		WHERE id = $1 AND status = 'pending'
	`, id, status, adminID, notes, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (r *DepositRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM deposit_requests WHERE status = 'pending'`).Scan(&n)
	return n, err
}

func (r *DepositRepository) list(ctx context.Context, tail string, args ...any) ([]*domain.DepositRequest, error) {
	rows, err := r.db.Query(ctx, `SELECT `+depositColumns+` FROM deposit_requests `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.DepositRequest
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func scanDeposit(row pgx.Row) (*domain.DepositRequest, error) {
	var d domain.DepositRequest
	if err := row.Scan(
		&d.ID, &d.UserID, &d.Amount, &d.ProofURL, &d.Reference, &d.Status, &d.AdminNotes,
		&d.ReviewedBy, &d.ReviewedAt, &d.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}
