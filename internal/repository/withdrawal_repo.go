package repository

import (
	"context"
	"errors"
	"time"

	"nego/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const withdrawalColumns = `id, talent_id, amount, bank_name, account_number, account_name, status,
	admin_notes, processed_at, created_at`

type WithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create inserts a pending withdrawal request
func (r *WithdrawalRepository) Create(ctx context.Context, w *domain.WithdrawalRequest) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO withdrawal_requests (talent_id, amount, bank_name, account_number, account_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at
	`, w.TalentID, w.Amount, w.BankName, w.AccountNumber, w.AccountName).Scan(&w.ID, &w.Status, &w.CreatedAt)
}

// GetByID retrieves withdrawal by ID
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	return scanWithdrawal(r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id))
}

func (r *WithdrawalRepository) LockWithTx(ctx context.Context, tx pgx.Tx, id string) (*domain.WithdrawalRequest, error) {
	return scanWithdrawal(tx.QueryRow(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE
	`, id))
}

// GetByTalentID retrieves all withdrawals for a talent
func (r *WithdrawalRepository) GetByTalentID(ctx context.Context, talentID string, limit int) ([]*domain.WithdrawalRequest, error) {
	return r.list(ctx, `WHERE talent_id = $1 ORDER BY created_at DESC LIMIT $2`, talentID, clampLimit(limit, 50, 200))
}

// GetPending retrieves all pending withdrawals awaiting processing
func (r *WithdrawalRepository) GetPending(ctx context.Context) ([]*domain.WithdrawalRequest, error) {
	return r.list(ctx, `WHERE status = 'pending' ORDER BY created_at ASC`)
}

// HasPending checks if the talent already has a request in the queue
func (r *WithdrawalRepository) HasPending(ctx context.Context, talentID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM withdrawal_requests WHERE talent_id = $1 AND status = 'pending')
	`, talentID).Scan(&exists)
	return exists, err
}

// CloseWithTx moves a pending request to approved or rejected
func (r *WithdrawalRepository) CloseWithTx(ctx context.Context, tx pgx.Tx, id string, status domain.WithdrawalStatus, notes *string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE withdrawal_requests SET status = $2, admin_notes = $3, processed_at = $4
		WHERE id = $1 AND status = 'pending'
	`, id, status, notes, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (r *WithdrawalRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM withdrawal_requests WHERE status = 'pending'`).Scan(&n)
	return n, err
}

func (r *WithdrawalRepository) list(ctx context.Context, tail string, args ...any) ([]*domain.WithdrawalRequest, error) {
	rows, err := r.db.Query(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	var w domain.WithdrawalRequest
	if err := row.Scan(
		&w.ID, &w.TalentID, &w.Amount, &w.BankName, &w.AccountNumber, &w.AccountName, &w.Status,
		&w.AdminNotes, &w.ProcessedAt, &w.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}
