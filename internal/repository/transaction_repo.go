package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"nego/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `id, user_id, amount::float8, coins, type, status, reference, reference_id,
	description, metadata, created_at`

type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// GetByUserID returns recent transactions for a user
func (r *TransactionRepository) GetByUserID(ctx context.Context, userID string, limit int) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, clampLimit(limit, 50, 500))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// Create inserts a new transaction
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	return r.create(ctx, r.db, t)
}

// CreateWithTx inserts a transaction using an existing database transaction
func (r *TransactionRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	return r.create(ctx, tx, t)
}

func (r *TransactionRepository) create(ctx context.Context, q Querier, t *domain.Transaction) error {
	metaJSON, err := json.Marshal(t.Metadata)
	if err != nil || t.Metadata == nil {
		metaJSON = []byte("{}")
	}
	if t.Status == "" {
		t.Status = domain.TxStatusCompleted
	}

	return q.QueryRow(ctx, `
		INSERT INTO transactions (user_id, amount, coins, type, status, reference, reference_id, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, t.UserID, t.Amount, t.Coins, t.Type, t.Status, t.Reference, t.ReferenceID, t.Description, metaJSON,
	).Scan(&t.ID, &t.CreatedAt)
}

// GetByReference returns nil, nil for unknown references
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	return scanTransaction(r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE reference = $1`, reference))
}

// LockByReferenceWithTx locks a payment row so concurrent webhooks serialize on it
func (r *TransactionRepository) LockByReferenceWithTx(ctx context.Context, tx pgx.Tx, reference string) (*domain.Transaction, error) {
	return scanTransaction(tx.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE reference = $1 FOR UPDATE
	`, reference))
}

// CompletePendingWithTx flips pending -> completed. ErrConditionFailed means
// another request got there first.
func (r *TransactionRepository) CompletePendingWithTx(ctx context.Context, tx pgx.Tx, id string, meta map[string]interface{}) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil || meta == nil {
		metaJSON = []byte("{}")
	}
	tag, err := tx.Exec(ctx, `
		UPDATE transactions
		SET status = 'completed', metadata = metadata || $2::jsonb, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, metaJSON)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

// MarkFailed records a provider-side failure for a pending payment
func (r *TransactionRepository) MarkFailed(ctx context.Context, reference, reason string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE transactions
		SET status = 'failed', metadata = metadata || jsonb_build_object('failure_reason', $2::text), updated_at = NOW()
		WHERE reference = $1 AND status = 'pending'
	`, reference, reason)
	return err
}

// ExpirePending marks stale pending purchases as expired and returns how many
func (r *TransactionRepository) ExpirePending(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND type = 'purchase' AND created_at < $1
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RevenueTotal sums fiat amounts of completed purchases and deposits
func (r *TransactionRepository) RevenueTotal(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::float8 FROM transactions
		WHERE status = 'completed' AND type IN ('purchase', 'deposit')
	`).Scan(&total)
	return total, err
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t        domain.Transaction
		metaJSON []byte
	)
	if err := row.Scan(
		&t.ID, &t.UserID, &t.Amount, &t.Coins, &t.Type, &t.Status, &t.Reference, &t.ReferenceID,
		&t.Description, &metaJSON, &t.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(metaJSON) > 0 {
		_ = json.Unmarshal(metaJSON, &t.Metadata)
	}
	return &t, nil
}

func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var result []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
