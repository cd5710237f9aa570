package repository

import (
	"context"
	"errors"

	"nego/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConditionFailed is returned by guarded updates whose WHERE clause
// matched nothing (insufficient balance, wrong status, ...).
var ErrConditionFailed = errors.New("condition failed")

type WalletRepository struct {
	db *pgxpool.Pool
}

func NewWalletRepository(db *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetByUserID returns nil, nil when the user has no wallet row yet
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	return scanWallet(r.db.QueryRow(ctx, `
		SELECT user_id, balance, escrow_balance, updated_at FROM wallets WHERE user_id = $1
	`, userID))
}

// Ensure creates an empty wallet if missing
func (r *WalletRepository) Ensure(ctx context.Context, q Querier, userID string) error {
	_, err := q.Exec(ctx, `INSERT INTO wallets (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	return err
}

// LockWithTx creates the wallet if needed and locks it for the transaction
func (r *WalletRepository) LockWithTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.Wallet, error) {
	if err := r.Ensure(ctx, tx, userID); err != nil {
		return nil, err
	}
	return scanWallet(tx.QueryRow(ctx, `
		SELECT user_id, balance, escrow_balance, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE
	`, userID))
}

// DebitWithTx removes coins from the spendable balance.
// Returns ErrConditionFailed when the balance is too low.
func (r *WalletRepository) DebitWithTx(ctx context.Context, tx pgx.Tx, userID string, amount int64) (*domain.Wallet, error) {
	return r.guarded(ctx, tx, `
		UPDATE wallets SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING user_id, balance, escrow_balance, updated_at
	`, userID, amount)
}

// CreditWithTx adds coins, creating the wallet when it does not exist
func (r *WalletRepository) CreditWithTx(ctx context.Context, tx pgx.Tx, userID string, amount int64) (*domain.Wallet, error) {
	return scanWallet(tx.QueryRow(ctx, `
		INSERT INTO wallets (user_id, balance) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET balance = wallets.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING user_id, balance, escrow_balance, updated_at
	`, userID, amount))
}

// HoldWithTx moves coins from balance into escrow
func (r *WalletRepository) HoldWithTx(ctx context.Context, tx pgx.Tx, userID string, amount int64) (*domain.Wallet, error) {
	return r.guarded(ctx, tx, `
		UPDATE wallets
		SET balance = balance - $2, escrow_balance = escrow_balance + $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING user_id, balance, escrow_balance, updated_at
	`, userID, amount)
}

// ReleaseEscrowWithTx drops up to amount from escrow without returning it to
// balance (the coins have been paid out to someone else). Escrow floors at 0.
func (r *WalletRepository) ReleaseEscrowWithTx(ctx context.Context, tx pgx.Tx, userID string, amount int64) (*domain.Wallet, error) {
	return scanWallet(tx.QueryRow(ctx, `
		UPDATE wallets SET escrow_balance = GREATEST(0, escrow_balance - $2), updated_at = NOW()
		WHERE user_id = $1
		RETURNING user_id, balance, escrow_balance, updated_at
	`, userID, amount))
}

// AdjustWithTx applies signed deltas to balance and escrow in one statement
func (r *WalletRepository) AdjustWithTx(ctx context.Context, tx pgx.Tx, userID string, balanceDelta, escrowDelta int64) (*domain.Wallet, error) {
	return r.guarded(ctx, tx, `
		UPDATE wallets
		SET balance = balance + $2, escrow_balance = escrow_balance + $3, updated_at = NOW()
		WHERE user_id = $1 AND balance + $2 >= 0 AND escrow_balance + $3 >= 0
		RETURNING user_id, balance, escrow_balance, updated_at
	`, userID, balanceDelta, escrowDelta)
}

// Totals returns coins in circulation and coins held in escrow
func (r *WalletRepository) Totals(ctx context.Context) (balance, escrow int64, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(balance), 0)::bigint, COALESCE(SUM(escrow_balance), 0)::bigint FROM wallets
	`).Scan(&balance, &escrow)
	return balance, escrow, err
}

func (r *WalletRepository) guarded(ctx context.Context, tx pgx.Tx, sql string, args ...any) (*domain.Wallet, error) {
	w, err := scanWallet(tx.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrConditionFailed
	}
	return w, nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := row.Scan(&w.UserID, &w.Balance, &w.EscrowBalance, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}
