package service

import (
	"context"
	"errors"

	"nego/internal/cache"
	"nego/internal/db"
	"nego/internal/domain"
	"nego/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WalletService owns every balance and escrow mutation. The *WithTx helpers
// expect the caller's transaction and never commit.
type WalletService struct {
	db      *pgxpool.Pool
	wallets *repository.WalletRepository
	txs     *repository.TransactionRepository
	cache   *cache.WalletCache
}

func NewWalletService(pool *pgxpool.Pool, wc *cache.WalletCache) *WalletService {
	return &WalletService{
		db:      pool,
		wallets: repository.NewWalletRepository(pool),
		txs:     repository.NewTransactionRepository(pool),
		cache:   wc,
	}
}

// GetWallet returns the user's wallet, creating an empty one if missing.
func (s *WalletService) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	if w, ok := s.cache.Get(ctx, userID); ok {
		return w, nil
	}

	w, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		if err := s.wallets.Ensure(ctx, s.db, userID); err != nil {
			return nil, err
		}
		if w, err = s.wallets.GetByUserID(ctx, userID); err != nil {
			return nil, err
		}
		if w == nil {
			return nil, ErrUserNotFound
		}
	}

	s.cache.Set(ctx, w)
	return w, nil
}

func (s *WalletService) Transactions(ctx context.Context, userID string, limit int) ([]*domain.Transaction, error) {
	return s.txs.GetByUserID(ctx, userID, limit)
}

// Invalidate drops cached wallets after a committed mutation.
func (s *WalletService) Invalidate(ctx context.Context, userIDs ...string) {
	s.cache.Invalidate(ctx, userIDs...)
}

// RefundSplit works out how a refund of amount moves a wallet holding
// escrow coins. The escrow hold is released as far as it goes and the
// whole amount returns to the spendable balance.
func RefundSplit(escrow, amount int64) (escrowDelta, balanceDelta int64) {
	if amount <= 0 {
		return 0, 0
	}
	released := min(max(escrow, 0), amount)
	return -released, amount
}

// lockPair locks two wallets in a stable order so concurrent transfers
// between the same users cannot deadlock.
func (s *WalletService) lockPair(ctx context.Context, tx pgx.Tx, a, b string) (wa, wb *domain.Wallet, err error) {
	first, second := a, b
	if first > second {
		first, second = second, first
	}
	w1, err := s.wallets.LockWithTx(ctx, tx, first)
	if err != nil {
		return nil, nil, err
	}
	w2, err := s.wallets.LockWithTx(ctx, tx, second)
	if err != nil {
		return nil, nil, err
	}
	if first == a {
		return w1, w2, nil
	}
	return w2, w1, nil
}

func (s *WalletService) debitWithTx(ctx context.Context, tx pgx.Tx, userID string, amount int64) (*domain.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	w, err := s.wallets.DebitWithTx(ctx, tx, userID, amount)
	if errors.Is(err, repository.ErrConditionFailed) {
		return nil, ErrInsufficientFunds
	}
	return w, err
}

func (s *WalletService) creditWithTx(ctx context.Context, tx pgx.Tx, userID string, amount int64) (*domain.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.wallets.CreditWithTx(ctx, tx, userID, amount)
}

func (s *WalletService) moveToEscrowWithTx(ctx context.Context, tx pgx.Tx, userID string, amount int64) (*domain.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := s.wallets.LockWithTx(ctx, tx, userID); err != nil {
		return nil, err
	}
	w, err := s.wallets.HoldWithTx(ctx, tx, userID, amount)
	if errors.Is(err, repository.ErrConditionFailed) {
		return nil, ErrInsufficientFunds
	}
	return w, err
}

// releaseEscrowWithTx drops a hold whose coins were paid to someone else.
func (s *WalletService) releaseEscrowWithTx(ctx context.Context, tx pgx.Tx, userID string, amount int64) (*domain.Wallet, error) {
	if _, err := s.wallets.LockWithTx(ctx, tx, userID); err != nil {
		return nil, err
	}
	return s.wallets.ReleaseEscrowWithTx(ctx, tx, userID, amount)
}

// refundFromEscrowWithTx returns a held amount to the spendable balance.
func (s *WalletService) refundFromEscrowWithTx(ctx context.Context, tx pgx.Tx, userID string, amount int64) (*domain.Wallet, error) {
	w, err := s.wallets.LockWithTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	escrowDelta, balanceDelta := RefundSplit(w.EscrowBalance, amount)
	return s.wallets.AdjustWithTx(ctx, tx, userID, balanceDelta, escrowDelta)
}

func (s *WalletService) recordWithTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	return s.txs.CreateWithTx(ctx, tx, t)
}

func (s *WalletService) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return db.WithTx(ctx, s.db, fn)
}
