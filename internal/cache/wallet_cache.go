package cache

import (
	"context"
	"time"

	"nego/internal/domain"
	"nego/internal/logger"

	"github.com/redis/go-redis/v9"
)

const walletTTL = 30 * time.Second

// WalletCache fronts wallet reads. All methods are no-ops on a nil client
// and swallow Redis errors, so the database stays the source of truth.
type WalletCache struct {
	rdb *redis.Client
}

func NewWalletCache(rdb *redis.Client) *WalletCache {
	return &WalletCache{rdb: rdb}
}

func walletKey(userID string) string { return "wallet:" + userID }

func (c *WalletCache) Get(ctx context.Context, userID string) (*domain.Wallet, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	var w domain.Wallet
	found, err := Get(ctx, c.rdb, walletKey(userID), &w)
	if err != nil {
		logger.Debug("wallet cache read failed", "user_id", userID, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &w, true
}

func (c *WalletCache) Set(ctx context.Context, w *domain.Wallet) {
	if c == nil || c.rdb == nil || w == nil {
		return
	}
	if err := Set(ctx, c.rdb, walletKey(w.UserID), w, walletTTL); err != nil {
		logger.Debug("wallet cache write failed", "user_id", w.UserID, "error", err)
	}
}

// Invalidate drops cached wallets after a balance mutation commits
func (c *WalletCache) Invalidate(ctx context.Context, userIDs ...string) {
	if c == nil || c.rdb == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = walletKey(id)
	}
	if err := Delete(ctx, c.rdb, keys...); err != nil {
		logger.Warn("wallet cache invalidation failed", "user_ids", userIDs, "error", err)
	}
}
