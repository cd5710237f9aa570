package cache

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"nego/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilWalletCacheIsNoop(t *testing.T) {
	var c *WalletCache
	ctx := context.Background()

	c.Set(ctx, &domain.Wallet{UserID: "u1", Balance: 10})
	c.Invalidate(ctx, "u1")
	_, ok := c.Get(ctx, "u1")
	assert.False(t, ok)

	c = NewWalletCache(nil)
	_, ok = c.Get(ctx, "u1")
	assert.False(t, ok)
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestWalletCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	rdb := Connect(addr, os.Getenv("REDIS_PASSWORD"), db)
	require.NotNil(t, rdb)
	defer rdb.Close()

	c := NewWalletCache(rdb)
	ctx := context.Background()
	userID := "test-" + strconv.FormatInt(time.Now().UnixNano(), 10)

	c.Set(ctx, &domain.Wallet{UserID: userID, Balance: 500, EscrowBalance: 20})
	w, ok := c.Get(ctx, userID)
	require.True(t, ok)
	assert.Equal(t, int64(500), w.Balance)
	assert.Equal(t, int64(20), w.EscrowBalance)

	c.Invalidate(ctx, userID)
	_, ok = c.Get(ctx, userID)
	assert.False(t, ok)
}
