package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"nego/internal/domain"
	"nego/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txTypes(t *testing.T, e *env, userID string) map[domain.TransactionType]int64 {
	t.Helper()
	list, err := e.wallet.Transactions(context.Background(), userID, 50)
	require.NoError(t, err)
	out := map[domain.TransactionType]int64{}
	for _, tx := range list {
		out[tx.Type] += tx.Coins
	}
	return out
}

func TestPremiumUnlock(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	talent := e.newUser(t, domain.RoleTalent, 0)
	client := e.newUser(t, domain.RoleClient, 1_000)
	poor := e.newUser(t, domain.RoleClient, 100)

	m, err := e.media.Upload(ctx, talent.ID, service.UploadInput{
		Filename:    "private.png",
		ContentType: "image/png",
		Data:        pngBytes(t),
		IsPremium:   true,
		UnlockPrice: 500,
	})
	require.NoError(t, err)

	anon, err := e.media.PublicMedia(ctx, talent.ID, "", "")
	require.NoError(t, err)
	require.Len(t, anon, 1)
	assert.Empty(t, anon[0].URL)
	assert.Empty(t, anon[0].StoragePath)

	res, err := e.media.Unlock(ctx, client.ID, m.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyOwned)
	assert.Equal(t, int64(500), res.CoinsSpent)
	assert.Equal(t, int64(500), res.NewBalance)
	assert.Equal(t, m.URL, res.URL)

	assert.Equal(t, int64(500), e.balance(t, client.ID).Balance)
	assert.Equal(t, int64(500), e.balance(t, talent.ID).Balance)
	assert.Equal(t, int64(-500), txTypes(t, e, client.ID)[domain.TxUnlock])
	assert.Equal(t, int64(500), txTypes(t, e, talent.ID)[domain.TxUnlockEarning])

	again, err := e.media.Unlock(ctx, client.ID, m.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyOwned)
	assert.Zero(t, again.CoinsSpent)
	assert.Equal(t, int64(500), e.balance(t, client.ID).Balance)

	_, err = e.media.Unlock(ctx, poor.ID, m.ID)
	require.ErrorIs(t, err, service.ErrInsufficientFunds)
	assert.Equal(t, int64(100), e.balance(t, poor.ID).Balance)
	assert.Equal(t, int64(500), e.balance(t, talent.ID).Balance)

	seen, err := e.media.PublicMedia(ctx, talent.ID, client.ID, domain.RoleClient)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, m.URL, seen[0].URL)

	hidden, err := e.media.PublicMedia(ctx, talent.ID, poor.ID, domain.RoleClient)
	require.NoError(t, err)
	assert.Empty(t, hidden[0].URL)

	detail, err := e.profiles.GetTalent(ctx, talent.ID, client.ID, domain.RoleClient)
	require.NoError(t, err)
	assert.True(t, detail.Unlocked[m.ID])
}

func TestDuplicateUploadNameRetries(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	talent := e.newUser(t, domain.RoleTalent, 0)

	frozen := time.Now()
	media := service.NewMediaService(e.pool, e.wallet, e.store, nil).WithClock(func() time.Time { return frozen })
	in := service.UploadInput{Filename: "same.png", ContentType: "image/png", Data: pngBytes(t)}

	first, err := media.Upload(ctx, talent.ID, in)
	require.NoError(t, err)
	second, err := media.Upload(ctx, talent.ID, in)
	require.NoError(t, err)

	assert.NotEqual(t, first.StoragePath, second.StoragePath)
	assert.True(t, strings.HasSuffix(second.StoragePath, "_same.jpg"))
	// {talent}/{ms}_{rand7}_{name}
	parts := strings.SplitN(strings.TrimPrefix(second.StoragePath, talent.ID+"/"), "_", 3)
	require.Len(t, parts, 3)
	assert.Len(t, parts[1], 7)
}

func TestCancelRefundsEscrow(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	client := e.newUser(t, domain.RoleClient, 15_000)
	talent := e.newUser(t, domain.RoleTalent, 0)

	b := bookTalent(t, e, client, talent)
	w := e.balance(t, client.ID)
	assert.Equal(t, int64(3_000), w.Balance)
	assert.Equal(t, int64(12_000), w.EscrowBalance)

	_, err := e.bookings.Cancel(ctx, uuid.NewString(), b.ID, "")
	require.ErrorIs(t, err, service.ErrForbidden)

	got, err := e.bookings.Cancel(ctx, talent.ID, b.ID, "schedule clash")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)

	w = e.balance(t, client.ID)
	assert.Equal(t, int64(15_000), w.Balance)
	assert.Zero(t, w.EscrowBalance)
	assert.Equal(t, int64(12_000), txTypes(t, e, client.ID)[domain.TxRefund])

	_, err = e.bookings.Cancel(ctx, client.ID, b.ID, "")
	require.ErrorIs(t, err, service.ErrInvalidState)
	assert.Equal(t, int64(15_000), e.balance(t, client.ID).Balance)
}

func TestDepositApproval(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	client := e.newUser(t, domain.RoleClient, 0)
	admin := e.newUser(t, domain.RoleAdmin, 0)

	d, err := e.deposits.CreateDepositRequest(ctx, client.ID, 12_345, "http://test/storage/proofs/r.jpg", "TRF-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusPending, d.Status)

	d, err = e.deposits.ApproveDeposit(ctx, admin.ID, d.ID, "matched statement", service.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusApproved, d.Status)
	assert.Equal(t, int64(1_234), e.balance(t, client.ID).Balance)
	assert.Equal(t, int64(1_234), txTypes(t, e, client.ID)[domain.TxDeposit])

	_, err = e.deposits.ApproveDeposit(ctx, admin.ID, d.ID, "", service.RequestMeta{})
	require.ErrorIs(t, err, service.ErrInvalidState)
	_, err = e.deposits.RejectDeposit(ctx, admin.ID, d.ID, "", service.RequestMeta{})
	require.ErrorIs(t, err, service.ErrInvalidState)
	assert.Equal(t, int64(1_234), e.balance(t, client.ID).Balance)
}

func TestStaleBookingsExpire(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	client := e.newUser(t, domain.RoleClient, 24_000)
	talent := e.newUser(t, domain.RoleTalent, 0)

	stale := bookTalent(t, e, client, talent)
	fresh := bookTalent(t, e, client, talent)
	_, err := e.pool.Exec(ctx, `UPDATE bookings SET updated_at = NOW() - INTERVAL '2 days' WHERE id = $1`, stale.ID)
	require.NoError(t, err)

	n, err := e.bookings.ExpireStale(ctx, time.Hour, 24*time.Hour)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	got, err := e.bookings.Get(ctx, client.ID, domain.RoleClient, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	got, err = e.bookings.Get(ctx, client.ID, domain.RoleClient, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingVerificationPending, got.Status)

	w := e.balance(t, client.ID)
	assert.Equal(t, int64(12_000), w.Balance)
	assert.Equal(t, int64(12_000), w.EscrowBalance)

	var notices int
	require.NoError(t, e.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND type = $2`, client.ID, domain.NotifyBookingExpired,
	).Scan(&notices))
	assert.Equal(t, 1, notices)

	// a second sweep finds nothing of ours
	_, err = e.bookings.ExpireStale(ctx, time.Hour, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(12_000), e.balance(t, client.ID).Balance)
}

func TestCoinPackageCatalogue(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	admin := e.newUser(t, domain.RoleAdmin, 0)
	id := "it-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		_, _ = e.pool.Exec(context.Background(), `DELETE FROM coin_packages WHERE id = $1`, id)
	})

	p, err := e.payments.CreatePackage(ctx, admin.ID, service.PackageInput{ID: id, Coins: 3_000, Description: "Weekend"}, service.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 30_000.0, p.Price)
	assert.True(t, p.IsActive)

	_, err = e.payments.CreatePackage(ctx, admin.ID, service.PackageInput{ID: id, Coins: 10}, service.RequestMeta{})
	require.ErrorIs(t, err, service.ErrConflict)

	assert.NotNil(t, e.payments.PackageByID(ctx, id))

	price := 27_000.0
	p, err = e.payments.UpdatePackage(ctx, admin.ID, id, service.PackageInput{Coins: 3_000, Price: &price, DisplayName: "Weekend deal"}, service.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, int64(2_700_000), p.PriceInKobo)
	assert.Equal(t, "Weekend deal", p.DisplayName)

	p, err = e.payments.TogglePackage(ctx, admin.ID, id, service.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, p.IsActive)
	assert.Nil(t, e.payments.PackageByID(ctx, id))

	all, err := e.payments.AllPackages(ctx)
	require.NoError(t, err)
	found := false
	for _, pkg := range all {
		found = found || pkg.ID == id
	}
	assert.True(t, found)

	_, err = e.payments.TogglePackage(ctx, admin.ID, "it-missing", service.RequestMeta{})
	require.ErrorIs(t, err, service.ErrNotFound)
	_, err = e.payments.UpdatePackage(ctx, admin.ID, "it-missing", service.PackageInput{Coins: 5}, service.RequestMeta{})
	require.ErrorIs(t, err, service.ErrNotFound)
}
