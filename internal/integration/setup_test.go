package integration

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"nego/internal/cache"
	"nego/internal/db"
	"nego/internal/domain"
	"nego/internal/moderation"
	"nego/internal/payment"
	"nego/internal/repository"
	"nego/internal/service"
	"nego/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

type env struct {
	dsn   string
	pool  *pgxpool.Pool
	store *storage.Disk

	auth         *service.AuthService
	wallet       *service.WalletService
	profiles     *service.ProfileService
	gifts        *service.GiftService
	bookings     *service.BookingService
	verification *service.VerificationService
	media        *service.MediaService
	moderation   *service.ModerationService
	payments     *service.PaymentService
	withdrawals  *service.WithdrawalService
	disputes     *service.DisputeService
	deposits     *service.DepositService
}

func setup(t *testing.T) *env {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	service.InitJWT("integration-secret", time.Hour)

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	applyMigrations(t, pool)

	store, err := storage.NewDisk(t.TempDir(), "http://test/storage")
	require.NoError(t, err)

	audit := service.NewAuditService(pool)
	notify := service.NewNotificationService(pool)
	wallet := service.NewWalletService(pool, cache.NewWalletCache(nil))
	booking := service.NewBookingService(pool, wallet, notify)
	providers := service.PaymentProviders{
		Paystack: payment.NewPaystack("http://paystack.invalid", "sk_test_integration"),
		Segpay:   payment.NewSegpay("https://segpay.invalid/poset", "pkg", "segpay-postback"),
	}

	return &env{
		dsn:          dsn,
		pool:         pool,
		store:        store,
		auth:         service.NewAuthService(pool, wallet, audit),
		wallet:       wallet,
		profiles:     service.NewProfileService(pool, domain.DefaultMinServicePrice),
		gifts:        service.NewGiftService(pool, wallet, notify, domain.DefaultLowBalanceThreshold),
		bookings:     booking,
		verification: service.NewVerificationService(pool, booking, store, notify, audit),
		media:        service.NewMediaService(pool, wallet, store, notify),
		moderation:   service.NewModerationService(pool, moderation.NewUndoStack(moderation.DefaultLimit), notify, audit),
		payments:     service.NewPaymentService(pool, wallet, notify, audit, providers, "http://api", "http://app", domain.DefaultLowBalanceThreshold),
		withdrawals:  service.NewWithdrawalService(pool, wallet, notify, audit, domain.DefaultMinWithdrawal),
		disputes:     service.NewDisputeService(pool, booking, notify, audit),
		deposits:     service.NewDepositService(pool, wallet, store, notify, audit),
	}
}

func applyMigrations(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	dir := filepath.Join("..", "migrations")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".sql" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		_, err = pool.Exec(context.Background(), string(b))
		require.NoError(t, err, "apply %s", name)
	}
}

// newUser registers a fresh account and credits it with coins.
func (e *env) newUser(t *testing.T, role domain.Role, coins int64) *domain.Profile {
	t.Helper()
	ctx := context.Background()
	short := uuid.NewString()[:8]

	regRole := role
	if role == domain.RoleAdmin {
		regRole = domain.RoleClient
	}
	res, err := e.auth.Register(ctx, service.RegisterInput{
		Email:       "it_" + short + "@nego.test",
		Password:    "password123",
		Username:    "it_" + short,
		DisplayName: "IT " + short,
		Role:        regRole,
	}, service.RequestMeta{})
	require.NoError(t, err)

	p := res.Profile
	if role == domain.RoleAdmin {
		_, err := e.pool.Exec(ctx, `UPDATE profiles SET role = 'admin' WHERE id = $1`, p.ID)
		require.NoError(t, err)
		p.Role = domain.RoleAdmin
	}
	if coins > 0 {
		e.fund(t, p.ID, coins)
	}
	return p
}

func (e *env) fund(t *testing.T, userID string, coins int64) {
	t.Helper()
	ctx := context.Background()
	wallets := repository.NewWalletRepository(e.pool)
	err := db.WithTx(ctx, e.pool, func(tx pgx.Tx) error {
		_, err := wallets.CreditWithTx(ctx, tx, userID, coins)
		return err
	})
	require.NoError(t, err)
}

func (e *env) balance(t *testing.T, userID string) *domain.Wallet {
	t.Helper()
	w, err := e.wallet.GetWallet(context.Background(), userID)
	require.NoError(t, err)
	return w
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		for y := 0; y < 24; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// tomorrow returns a booking slot a day ahead in West Africa Time.
func tomorrow() (date, clock string) {
	t := time.Now().In(time.FixedZone("WAT", 3600)).Add(24 * time.Hour)
	return t.Format("2006-01-02"), "12:00"
}
