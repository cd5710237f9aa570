package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nego/internal/cache"
	"nego/internal/config"
	"nego/internal/db"
	httpServer "nego/internal/http"
	"nego/internal/http/handlers"
	"nego/internal/http/middleware"
	"nego/internal/jobs"
	"nego/internal/logger"
	"nego/internal/moderation"
	"nego/internal/payment"
	"nego/internal/realtime"
	"nego/internal/service"
	"nego/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	rdb := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
	}

	store, err := storage.NewDisk(cfg.StorageDir, cfg.PublicBaseURL+"/storage")
	if err != nil {
		logger.Fatal("failed to open storage", "dir", cfg.StorageDir, "error", err)
	}

	h := buildHandler(cfg, dbPool, rdb, store)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := realtime.NewHub()
	go realtime.NewListener(cfg.DatabaseURL, hub).Run(ctx)

	scheduler, err := jobs.New(jobs.Config{
		PendingTxTTL:           cfg.PendingTxTTL,
		BookingPaymentTTL:      cfg.BookingPaymentTTL,
		BookingVerificationTTL: cfg.BookingVerifyTTL,
		DigestSpec:             cfg.DigestCron,
	}, h.PaymentService, h.BookingService, h.AdminService)
	if err != nil {
		logger.Fatal("failed to schedule jobs", "error", err)
	}
	scheduler.Start()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	// CORS for the web app on another origin
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Config:  cfg,
		DB:      dbPool,
		Redis:   rdb,
		Hub:     hub,
		Handler: h,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	stop()
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

func buildHandler(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, store storage.ObjectStore) *handlers.Handler {
	audit := service.NewAuditService(pool)
	notify := service.NewNotificationService(pool)
	wallet := service.NewWalletService(pool, cache.NewWalletCache(rdb))
	booking := service.NewBookingService(pool, wallet, notify)

	providers := service.PaymentProviders{
		Paystack:    payment.NewPaystack(cfg.PaystackBaseURL, cfg.PaystackSecretKey),
		NowPayments: payment.NewNowPayments(cfg.NowPaymentsAPIURL, cfg.NowPaymentsAPIKey, cfg.NowPaymentsIPNSecret),
		Segpay:      payment.NewSegpay(cfg.SegpayURL, cfg.SegpayPackageID, cfg.SegpayPostbackSecret),
	}

	return &handlers.Handler{
		AuthService:         service.NewAuthService(pool, wallet, audit),
		ProfileService:      service.NewProfileService(pool, cfg.MinServicePrice),
		WalletService:       wallet,
		GiftService:         service.NewGiftService(pool, wallet, notify, cfg.LowBalanceThreshold),
		BookingService:      booking,
		VerificationService: service.NewVerificationService(pool, booking, store, notify, audit),
		MediaService:        service.NewMediaService(pool, wallet, store, notify),
		ModerationService:   service.NewModerationService(pool, moderation.NewUndoStack(moderation.DefaultLimit), notify, audit),
		PaymentService:      service.NewPaymentService(pool, wallet, notify, audit, providers, cfg.PublicBaseURL, cfg.AppURL, cfg.LowBalanceThreshold),
		DepositService:      service.NewDepositService(pool, wallet, store, notify, audit),
		WithdrawalService:   service.NewWithdrawalService(pool, wallet, notify, audit, cfg.MinWithdrawalCoins),
		DisputeService:      service.NewDisputeService(pool, booking, notify, audit),
		NotificationService: notify,
		AdminService:        service.NewAdminService(pool, audit),
	}
}
