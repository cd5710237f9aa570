package http

import (
	"nego/internal/config"
	"nego/internal/http/handlers"
	"nego/internal/http/middleware"
	"nego/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Deps is what the router needs from main. Redis may be nil.
type Deps struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Hub     *realtime.Hub
	Handler *handlers.Handler
	Version string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	h := d.Handler
	health := handlers.NewHealthHandler(d.DB, d.Redis, d.Hub, d.Version)

	middleware.UseRedis(d.Redis)

	// no rate limiting
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/realtime", realtime.HandleRealtime(d.Hub, cfg.AllowedOrigin))
	r.Static("/storage", cfg.StorageDir)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))

	authRL := middleware.RedisRateLimit(cfg.AuthRateLimit, cfg.AuthRateWindow)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authRL, h.Register)
		auth.POST("/login", authRL, h.Login)
		auth.GET("/username-available", middleware.OptionalJWT(), h.UsernameAvailable)
	}

	me := v1.Group("/me", middleware.JWT())
	{
		me.GET("", h.Me)
		me.PATCH("", h.UpdateMe)
		me.GET("/services", h.MyServices)
		me.GET("/media", h.MyMedia)
	}

	v1.GET("/profiles/:id", middleware.OptionalJWT(), h.Profile)

	talents := v1.Group("/talents")
	{
		talents.GET("", h.ListTalents)
		talents.GET("/:id", middleware.OptionalJWT(), h.Talent)
		talents.GET("/:id/media", middleware.OptionalJWT(), h.TalentMedia)
		talents.GET("/:id/gifters", h.TalentGifters)
	}

	services := v1.Group("/services", middleware.JWT())
	{
		services.POST("", h.AddService)
		services.PATCH("/:id", h.UpdateService)
		services.DELETE("/:id", h.DeleteService)
	}

	favorites := v1.Group("/favorites", middleware.JWT())
	{
		favorites.GET("", h.Favorites)
		favorites.POST("/:id", h.AddFavorite)
		favorites.DELETE("/:id", h.RemoveFavorite)
	}

	wallet := v1.Group("/wallet", middleware.JWT())
	{
		wallet.GET("", h.Wallet)
		wallet.GET("/transactions", h.Transactions)
	}

	gifts := v1.Group("/gifts", middleware.JWT())
	{
		gifts.POST("", h.SendGift)
		gifts.GET("", h.GiftHistory)
	}

	bookings := v1.Group("/bookings", middleware.JWT())
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/accept", h.AcceptBooking)
		bookings.POST("/:id/complete", h.CompleteBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.GET("/:id/verification", h.VerificationProgress)
		bookings.POST("/:id/verification", h.SubmitVerification)
	}

	media := v1.Group("/media", middleware.JWT())
	{
		media.POST("", h.UploadMedia)
		media.POST("/:id/unlock", h.UnlockMedia)
		media.DELETE("/:id", h.DeleteMedia)
	}

	v1.GET("/payments/packages", h.CoinPackages)
	payments := v1.Group("/payments", middleware.JWT())
	{
		payments.POST("", h.CreatePayment)
		payments.POST("/verify", h.VerifyPayment)
	}

	// provider callbacks authenticate by signature, not JWT
	webhooks := v1.Group("/webhooks")
	{
		webhooks.POST("/paystack", h.PaystackWebhook)
		webhooks.POST("/nowpayments", h.NowPaymentsWebhook)
		webhooks.GET("/segpay", h.SegpayWebhook)
		webhooks.POST("/segpay", h.SegpayWebhook)
	}

	deposits := v1.Group("/deposits", middleware.JWT())
	{
		deposits.POST("/proof", h.UploadDepositProof)
		deposits.POST("", h.CreateDeposit)
		deposits.GET("", h.MyDeposits)
	}

	withdrawals := v1.Group("/withdrawals", middleware.JWT())
	{
		withdrawals.POST("", h.RequestWithdrawal)
		withdrawals.GET("", h.MyWithdrawals)
	}

	disputes := v1.Group("/disputes", middleware.JWT())
	{
		disputes.POST("", h.OpenDispute)
		disputes.GET("", h.ListDisputes)
	}

	notifications := v1.Group("/notifications", middleware.JWT())
	{
		notifications.GET("", h.Notifications)
		notifications.POST("/:id/read", h.MarkNotificationRead)
		notifications.POST("/read-all", h.MarkAllNotificationsRead)
	}

	admin := v1.Group("/admin", middleware.JWT(), middleware.RequireAdmin())
	{
		admin.GET("/stats", h.AdminStats)
		admin.GET("/users", h.AdminListUsers)
		admin.GET("/users/:id", h.AdminGetUser)
		admin.POST("/users/:id/suspend", h.SuspendUser)
		admin.POST("/users/:id/unsuspend", h.UnsuspendUser)
		admin.POST("/talents/:id/verify", h.AdminVerifyTalent)
		admin.PUT("/talents/:id/notes", h.AdminTalentNotes)
		admin.GET("/audit", h.AdminAuditLogs)

		admin.GET("/media", h.ModerationQueue)
		admin.POST("/media/:id/moderate", h.ModerateMedia)
		admin.POST("/media/:id/flag", h.FlagMedia)
		admin.POST("/media/:id/unflag", h.UnflagMedia)
		admin.GET("/undo", h.UndoActions)
		admin.POST("/undo", h.UndoLast)
		admin.POST("/undo/:id", h.Undo)

		admin.GET("/verifications", h.PendingVerifications)
		admin.POST("/verifications/:id/approve", h.ApproveVerification)
		admin.POST("/verifications/:id/reject", h.RejectVerification)

		admin.GET("/deposits", h.PendingDeposits)
		admin.POST("/deposits/:id/approve", h.ApproveDeposit)
		admin.POST("/deposits/:id/reject", h.RejectDeposit)

		admin.GET("/withdrawals", h.PendingWithdrawals)
		admin.POST("/withdrawals/:id/approve", h.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/reject", h.RejectWithdrawal)

		admin.GET("/coin-packages", h.AdminCoinPackages)
		admin.POST("/coin-packages", h.AdminCreatePackage)
		admin.PUT("/coin-packages/:id", h.AdminUpdatePackage)
		admin.POST("/coin-packages/:id/toggle", h.AdminTogglePackage)

		admin.GET("/disputes", h.ListDisputes)
		admin.PATCH("/disputes/:id", h.UpdateDispute)
	}
}
