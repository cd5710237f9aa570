package config

import (
	"os"
	"strconv"
	"time"

	"nego/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StorageDir    string
	PublicBaseURL string
	AppURL        string
	AllowedOrigin string

	// Payment providers
	PaystackSecretKey    string
	PaystackBaseURL      string
	NowPaymentsAPIKey    string
	NowPaymentsIPNSecret string
	NowPaymentsAPIURL    string
	SegpayURL            string
	SegpayPackageID      string
	SegpayPostbackSecret string

	// Rate limits
	APIRateLimit   int
	APIRateWindow  time.Duration
	AuthRateLimit  int
	AuthRateWindow time.Duration

	// Business rules
	LowBalanceThreshold int64
	MinWithdrawalCoins  int64
	MinServicePrice     int64
	PendingTxTTL        time.Duration
	BookingPaymentTTL   time.Duration
	BookingVerifyTTL    time.Duration
	DigestCron          string

	LogLevel string
	LogJSON  bool
}

// Load reads configuration from the environment (and .env when present).
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := getString("APP_PORT", "8080")

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		JWTSecret:   jwtSecret,
		JWTTTL:      time.Duration(getInt("JWT_TTL_HOURS", 24)) * time.Hour,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		StorageDir:    getString("STORAGE_DIR", "./data/storage"),
		PublicBaseURL: getString("PUBLIC_BASE_URL", "http://localhost:"+port),
		AppURL:        getString("APP_URL", "http://localhost:5173"),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),

		PaystackSecretKey:    os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:      getString("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		NowPaymentsAPIKey:    os.Getenv("NOWPAYMENTS_API_KEY"),
		NowPaymentsIPNSecret: os.Getenv("NOWPAYMENTS_IPN_SECRET"),
		NowPaymentsAPIURL:    getString("NOWPAYMENTS_API_URL", "https://api.nowpayments.io/v1"),
		SegpayURL:            getString("SEGPAY_URL", "https://secure.segpay.com/billing/poset"),
		SegpayPackageID:      os.Getenv("SEGPAY_PACKAGE_ID"),
		SegpayPostbackSecret: os.Getenv("SEGPAY_POSTBACK_SECRET"),

		APIRateLimit:   getInt("API_RATE_LIMIT", 120),
		APIRateWindow:  time.Duration(getInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		AuthRateLimit:  getInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindow: time.Duration(getInt("AUTH_RATE_WINDOW_SECONDS", 60)) * time.Second,

		LowBalanceThreshold: int64(getInt("LOW_BALANCE_THRESHOLD", 100)),
		MinWithdrawalCoins:  int64(getInt("MIN_WITHDRAWAL_COINS", 10000)),
		MinServicePrice:     int64(getInt("MIN_SERVICE_PRICE", 10000)),
		PendingTxTTL:        time.Duration(getInt("PENDING_TX_TTL_HOURS", 24)) * time.Hour,
		BookingPaymentTTL:   time.Duration(getInt("BOOKING_PAYMENT_TTL_MINUTES", 60)) * time.Minute,
		BookingVerifyTTL:    time.Duration(getInt("BOOKING_VERIFICATION_TTL_HOURS", 24)) * time.Hour,
		DigestCron:          getString("DIGEST_CRON", "@hourly"),

		LogLevel: getString("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// non-positive and malformed values fall back to the default
func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
