package jobs

import (
	"context"
	"time"

	"nego/internal/logger"

	"github.com/robfig/cron/v3"
)

// Expirer closes stale pending purchases.
type Expirer interface {
	ExpirePending(ctx context.Context, ttl time.Duration) (int64, error)
}

// BookingExpirer cancels bookings nobody moved forward.
type BookingExpirer interface {
	ExpireStale(ctx context.Context, paymentTTL, verificationTTL time.Duration) (int64, error)
}

// Digester summarizes pending admin work.
type Digester interface {
	Digest(ctx context.Context) error
}

type Config struct {
	PendingTxTTL           time.Duration
	BookingPaymentTTL      time.Duration
	BookingVerificationTTL time.Duration
	DigestSpec             string
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	expirer  Expirer
	bookings BookingExpirer
	digest   Digester
	ttl      time.Duration
	payTTL   time.Duration
	verTTL   time.Duration
	timeout  time.Duration
}

func New(cfg Config, expirer Expirer, bookings BookingExpirer, digest Digester) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{}))),
		expirer:  expirer,
		bookings: bookings,
		digest:   digest,
		ttl:      orDefault(cfg.PendingTxTTL, 24*time.Hour),
		payTTL:   orDefault(cfg.BookingPaymentTTL, time.Hour),
		verTTL:   orDefault(cfg.BookingVerificationTTL, 24*time.Hour),
		timeout:  time.Minute,
	}
	if _, err := s.cron.AddFunc("@every 15m", s.ExpirePayments); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc("@every 10m", s.ExpireBookings); err != nil {
		return nil, err
	}
	spec := cfg.DigestSpec
	if spec == "" {
		spec = "@hourly"
	}
	if _, err := s.cron.AddFunc(spec, s.RunDigest); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) ExpirePayments() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.expirer.ExpirePending(ctx, s.ttl)
	if err != nil {
		logger.Error("expire pending payments failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("expired pending payments", "count", n)
	}
}

func (s *Scheduler) ExpireBookings() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.bookings.ExpireStale(ctx, s.payTTL, s.verTTL)
	if err != nil {
		logger.Error("expire stale bookings failed", "error", err)
	}
	if n > 0 {
		logger.Info("expired stale bookings", "count", n)
	}
}

func (s *Scheduler) RunDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.digest.Digest(ctx); err != nil {
		logger.Error("admin digest failed", "error", err)
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// cronLogger routes cron's own messages through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
