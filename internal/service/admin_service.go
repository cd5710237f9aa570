package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminService provides admin statistics and talent management
type AdminService struct {
	db          *pgxpool.Pool
	stats       *repository.StatsRepository
	profiles    *repository.ProfileRepository
	wallets     *repository.WalletRepository
	txs         *repository.TransactionRepository
	gifts       *repository.GiftRepository
	media       *repository.MediaRepository
	deposits    *repository.DepositRepository
	withdrawals *repository.WithdrawalRepository
	audit       *AuditService
}

// NewAdminService creates a new admin service
func NewAdminService(db *pgxpool.Pool, audit *AuditService) *AdminService {
	return &AdminService{
		db:          db,
		stats:       repository.NewStatsRepository(db),
		profiles:    repository.NewProfileRepository(db),
		wallets:     repository.NewWalletRepository(db),
		txs:         repository.NewTransactionRepository(db),
		gifts:       repository.NewGiftRepository(db),
		media:       repository.NewMediaRepository(db),
		deposits:    repository.NewDepositRepository(db),
		withdrawals: repository.NewWithdrawalRepository(db),
		audit:       audit,
	}
}

// GetStats returns platform statistics. Secondary counters are best effort.
func (s *AdminService) GetStats(ctx context.Context) (*domain.AdminStats, error) {
	c, err := s.stats.Counts(ctx)
	if err != nil {
		return nil, err
	}
	stats := &domain.AdminStats{
		Users:                c.Users,
		Talents:              c.Talents,
		PendingVerifications: c.PendingVerifications,
		OpenDisputes:         c.OpenDisputes,
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)

	stats.CoinsInCirculation, stats.EscrowTotal, _ = s.wallets.Totals(ctx)
	stats.PendingPayouts, _ = s.withdrawals.CountPending(ctx)
	stats.PendingDeposits, _ = s.deposits.CountPending(ctx)
	stats.PendingMedia, _ = s.media.CountPending(ctx)
	stats.GiftsToday, _ = s.gifts.CountSince(ctx, today)
	stats.Revenue, _ = s.txs.RevenueTotal(ctx)

	return stats, nil
}

// GetUser finds a profile by id, email or username (with or without @)
func (s *AdminService) GetUser(ctx context.Context, identifier string) (*domain.Profile, error) {
	identifier = strings.TrimSpace(identifier)
	var (
		p   *domain.Profile
		err error
	)
	switch {
	case IsValidUUID(identifier):
		p, err = s.profiles.GetByID(ctx, identifier)
	case strings.Contains(identifier, "@") && !strings.HasPrefix(identifier, "@"):
		p, err = s.profiles.GetByEmail(ctx, strings.ToLower(identifier))
	default:
		p, err = s.getByUsername(ctx, strings.TrimPrefix(identifier, "@"))
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, userError(ErrNotFound, "User not found")
	}
	return p, nil
}

func (s *AdminService) getByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	var id string
	err := s.db.QueryRow(ctx, `SELECT id FROM profiles WHERE lower(username) = lower($1)`, username).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.profiles.GetByID(ctx, id)
}

// ListUsers returns profiles with pagination, optionally by role
func (s *AdminService) ListUsers(ctx context.Context, role string, limit, offset int) ([]*domain.Profile, error) {
	if offset < 0 {
		offset = 0
	}
	return s.profiles.ListAll(ctx, role, limit, offset)
}

// SetTalentVerified toggles the verified badge on a talent profile
func (s *AdminService) SetTalentVerified(ctx context.Context, adminID, talentID string, verified bool, meta RequestMeta) error {
	if err := s.requireTalent(ctx, talentID); err != nil {
		return err
	}
	if err := s.profiles.SetVerified(ctx, talentID, verified); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userError(ErrNotFound, "Talent not found")
		}
		return err
	}
	action := domain.AuditActionTalentVerify
	if !verified {
		action = domain.AuditActionTalentUnverify
	}
	s.audit.LogResource(ctx, adminID, action, domain.AuditCategoryAdmin, "profile", talentID, meta, nil)
	return nil
}

// SetTalentNotes stores private admin notes on a talent
func (s *AdminService) SetTalentNotes(ctx context.Context, adminID, talentID, notes string, meta RequestMeta) error {
	notes = strings.TrimSpace(notes)
	if err := ValidateTextLen("notes", notes, domain.MaxNotesLen); err != nil {
		return err
	}
	if err := s.requireTalent(ctx, talentID); err != nil {
		return err
	}
	if err := s.profiles.SetAdminNotes(ctx, talentID, notes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userError(ErrNotFound, "Talent not found")
		}
		return err
	}
	s.audit.LogResource(ctx, adminID, domain.AuditActionTalentNotes, domain.AuditCategoryAdmin, "profile", talentID, meta,
		map[string]interface{}{"length": len(notes)})
	return nil
}

// AuditLogs returns the latest audit entries, optionally for one category
func (s *AdminService) AuditLogs(ctx context.Context, category string, limit int) ([]*domain.AuditLog, error) {
	return s.audit.GetRecentLogs(ctx, category, limit)
}

// Digest logs the pending-work summary; run on a schedule.
func (s *AdminService) Digest(ctx context.Context) error {
	stats, err := s.GetStats(ctx)
	if err != nil {
		return err
	}
	logger.Info("admin digest",
		"pending_verifications", stats.PendingVerifications,
		"pending_payouts", stats.PendingPayouts,
		"pending_deposits", stats.PendingDeposits,
		"pending_media", stats.PendingMedia,
		"open_disputes", stats.OpenDisputes,
		"escrow_total", stats.EscrowTotal,
	)
	return nil
}

func (s *AdminService) requireTalent(ctx context.Context, id string) error {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil || !p.IsTalent() {
		return userError(ErrNotFound, "Talent not found")
	}
	return nil
}
