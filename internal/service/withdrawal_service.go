package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WithdrawalInput struct {
	Amount        int64  `json:"amount"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// WithdrawalService queues talent payouts for admin review.
type WithdrawalService struct {
	withdrawals *repository.WithdrawalRepository
	profiles    *repository.ProfileRepository
	wallet      *WalletService
	notify      *NotificationService
	audit       *AuditService
	minimum     int64
}

func NewWithdrawalService(db *pgxpool.Pool, wallet *WalletService, notify *NotificationService, audit *AuditService, minimum int64) *WithdrawalService {
	if minimum <= 0 {
		minimum = domain.DefaultMinWithdrawal
	}
	return &WithdrawalService{
		withdrawals: repository.NewWithdrawalRepository(db),
		profiles:    repository.NewProfileRepository(db),
		wallet:      wallet,
		notify:      notify,
		audit:       audit,
		minimum:     minimum,
	}
}

// Request files a payout. Coins stay in the wallet until an admin approves.
func (s *WithdrawalService) Request(ctx context.Context, talentID string, in WithdrawalInput, meta RequestMeta) (*domain.WithdrawalRequest, error) {
	p, err := s.profiles.GetByID(ctx, talentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrUserNotFound
	}
	if !p.IsTalent() {
		return nil, userError(ErrForbidden, "Only talents can request withdrawals")
	}

	in.BankName = strings.TrimSpace(in.BankName)
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)
	in.AccountName = strings.TrimSpace(in.AccountName)
	switch {
	case in.BankName == "":
		return nil, invalid("bank_name", "Bank name is required")
	case in.AccountNumber == "":
		return nil, invalid("account_number", "Account number is required")
	case in.AccountName == "":
		return nil, invalid("account_name", "Account name is required")
	case in.Amount < s.minimum:
		return nil, invalidf("amount", "Minimum withdrawal is %s coins", formatCoins(s.minimum))
	}

	w, err := s.wallet.GetWallet(ctx, talentID)
	if err != nil {
		return nil, err
	}
	if in.Amount > w.Balance {
		return nil, &ValidationError{Field: "amount", Message: "Insufficient balance", Err: ErrInsufficientFunds}
	}

	pending, err := s.withdrawals.HasPending(ctx, talentID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, userError(ErrConflict, "You already have a pending withdrawal request")
	}

	req := &domain.WithdrawalRequest{
		TalentID:      talentID,
		Amount:        in.Amount,
		BankName:      in.BankName,
		AccountNumber: in.AccountNumber,
		AccountName:   in.AccountName,
	}
	if err := s.withdrawals.Create(ctx, req); err != nil {
		return nil, err
	}

	s.audit.LogResource(ctx, talentID, domain.AuditActionWithdrawRequest, domain.AuditCategoryWithdrawal, "withdrawal_request", req.ID, meta,
		map[string]interface{}{"amount": in.Amount})
	logger.FromContext(ctx).Info("withdrawal requested", "withdrawal_id", req.ID, "talent_id", talentID, "amount", in.Amount)
	return req, nil
}

func (s *WithdrawalService) Mine(ctx context.Context, talentID string, limit int) ([]*domain.WithdrawalRequest, error) {
	return s.withdrawals.GetByTalentID(ctx, talentID, limit)
}

func (s *WithdrawalService) Pending(ctx context.Context) ([]*domain.WithdrawalRequest, error) {
	return s.withdrawals.GetPending(ctx)
}

// Approve debits the talent and records the payout in one transaction.
func (s *WithdrawalService) Approve(ctx context.Context, adminID, id, notes string, meta RequestMeta) (*domain.WithdrawalRequest, error) {
	var (
		req *domain.WithdrawalRequest
		bal int64
	)
	err := s.wallet.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		if req, err = s.lockPending(ctx, tx, id); err != nil {
			return err
		}
		if _, err := s.wallet.wallets.LockWithTx(ctx, tx, req.TalentID); err != nil {
			return err
		}
		w, err := s.wallet.debitWithTx(ctx, tx, req.TalentID, req.Amount)
		if err != nil {
			if errors.Is(err, ErrInsufficientFunds) {
				return &ValidationError{Field: "amount", Message: "Talent balance is below the requested amount", Err: ErrInsufficientFunds}
			}
			return err
		}
		bal = w.Balance

		if err := s.withdrawals.CloseWithTx(ctx, tx, req.ID, domain.WithdrawalStatusApproved, optional(strings.TrimSpace(notes))); err != nil {
			return s.closed(err)
		}
		ref := req.ID
		return s.wallet.recordWithTx(ctx, tx, &domain.Transaction{
			UserID:      req.TalentID,
			Coins:       -req.Amount,
			Type:        domain.TxPayout,
			ReferenceID: &ref,
			Description: fmt.Sprintf("Withdrawal to %s (%s)", req.BankName, req.AccountNumber),
		})
	})
	if err != nil {
		return nil, err
	}
	s.wallet.Invalidate(ctx, req.TalentID)
	req.Status = domain.WithdrawalStatusApproved

	s.audit.LogResource(ctx, adminID, domain.AuditActionWithdrawApprove, domain.AuditCategoryWithdrawal, "withdrawal_request", req.ID, meta,
		map[string]interface{}{"talent_id": req.TalentID, "amount": req.Amount, "new_balance": bal})
	s.notify.Notify(ctx, req.TalentID, domain.NotifyWithdrawalApproved, "Withdrawal Approved!",
		fmt.Sprintf("Your withdrawal of %s coins has been approved and will be paid to %s.", formatCoins(req.Amount), req.BankName),
		map[string]interface{}{"withdrawal_id": req.ID, "amount": req.Amount})
	return req, nil
}

func (s *WithdrawalService) Reject(ctx context.Context, adminID, id, reason string, meta RequestMeta) (*domain.WithdrawalRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "A reason is required to decline a withdrawal")
	}
	var req *domain.WithdrawalRequest
	err := s.wallet.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		if req, err = s.lockPending(ctx, tx, id); err != nil {
			return err
		}
		return s.closed(s.withdrawals.CloseWithTx(ctx, tx, req.ID, domain.WithdrawalStatusRejected, &reason))
	})
	if err != nil {
		return nil, err
	}
	req.Status = domain.WithdrawalStatusRejected
	req.AdminNotes = &reason

	s.audit.LogResource(ctx, adminID, domain.AuditActionWithdrawReject, domain.AuditCategoryWithdrawal, "withdrawal_request", req.ID, meta,
		map[string]interface{}{"talent_id": req.TalentID, "reason": reason})
	s.notify.Notify(ctx, req.TalentID, domain.NotifyWithdrawalRejected, "Withdrawal Declined",
		fmt.Sprintf("Your withdrawal of %s coins was declined. Reason: %s", formatCoins(req.Amount), reason),
		map[string]interface{}{"withdrawal_id": req.ID, "reason": reason})
	return req, nil
}

func (s *WithdrawalService) lockPending(ctx context.Context, tx pgx.Tx, id string) (*domain.WithdrawalRequest, error) {
	req, err := s.withdrawals.LockWithTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, userError(ErrNotFound, "Withdrawal request not found")
	}
	if req.Status != domain.WithdrawalStatusPending {
		return nil, userError(ErrInvalidState, "Withdrawal request is already %s", req.Status)
	}
	return req, nil
}

func (s *WithdrawalService) closed(err error) error {
	if errors.Is(err, repository.ErrConditionFailed) {
		return userError(ErrInvalidState, "Withdrawal request has already been processed")
	}
	return err
}
