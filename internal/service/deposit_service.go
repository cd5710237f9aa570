package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/payment"
	"nego/internal/repository"
	"nego/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DepositService handles manual bank transfers reviewed by an admin.
type DepositService struct {
	deposits *repository.DepositRepository
	wallet   *WalletService
	store    storage.ObjectStore
	notify   *NotificationService
	audit    *AuditService
}

func NewDepositService(db *pgxpool.Pool, wallet *WalletService, store storage.ObjectStore, notify *NotificationService, audit *AuditService) *DepositService {
	return &DepositService{
		deposits: repository.NewDepositRepository(db),
		wallet:   wallet,
		store:    store,
		notify:   notify,
		audit:    audit,
	}
}

// UploadProof stores a transfer receipt image and returns its public URL.
func (s *DepositService) UploadProof(ctx context.Context, userID, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", invalid("proof", "Please upload proof of payment")
	}
	if len(data) > maxImageBytes {
		return "", invalid("proof", "Image must be 10MB or smaller")
	}
	out, ok := storage.CompressImage(data, storage.MaxImageDimension, storage.JPEGQuality)
	if !ok {
		return "", invalid("proof", "Proof of payment must be an image")
	}

	name := sanitizeFilename(filename)
	name = strings.TrimSuffix(name, path.Ext(name)) + ".jpg"
	key := fmt.Sprintf("%s/%d_%s_%s", userID, time.Now().UnixMilli(), payment.RandomString(7), name)
	if err := s.store.Put(ctx, storage.BucketDeposits, key, out, storage.PutOptions{ContentType: "image/jpeg"}); err != nil {
		return "", fmt.Errorf("upload deposit proof: %w", err)
	}
	return s.store.PublicURL(storage.BucketDeposits, key), nil
}

func (s *DepositService) CreateDepositRequest(ctx context.Context, userID string, amount float64, proofURL, reference string) (*domain.DepositRequest, error) {
	if payment.NairaToCoins(amount) <= 0 {
		return nil, invalidf("amount", "Minimum deposit is ₦%d", domain.NairaPerCoin)
	}
	proofURL = strings.TrimSpace(proofURL)
	if proofURL == "" {
		return nil, invalid("proof_url", "Please upload proof of payment")
	}

	d := &domain.DepositRequest{
		UserID:    userID,
		Amount:    amount,
		ProofURL:  proofURL,
		Reference: optional(strings.TrimSpace(reference)),
	}
	if err := s.deposits.Create(ctx, d); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("deposit requested", "deposit_id", d.ID, "user_id", userID, "amount", amount)
	return d, nil
}

func (s *DepositService) Mine(ctx context.Context, userID string, limit int) ([]*domain.DepositRequest, error) {
	return s.deposits.GetByUserID(ctx, userID, limit)
}

func (s *DepositService) Pending(ctx context.Context) ([]*domain.DepositRequest, error) {
	return s.deposits.GetPending(ctx)
}

// ApproveDeposit credits floor(naira/10) coins for a pending request.
func (s *DepositService) ApproveDeposit(ctx context.Context, adminID, depositID, notes string, meta RequestMeta) (*domain.DepositRequest, error) {
	var (
		d     *domain.DepositRequest
		coins int64
		bal   int64
	)
	err := s.wallet.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		if d, err = s.lockPending(ctx, tx, depositID); err != nil {
			return err
		}
		coins = payment.NairaToCoins(d.Amount)
		if coins <= 0 {
			return invalid("amount", "Deposit amount is too small to credit")
		}

		if err := s.deposits.ReviewWithTx(ctx, tx, d.ID, domain.DepositStatusApproved, adminID, optional(strings.TrimSpace(notes))); err != nil {
			return s.reviewed(err)
		}
		if err := s.wallet.wallets.Ensure(ctx, tx, d.UserID); err != nil {
			return err
		}
		w, err := s.wallet.creditWithTx(ctx, tx, d.UserID, coins)
		if err != nil {
			return err
		}
		bal = w.Balance

		ref := d.ID
		return s.wallet.recordWithTx(ctx, tx, &domain.Transaction{
			UserID:      d.UserID,
			Amount:      d.Amount,
			Coins:       coins,
			Type:        domain.TxDeposit,
			ReferenceID: &ref,
			Description: fmt.Sprintf("Bank deposit of ₦%.2f", d.Amount),
		})
	})
	if err != nil {
		return nil, err
	}
	s.wallet.Invalidate(ctx, d.UserID)
	d.Status = domain.DepositStatusApproved

	s.audit.LogResource(ctx, adminID, domain.AuditActionDepositApprove, domain.AuditCategoryPayment, "deposit_request", d.ID, meta,
		map[string]interface{}{"user_id": d.UserID, "amount": d.Amount, "coins": coins})
	s.notify.Notify(ctx, d.UserID, domain.NotifyDepositApproved, "Deposit Approved ✅",
		fmt.Sprintf("Your deposit of ₦%.2f has been approved. %s coins were added. New balance: %s coins.",
			d.Amount, formatCoins(coins), formatCoins(bal)),
		map[string]interface{}{"deposit_id": d.ID, "coins": coins})
	return d, nil
}

func (s *DepositService) RejectDeposit(ctx context.Context, adminID, depositID, reason string, meta RequestMeta) (*domain.DepositRequest, error) {
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = "Admin decision"
	}
	var d *domain.DepositRequest
	err := s.wallet.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		if d, err = s.lockPending(ctx, tx, depositID); err != nil {
			return err
		}
		return s.reviewed(s.deposits.ReviewWithTx(ctx, tx, d.ID, domain.DepositStatusRejected, adminID, &reason))
	})
	if err != nil {
		return nil, err
	}
	d.Status = domain.DepositStatusRejected

	s.audit.LogResource(ctx, adminID, domain.AuditActionDepositReject, domain.AuditCategoryPayment, "deposit_request", d.ID, meta,
		map[string]interface{}{"user_id": d.UserID, "reason": reason})
	s.notify.Notify(ctx, d.UserID, domain.NotifyDepositRejected, "Deposit Rejected ❌",
		fmt.Sprintf("Your deposit of ₦%.2f was rejected. Reason: %s", d.Amount, reason),
		map[string]interface{}{"deposit_id": d.ID, "reason": reason})
	return d, nil
}

func (s *DepositService) lockPending(ctx context.Context, tx pgx.Tx, id string) (*domain.DepositRequest, error) {
	d, err := s.deposits.LockWithTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, userError(ErrNotFound, "Deposit request not found")
	}
	if d.Status != domain.DepositStatusPending {
		return nil, userError(ErrInvalidState, "Deposit request is already %s", d.Status)
	}
	return d, nil
}

func (s *DepositService) reviewed(err error) error {
	if errors.Is(err, repository.ErrConditionFailed) {
		return userError(ErrInvalidState, "Deposit request has already been reviewed")
	}
	return err
}
