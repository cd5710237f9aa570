package service

import (
	"context"
	"errors"
	"fmt"

	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/metrics"
	"nego/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GiftService struct {
	gifts    *repository.GiftRepository
	profiles *repository.ProfileRepository
	wallet   *WalletService
	notify   *NotificationService

	lowBalanceThreshold int64
}

func NewGiftService(db *pgxpool.Pool, wallet *WalletService, notify *NotificationService, lowBalanceThreshold int64) *GiftService {
	return &GiftService{
		gifts:               repository.NewGiftRepository(db),
		profiles:            repository.NewProfileRepository(db),
		wallet:              wallet,
		notify:              notify,
		lowBalanceThreshold: lowBalanceThreshold,
	}
}

// Send validates and sanitizes a raw gift body, then transfers the coins.
func (s *GiftService) Send(ctx context.Context, raw map[string]any) (*domain.GiftResult, error) {
	if err := ValidateGiftRequest(raw); err != nil {
		return nil, err
	}
	return s.Transfer(ctx, SanitizeGiftRequest(raw))
}

// Transfer debits the sender and credits the recipient in one transaction.
func (s *GiftService) Transfer(ctx context.Context, req domain.GiftRequest) (*domain.GiftResult, error) {
	if req.SenderID == req.RecipientID {
		return nil, invalid("recipientId", "You cannot send a gift to yourself")
	}
	if req.Amount < domain.MinGiftAmount || req.Amount > domain.MaxGiftAmount {
		return nil, invalid("amount", "Invalid gift amount")
	}

	recipient, err := s.profiles.GetByID(ctx, req.RecipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, invalid("recipientId", "Recipient not found")
	}
	sender, err := s.profiles.GetByID(ctx, req.SenderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}

	gift := &domain.Gift{
		SenderID:    req.SenderID,
		RecipientID: req.RecipientID,
		Amount:      req.Amount,
		Message:     req.Message,
	}
	var senderBalance int64

	err = s.wallet.withTx(ctx, func(tx pgx.Tx) error {
		if _, _, err := s.wallet.lockPair(ctx, tx, req.SenderID, req.RecipientID); err != nil {
			return err
		}

		w, err := s.wallet.debitWithTx(ctx, tx, req.SenderID, req.Amount)
		if err != nil {
			return err
		}
		senderBalance = w.Balance

		if _, err := s.wallet.creditWithTx(ctx, tx, req.RecipientID, req.Amount); err != nil {
			return err
		}
		if err := s.gifts.CreateWithTx(ctx, tx, gift); err != nil {
			return err
		}

		ref := gift.ID
		if err := s.wallet.recordWithTx(ctx, tx, &domain.Transaction{
			UserID:      req.SenderID,
			Coins:       -req.Amount,
			Type:        domain.TxGiftSent,
			ReferenceID: &ref,
			Description: fmt.Sprintf("Gift to %s", displayName(recipient)),
		}); err != nil {
			return err
		}
		return s.wallet.recordWithTx(ctx, tx, &domain.Transaction{
			UserID:      req.RecipientID,
			Coins:       req.Amount,
			Type:        domain.TxGiftReceived,
			ReferenceID: &ref,
			Description: fmt.Sprintf("Gift from %s", displayName(sender)),
		})
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			s.notify.Notify(ctx, req.SenderID, domain.NotifyLowBalance, "Insufficient Balance ⚠️",
				"You don't have enough coins to send this gift. Please top up your wallet.",
				map[string]interface{}{"required_amount": req.Amount})
			return nil, &ValidationError{Field: "balance", Message: "Insufficient balance. Please top up your wallet.", Err: ErrInsufficientFunds}
		}
		return nil, err
	}
	s.wallet.Invalidate(ctx, req.SenderID, req.RecipientID)

	metrics.GiftsSent.Inc()
	metrics.GiftCoins.Add(float64(req.Amount))
	logger.FromContext(ctx).Info("gift sent", "gift_id", gift.ID, "sender_id", req.SenderID, "recipient_id", req.RecipientID, "amount", req.Amount)

	recipientName := displayName(recipient)
	s.notify.Notify(ctx, req.SenderID, domain.NotifyGiftSent, "Gift Sent! 🎁",
		fmt.Sprintf("You sent %s coins to %s. Your new balance is %s coins.", formatCoins(req.Amount), recipientName, formatCoins(senderBalance)),
		map[string]interface{}{
			"gift_id":        gift.ID,
			"recipient_id":   req.RecipientID,
			"recipient_name": recipientName,
			"amount":         req.Amount,
			"new_balance":    senderBalance,
		})

	received := fmt.Sprintf("%s sent you %s coins.", displayName(sender), formatCoins(req.Amount))
	if req.Message != nil {
		received += " \"" + *req.Message + "\""
	}
	s.notify.Notify(ctx, req.RecipientID, domain.NotifyGiftReceived, "Gift Received! 🎁", received,
		map[string]interface{}{"gift_id": gift.ID, "sender_id": req.SenderID, "amount": req.Amount})

	s.notify.lowBalance(ctx, req.SenderID, senderBalance, s.lowBalanceThreshold)

	return &domain.GiftResult{
		Success:          true,
		Message:          "Gift sent successfully! 🎁",
		NewSenderBalance: senderBalance,
		GiftID:           gift.ID,
	}, nil
}

// History returns the gifts a user sent and received.
func (s *GiftService) History(ctx context.Context, userID string, limit int) (sent, received []*domain.Gift, err error) {
	if sent, err = s.gifts.ListSent(ctx, userID, limit); err != nil {
		return nil, nil, err
	}
	if received, err = s.gifts.ListReceived(ctx, userID, limit); err != nil {
		return nil, nil, err
	}
	return sent, received, nil
}

// Leaderboard lists a talent's biggest supporters.
func (s *GiftService) Leaderboard(ctx context.Context, talentID string, limit int) ([]*domain.Gifter, error) {
	return s.gifts.TopGifters(ctx, talentID, limit)
}

func displayName(p *domain.Profile) string {
	if p == nil {
		return "Someone"
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	return "Someone"
}
