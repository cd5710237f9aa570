package service

import (
	"context"

	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationService writes in-app notifications. Delivery to open
// sessions happens through the realtime change feed.
type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{repo: repository.NewNotificationRepository(db)}
}

// Notify inserts a notification outside any transaction. A failure is logged
// and swallowed so it never undoes the action that triggered it.
func (s *NotificationService) Notify(ctx context.Context, userID, typ, title, message string, data map[string]interface{}) {
	n := &domain.Notification{UserID: userID, Type: typ, Title: title, Message: message, Data: data}
	if err := s.repo.Create(ctx, nil, n); err != nil {
		logger.FromContext(ctx).Error("failed to create notification", "error", err, "user_id", userID, "type", typ)
	}
}

// NotifyWithTx inserts a notification as part of tx.
func (s *NotificationService) NotifyWithTx(ctx context.Context, tx pgx.Tx, userID, typ, title, message string, data map[string]interface{}) error {
	return s.repo.Create(ctx, tx, &domain.Notification{UserID: userID, Type: typ, Title: title, Message: message, Data: data})
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	ok, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// lowBalance warns a user whose balance fell under the threshold.
func (s *NotificationService) lowBalance(ctx context.Context, userID string, balance, threshold int64) {
	if balance >= threshold {
		return
	}
	s.Notify(ctx, userID, domain.NotifyLowBalance, "Low Balance Warning ⚠️",
		"Your balance is low ("+formatCoins(balance)+" coins). Consider topping up to continue enjoying our services.",
		map[string]interface{}{"current_balance": balance, "threshold": threshold})
}
