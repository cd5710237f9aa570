package service

import (
	"context"

	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RequestMeta identifies where an admin action came from.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuditService handles audit logging
type AuditService struct {
	repo *repository.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(db *pgxpool.Pool) *AuditService {
	return &AuditService{
		repo: repository.NewAuditRepository(db),
	}
}

// Log creates a new audit log entry. Failures are logged, never returned.
func (s *AuditService) Log(ctx context.Context, actorID, action, category string, details map[string]interface{}) {
	s.write(ctx, &domain.AuditLog{
		ActorID:  optional(actorID),
		Action:   action,
		Category: category,
		Details:  details,
	})
}

// LogResource records an action taken on a specific row, with request info.
func (s *AuditService) LogResource(ctx context.Context, actorID, action, category, resourceType, resourceID string, meta RequestMeta, details map[string]interface{}) {
	s.write(ctx, &domain.AuditLog{
		ActorID:      optional(actorID),
		Action:       action,
		Category:     category,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
	})
}

// LogLogin logs a user login
func (s *AuditService) LogLogin(ctx context.Context, userID string, meta RequestMeta) {
	s.LogResource(ctx, userID, domain.AuditActionLogin, domain.AuditCategoryAuth, "profile", userID, meta, nil)
}

// GetRecentLogs returns recent audit logs, optionally for one category
func (s *AuditService) GetRecentLogs(ctx context.Context, category string, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetRecent(ctx, category, limit)
}

func (s *AuditService) write(ctx context.Context, log *domain.AuditLog) {
	if s == nil || s.repo == nil {
		return
	}
	if err := s.repo.Create(ctx, log); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", log.Action, "resource_id", log.ResourceID)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
