package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nego/internal/domain"
	"nego/internal/moderation"
	"nego/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const previouslyFlagged = "Previously flagged"

// ModerationService backs the admin content console. Every action records
// what it overwrote so the admin can undo it.
type ModerationService struct {
	media    *repository.MediaRepository
	profiles *repository.ProfileRepository
	undo     *moderation.UndoStack
	notify   *NotificationService
	audit    *AuditService
}

func NewModerationService(db *pgxpool.Pool, undo *moderation.UndoStack, notify *NotificationService, audit *AuditService) *ModerationService {
	return &ModerationService{
		media:    repository.NewMediaRepository(db),
		profiles: repository.NewProfileRepository(db),
		undo:     undo,
		notify:   notify,
		audit:    audit,
	}
}

// MediaFilter selects the moderation queue. Status "" means all and
// "unreviewed" means items that predate moderation.
type MediaFilter struct {
	Status      string
	FlaggedOnly bool
	Limit       int
}

func (s *ModerationService) Pending(ctx context.Context, limit int) ([]*domain.Media, error) {
	return s.media.ListForModeration(ctx, string(domain.ModerationPending), false, limit)
}

func (s *ModerationService) Flagged(ctx context.Context, limit int) ([]*domain.Media, error) {
	return s.media.ListForModeration(ctx, "", true, limit)
}

func (s *ModerationService) All(ctx context.Context, f MediaFilter) ([]*domain.Media, error) {
	return s.media.ListForModeration(ctx, f.Status, f.FlaggedOnly, f.Limit)
}

func (s *ModerationService) Moderate(ctx context.Context, adminID, mediaID string, status domain.ModerationStatus, notes string, meta RequestMeta) (*domain.UndoAction, error) {
	if status != domain.ModerationApproved && status != domain.ModerationRejected {
		return nil, invalid("status", "Status must be approved or rejected")
	}
	if err := ValidateTextLen("notes", strings.TrimSpace(notes), domain.MaxNotesLen); err != nil {
		return nil, err
	}
	m, err := s.getMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.media.SetModeration(ctx, mediaID, &status, optional(strings.TrimSpace(notes)), &now); err != nil {
		return nil, s.mapMissing(err, "Media not found")
	}

	action := s.undo.Push(adminID, domain.UndoAction{
		Type:       domain.UndoModerate,
		MediaID:    mediaID,
		Summary:    fmt.Sprintf("Media %s", status),
		PrevStatus: m.ModerationStatus,
	})

	s.audit.LogResource(ctx, adminID, domain.AuditActionMediaModerate, domain.AuditCategoryModeration, "media", mediaID, meta,
		map[string]interface{}{"status": status, "notes": notes})

	if status == domain.ModerationRejected {
		msg := "One of your media items was rejected by moderation."
		if n := strings.TrimSpace(notes); n != "" {
			msg += " Reason: " + n
		}
		s.notify.Notify(ctx, m.TalentID, domain.NotifyMediaRejected, "Media Rejected", msg,
			map[string]interface{}{"media_id": mediaID})
	}
	return &action, nil
}

func (s *ModerationService) Flag(ctx context.Context, adminID, mediaID, reason string, meta RequestMeta) (*domain.UndoAction, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "A reason is required to flag content")
	}
	if err := ValidateTextLen("reason", reason, domain.MaxReasonLen); err != nil {
		return nil, err
	}
	m, err := s.getMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if err := s.media.SetFlag(ctx, mediaID, true, &reason); err != nil {
		return nil, s.mapMissing(err, "Media not found")
	}

	action := s.undo.Push(adminID, domain.UndoAction{
		Type:              domain.UndoFlag,
		MediaID:           mediaID,
		Summary:           "Media flagged",
		PrevFlagged:       m.Flagged,
		PrevFlaggedReason: m.FlaggedReason,
	})
	s.audit.LogResource(ctx, adminID, domain.AuditActionMediaFlag, domain.AuditCategoryModeration, "media", mediaID, meta,
		map[string]interface{}{"reason": reason})
	return &action, nil
}

func (s *ModerationService) Unflag(ctx context.Context, adminID, mediaID string, meta RequestMeta) (*domain.UndoAction, error) {
	m, err := s.getMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if err := s.media.SetFlag(ctx, mediaID, false, nil); err != nil {
		return nil, s.mapMissing(err, "Media not found")
	}

	action := s.undo.Push(adminID, domain.UndoAction{
		Type:              domain.UndoUnflag,
		MediaID:           mediaID,
		Summary:           "Media unflagged",
		PrevFlagged:       m.Flagged,
		PrevFlaggedReason: m.FlaggedReason,
	})
	s.audit.LogResource(ctx, adminID, domain.AuditActionMediaUnflag, domain.AuditCategoryModeration, "media", mediaID, meta, nil)
	return &action, nil
}

func (s *ModerationService) SuspendUser(ctx context.Context, adminID, userID, reason string, meta RequestMeta) (*domain.UndoAction, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "A reason is required to suspend a user")
	}
	if err := ValidateTextLen("reason", reason, domain.MaxReasonLen); err != nil {
		return nil, err
	}
	return s.setSuspended(ctx, adminID, userID, true, &reason, meta)
}

func (s *ModerationService) UnsuspendUser(ctx context.Context, adminID, userID string, meta RequestMeta) (*domain.UndoAction, error) {
	return s.setSuspended(ctx, adminID, userID, false, nil, meta)
}

func (s *ModerationService) setSuspended(ctx context.Context, adminID, userID string, suspended bool, reason *string, meta RequestMeta) (*domain.UndoAction, error) {
	if adminID == userID {
		return nil, userError(ErrForbidden, "You cannot suspend your own account")
	}
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, userError(ErrNotFound, "User not found")
	}
	if p.IsAdmin() {
		return nil, userError(ErrForbidden, "Admin accounts cannot be suspended")
	}

	var at *time.Time
	if suspended {
		now := time.Now()
		at = &now
	}
	if err := s.profiles.SetSuspended(ctx, userID, suspended, reason, at); err != nil {
		return nil, s.mapMissing(err, "User not found")
	}

	summary, action := "User unsuspended", domain.AuditActionUserUnsuspend
	if suspended {
		summary, action = "User suspended", domain.AuditActionUserSuspend
	}
	undo := s.undo.Push(adminID, domain.UndoAction{
		Type:          domain.UndoSuspend,
		UserID:        userID,
		Summary:       summary,
		PrevSuspended: p.IsSuspended,
	})
	s.audit.LogResource(ctx, adminID, action, domain.AuditCategoryModeration, "profile", userID, meta,
		map[string]interface{}{"reason": reason})

	if suspended {
		s.notify.Notify(ctx, userID, domain.NotifyAccountSuspended, "Account Suspended",
			"Your account has been suspended. Reason: "+*reason, nil)
	}
	return &undo, nil
}

// Undo restores the values the given action overwrote and drops it from the stack.
func (s *ModerationService) Undo(ctx context.Context, adminID, actionID string, meta RequestMeta) (*domain.UndoAction, error) {
	a, ok := s.undo.Get(adminID, actionID)
	if !ok {
		return nil, userError(ErrNotFound, "Nothing to undo")
	}
	if err := s.revert(ctx, a); err != nil {
		return nil, err
	}
	s.undo.Remove(adminID, a.ID)

	resource, id := "media", a.MediaID
	if a.Type == domain.UndoSuspend {
		resource, id = "profile", a.UserID
	}
	s.audit.LogResource(ctx, adminID, domain.AuditActionUndo, domain.AuditCategoryModeration, resource, id, meta,
		map[string]interface{}{"undone": a.Type, "summary": a.Summary})
	return &a, nil
}

// UndoLast reverses the admin's most recent action.
func (s *ModerationService) UndoLast(ctx context.Context, adminID string, meta RequestMeta) (*domain.UndoAction, error) {
	a, ok := s.undo.Peek(adminID)
	if !ok {
		return nil, userError(ErrNotFound, "Nothing to undo")
	}
	return s.Undo(ctx, adminID, a.ID, meta)
}

func (s *ModerationService) ListUndo(adminID string) []domain.UndoAction {
	return s.undo.List(adminID)
}

func (s *ModerationService) revert(ctx context.Context, a domain.UndoAction) error {
	var err error
	switch a.Type {
	case domain.UndoModerate:
		err = s.media.SetModeration(ctx, a.MediaID, a.PrevStatus, nil, nil)
	case domain.UndoFlag:
		err = s.media.SetFlag(ctx, a.MediaID, a.PrevFlagged, a.PrevFlaggedReason)
	case domain.UndoUnflag:
		reason := previouslyFlagged
		if a.PrevFlaggedReason != nil && *a.PrevFlaggedReason != "" {
			reason = *a.PrevFlaggedReason
		}
		err = s.media.SetFlag(ctx, a.MediaID, true, &reason)
	case domain.UndoSuspend:
		err = s.profiles.SetSuspended(ctx, a.UserID, a.PrevSuspended, nil, nil)
	default:
		return userError(ErrInvalidState, "Unknown action type %q", a.Type)
	}
	return s.mapMissing(err, "The item no longer exists")
}

func (s *ModerationService) getMedia(ctx context.Context, id string) (*domain.Media, error) {
	m, err := s.media.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, userError(ErrNotFound, "Media not found")
	}
	return m, nil
}

func (s *ModerationService) mapMissing(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, repository.ErrConditionFailed) {
		return userError(ErrNotFound, "%s", msg)
	}
	return err
}
