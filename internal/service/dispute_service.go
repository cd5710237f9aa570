package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OpenDisputeInput struct {
	BookingID   string `json:"booking_id"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

type UpdateDisputeInput struct {
	Status     domain.DisputeStatus `json:"status"`
	Resolution string               `json:"resolution"`
	Notes      string               `json:"notes"`
}

type DisputeService struct {
	disputes *repository.DisputeRepository
	profiles *repository.ProfileRepository
	booking  *BookingService
	notify   *NotificationService
	audit    *AuditService
}

func NewDisputeService(db *pgxpool.Pool, booking *BookingService, notify *NotificationService, audit *AuditService) *DisputeService {
	return &DisputeService{
		disputes: repository.NewDisputeRepository(db),
		profiles: repository.NewProfileRepository(db),
		booking:  booking,
		notify:   notify,
		audit:    audit,
	}
}

// Open freezes a booking in the disputed state until an admin resolves it.
func (s *DisputeService) Open(ctx context.Context, userID string, in OpenDisputeInput) (*domain.Dispute, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if in.Reason == "" {
		return nil, invalid("reason", "Please choose a reason for the dispute")
	}
	if err := ValidateTextLen("reason", in.Reason, domain.MaxReasonLen); err != nil {
		return nil, err
	}
	if err := ValidateTextLen("description", strings.TrimSpace(in.Description), domain.MaxDescriptionLen); err != nil {
		return nil, err
	}

	d := &domain.Dispute{
		BookingID:   in.BookingID,
		RaisedBy:    userID,
		Reason:      in.Reason,
		Description: strings.TrimSpace(in.Description),
	}
	var b *domain.Booking

	err := s.booking.wallet.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		b, err = s.booking.bookings.LockWithTx(ctx, tx, in.BookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return userError(ErrNotFound, "Booking not found")
		}
		if !b.IsParticipant(userID) {
			return userError(ErrForbidden, "You are not part of this booking")
		}
		open, err := s.disputes.HasOpen(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		if open {
			return userError(ErrConflict, "A dispute is already open for this booking")
		}
		if !b.Open() || b.Status == domain.BookingDisputed {
			return userError(ErrInvalidState, "Booking cannot be disputed. Current status: %s", b.Status)
		}

		prev := b.Status
		d.PreviousStatus = &prev
		from := []domain.BookingStatus{b.Status}
		if err := s.booking.bookings.TransitionWithTx(ctx, tx, b.ID, from, domain.BookingDisputed, nil); err != nil {
			if errors.Is(err, repository.ErrConditionFailed) {
				return userError(ErrInvalidState, "Booking status has changed")
			}
			return err
		}
		b.Status = domain.BookingDisputed
		return s.disputes.CreateWithTx(ctx, tx, d)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("dispute opened", "dispute_id", d.ID, "booking_id", b.ID, "raised_by", userID)

	other := b.TalentID
	if userID == b.TalentID {
		other = b.ClientID
	}
	data := map[string]interface{}{"dispute_id": d.ID, "booking_id": b.ID}
	s.notify.Notify(ctx, other, domain.NotifyDisputeUpdate, "Dispute Opened",
		fmt.Sprintf("A dispute was opened on booking #%s: %s", shortID(b.ID), d.Reason), data)
	s.notifyAdmins(ctx, "New Dispute", fmt.Sprintf("Booking #%s was disputed: %s", shortID(b.ID), d.Reason), data)
	return d, nil
}

// UpdateStatus moves a dispute along and, for money-moving resolutions,
// settles the booking's escrow in the same transaction.
func (s *DisputeService) UpdateStatus(ctx context.Context, adminID, id string, in UpdateDisputeInput, meta RequestMeta) (*domain.Dispute, error) {
	switch in.Status {
	case domain.DisputeOpen, domain.DisputeUnderReview, domain.DisputeResolved, domain.DisputeClosed:
	default:
		return nil, invalid("status", "Invalid dispute status")
	}
	switch in.Resolution {
	case "", domain.ResolutionRefundClient, domain.ResolutionReleaseTalent:
	default:
		return nil, invalid("resolution", "Invalid resolution")
	}
	if err := ValidateTextLen("notes", strings.TrimSpace(in.Notes), domain.MaxNotesLen); err != nil {
		return nil, err
	}
	final := in.Status == domain.DisputeResolved || in.Status == domain.DisputeClosed
	if in.Resolution != "" && !final {
		return nil, invalid("resolution", "A resolution requires the dispute to be resolved or closed")
	}

	var (
		d *domain.Dispute
		b *domain.Booking
	)
	err := s.booking.wallet.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		d, err = s.disputes.LockWithTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if d == nil {
			return userError(ErrNotFound, "Dispute not found")
		}
		if d.Status == domain.DisputeResolved || d.Status == domain.DisputeClosed {
			return userError(ErrInvalidState, "Dispute is already %s", d.Status)
		}

		if final {
			if b, err = s.booking.bookings.LockWithTx(ctx, tx, d.BookingID); err != nil {
				return err
			}
			if b == nil {
				return userError(ErrNotFound, "Booking not found")
			}
			if err := s.settleWithTx(ctx, tx, b, in.Resolution, d.PreviousStatus); err != nil {
				return err
			}
			now := time.Now()
			d.ResolvedBy = &adminID
			d.ResolvedAt = &now
		}

		d.Status = in.Status
		if in.Resolution != "" {
			d.Resolution = &in.Resolution
		}
		if n := strings.TrimSpace(in.Notes); n != "" {
			d.ResolutionNotes = &n
		}
		return s.disputes.UpdateWithTx(ctx, tx, d)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogResource(ctx, adminID, domain.AuditActionDisputeUpdate, domain.AuditCategoryBooking, "dispute", d.ID, meta,
		map[string]interface{}{"status": d.Status, "resolution": in.Resolution, "booking_id": d.BookingID})

	if b == nil {
		return d, nil
	}
	if in.Resolution == domain.ResolutionReleaseTalent {
		s.booking.afterComplete(ctx, b)
	} else {
		s.booking.wallet.Invalidate(ctx, b.ClientID)
	}

	msg := fmt.Sprintf("The dispute on booking #%s is now %s.", shortID(b.ID), d.Status)
	switch in.Resolution {
	case domain.ResolutionRefundClient:
		msg += " The client has been refunded."
	case domain.ResolutionReleaseTalent:
		msg += " Payment has been released to the talent."
	}
	data := map[string]interface{}{"dispute_id": d.ID, "booking_id": b.ID, "resolution": in.Resolution}
	s.notify.Notify(ctx, b.ClientID, domain.NotifyDisputeUpdate, "Dispute Update", msg, data)
	s.notify.Notify(ctx, b.TalentID, domain.NotifyDisputeUpdate, "Dispute Update", msg, data)
	return d, nil
}

// settleWithTx applies a final decision to a disputed booking. Without a
// money-moving resolution the booking returns to the status the dispute
// interrupted (confirmed for disputes that predate that record).
func (s *DisputeService) settleWithTx(ctx context.Context, tx pgx.Tx, b *domain.Booking, resolution string, previous *domain.BookingStatus) error {
	if b.Status != domain.BookingDisputed {
		if resolution != "" {
			return userError(ErrInvalidState, "Booking is no longer disputed. Current status: %s", b.Status)
		}
		return nil
	}
	disputed := []domain.BookingStatus{domain.BookingDisputed}

	switch resolution {
	case domain.ResolutionRefundClient:
		notes := "Cancelled: dispute resolved in client's favour"
		return s.booking.refundWithTx(ctx, tx, b, &notes,
			fmt.Sprintf("Refund for disputed booking #%s", shortID(b.ID)))
	case domain.ResolutionReleaseTalent:
		return s.booking.completeWithTx(ctx, tx, b, disputed)
	}

	restore := RestoredStatus(previous)
	if err := s.booking.bookings.TransitionWithTx(ctx, tx, b.ID, disputed, restore, nil); err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return userError(ErrInvalidState, "Booking status has changed")
		}
		return err
	}
	b.Status = restore
	return nil
}

// RestoredStatus is where a disputed booking goes when the dispute closes
// without a refund or payout.
func RestoredStatus(previous *domain.BookingStatus) domain.BookingStatus {
	if previous == nil {
		return domain.BookingConfirmed
	}
	switch *previous {
	case domain.BookingPaymentPending, domain.BookingVerificationPending, domain.BookingConfirmed:
		return *previous
	}
	return domain.BookingConfirmed
}

// List returns every dispute to admins and only their own to everyone else.
func (s *DisputeService) List(ctx context.Context, userID string, role domain.Role, status string, limit int) ([]*domain.Dispute, error) {
	if role == domain.RoleAdmin {
		userID = ""
	}
	return s.disputes.List(ctx, status, userID, limit)
}

func (s *DisputeService) notifyAdmins(ctx context.Context, title, message string, data map[string]interface{}) {
	ids, err := s.profiles.ListAdminIDs(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list admins", "error", err)
		return
	}
	for _, id := range ids {
		s.notify.Notify(ctx, id, domain.NotifyDisputeUpdate, title, message, data)
	}
}
