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
	"nego/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxSelfieBytes = 10 << 20

type SubmitVerificationInput struct {
	BookingID string
	Selfie    []byte
	FullName  string
	Phone     string
	GPSCoords string
}

// VerificationProgress tells the client which wizard screen to show.
type VerificationProgress struct {
	Step         domain.VerificationStep `json:"step"`
	Verification *domain.Verification    `json:"verification,omitempty"`
}

type VerificationService struct {
	verifications *repository.VerificationRepository
	bookings      *repository.BookingRepository
	profiles      *repository.ProfileRepository
	booking       *BookingService
	store         storage.ObjectStore
	notify        *NotificationService
	audit         *AuditService
}

func NewVerificationService(db *pgxpool.Pool, booking *BookingService, store storage.ObjectStore, notify *NotificationService, audit *AuditService) *VerificationService {
	return &VerificationService{
		verifications: repository.NewVerificationRepository(db),
		bookings:      repository.NewBookingRepository(db),
		profiles:      repository.NewProfileRepository(db),
		booking:       booking,
		store:         store,
		notify:        notify,
		audit:         audit,
	}
}

// ValidateDetails checks the details step on its own.
func ValidateDetails(fullName, phone string) error {
	if err := ValidateFullName(fullName); err != nil {
		return err
	}
	return ValidatePhone(phone)
}

// Progress reports where the client is in the wizard for a booking.
func (s *VerificationService) Progress(ctx context.Context, clientID, bookingID string) (*VerificationProgress, error) {
	b, err := s.booking.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ClientID != clientID {
		return nil, ErrForbidden
	}
	v, err := s.verifications.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if v == nil || v.Status == domain.VerificationRejected {
		return &VerificationProgress{Step: domain.StepIntro, Verification: v}, nil
	}
	return &VerificationProgress{Step: domain.StepComplete, Verification: v}, nil
}

// Submit stores the selfie and details and queues the booking for review.
func (s *VerificationService) Submit(ctx context.Context, clientID string, in SubmitVerificationInput) (*domain.Verification, error) {
	if len(in.Selfie) == 0 {
		return nil, invalid("selfie", "Please take a selfie to continue")
	}
	if len(in.Selfie) > maxSelfieBytes {
		return nil, invalid("selfie", "Selfie image is too large")
	}
	if err := ValidateDetails(in.FullName, in.Phone); err != nil {
		return nil, err
	}

	b, err := s.booking.get(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if b.ClientID != clientID {
		return nil, userError(ErrForbidden, "You are not authorized to verify this booking")
	}
	if b.Status != domain.BookingVerificationPending && b.Status != domain.BookingPaymentPending {
		return nil, userError(ErrInvalidState, "Booking cannot be verified. Current status: %s", b.Status)
	}
	existing, err := s.verifications.GetByBookingID(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == domain.VerificationApproved {
		return nil, userError(ErrInvalidState, "Verification is already approved")
	}

	selfie, _ := storage.CompressImage(in.Selfie, storage.MaxImageDimension, storage.JPEGQuality)
	key := in.BookingID + "/selfie.jpg"
	if err := s.store.Put(ctx, storage.BucketVerifications, key, selfie, storage.PutOptions{
		ContentType:  "image/jpeg",
		CacheControl: "3600",
		Upsert:       true,
	}); err != nil {
		return nil, fmt.Errorf("upload selfie: %w", err)
	}

	v := &domain.Verification{
		BookingID: in.BookingID,
		SelfieURL: fmt.Sprintf("%s?v=%d", s.store.PublicURL(storage.BucketVerifications, key), time.Now().UnixMilli()),
		FullName:  strings.TrimSpace(in.FullName),
		Phone:     NormalizePhone(in.Phone),
	}
	if gps := strings.TrimSpace(in.GPSCoords); gps != "" {
		v.GPSCoords = &gps
	}

	err = s.booking.wallet.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.verifications.UpsertWithTx(ctx, tx, v); err != nil {
			return err
		}
		err := s.bookings.TransitionWithTx(ctx, tx, in.BookingID,
			[]domain.BookingStatus{domain.BookingPaymentPending, domain.BookingVerificationPending},
			domain.BookingVerificationPending, nil)
		if errors.Is(err, repository.ErrConditionFailed) {
			return userError(ErrInvalidState, "Booking status has changed")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("verification submitted", "booking_id", in.BookingID, "client_id", clientID)

	admins, err := s.profiles.ListAdminIDs(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to list admins", "error", err)
	}
	for _, adminID := range admins {
		s.notify.Notify(ctx, adminID, domain.NotifyVerificationSubmit, "New Verification",
			fmt.Sprintf("A client verification for booking #%s is waiting for review.", shortID(in.BookingID)),
			map[string]interface{}{"booking_id": in.BookingID})
	}

	return v, nil
}

// Approve marks the client verified; the talent can then accept the booking.
func (s *VerificationService) Approve(ctx context.Context, adminID, bookingID, notes string, meta RequestMeta) (*domain.Verification, error) {
	var b *domain.Booking
	err := s.booking.wallet.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.lockPending(ctx, tx, bookingID); err != nil {
			return err
		}
		var err error
		if b, err = s.bookings.LockWithTx(ctx, tx, bookingID); err != nil {
			return err
		}
		if b == nil {
			return userError(ErrNotFound, "Booking not found")
		}
		return s.verifications.ReviewWithTx(ctx, tx, bookingID, domain.VerificationApproved, adminID, optional(strings.TrimSpace(notes)))
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogResource(ctx, adminID, domain.AuditActionVerificationApprove, domain.AuditCategoryVerification,
		"booking", bookingID, meta, map[string]interface{}{"notes": notes})

	s.notify.Notify(ctx, b.ClientID, domain.NotifyVerificationOK, "Verification Approved",
		"Your verification has been approved. The talent can now confirm your booking.",
		map[string]interface{}{"booking_id": bookingID})
	s.notify.Notify(ctx, b.TalentID, domain.NotifyVerificationOK, "Client Verified",
		fmt.Sprintf("The client for booking #%s has been verified. You can now accept the booking.", shortID(bookingID)),
		map[string]interface{}{"booking_id": bookingID})

	return s.verifications.GetByBookingID(ctx, bookingID)
}

// Reject cancels the booking and refunds the client's escrow.
func (s *VerificationService) Reject(ctx context.Context, adminID, bookingID, notes string, meta RequestMeta) (*domain.Booking, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, invalid("notes", "Admin notes are required for rejection")
	}

	var b *domain.Booking
	err := s.booking.wallet.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.lockPending(ctx, tx, bookingID); err != nil {
			return err
		}
		if err := s.verifications.ReviewWithTx(ctx, tx, bookingID, domain.VerificationRejected, adminID, &notes); err != nil {
			return err
		}

		var err error
		if b, err = s.bookings.LockWithTx(ctx, tx, bookingID); err != nil {
			return err
		}
		if b == nil {
			return userError(ErrNotFound, "Booking not found")
		}
		if !b.Open() {
			return nil
		}
		cancelNote := "Cancelled by admin: " + notes
		return s.booking.refundWithTx(ctx, tx, b, &cancelNote,
			fmt.Sprintf("Refund for rejected verification - Booking #%s", shortID(b.ID)))
	})
	if err != nil {
		return nil, err
	}
	s.booking.wallet.Invalidate(ctx, b.ClientID)

	s.audit.LogResource(ctx, adminID, domain.AuditActionVerificationReject, domain.AuditCategoryVerification,
		"booking", bookingID, meta, map[string]interface{}{"notes": notes, "refund": b.TotalPrice})

	s.notify.Notify(ctx, b.ClientID, domain.NotifyVerificationFailed, "Booking Cancelled & Refunded",
		fmt.Sprintf("Your booking has been cancelled due to verification rejection. %s coins have been refunded to your wallet.", formatCoins(b.TotalPrice)),
		map[string]interface{}{"booking_id": b.ID, "refund_amount": b.TotalPrice, "reason": notes})
	s.notify.Notify(ctx, b.TalentID, domain.NotifyBookingCancelled, "Booking Cancelled - Verification Rejected",
		"A booking has been cancelled due to client verification rejection. Reason: "+notes,
		map[string]interface{}{"booking_id": b.ID})

	return b, nil
}

func (s *VerificationService) ListPending(ctx context.Context, limit int) ([]*domain.Verification, error) {
	return s.verifications.ListByStatus(ctx, domain.VerificationPending, limit)
}

func (s *VerificationService) lockPending(ctx context.Context, tx pgx.Tx, bookingID string) error {
	v, err := s.verifications.GetByBookingIDWithTx(ctx, tx, bookingID)
	if err != nil {
		return err
	}
	if v == nil {
		return userError(ErrNotFound, "Verification not found")
	}
	if v.Status != domain.VerificationPending {
		return userError(ErrInvalidState, "Verification is already %s", v.Status)
	}
	return nil
}
