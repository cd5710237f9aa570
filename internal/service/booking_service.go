package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/metrics"
	"nego/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// bookingZone is West Africa Time; booking dates and times are entered locally.
var bookingZone = time.FixedZone("WAT", 60*60)

type CreateBookingInput struct {
	TalentID   string   `json:"talent_id"`
	ServiceIDs []string `json:"service_ids"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Notes      string   `json:"notes"`
}

type BookingService struct {
	bookings      *repository.BookingRepository
	profiles      *repository.ProfileRepository
	services      *repository.TalentServiceRepository
	verifications *repository.VerificationRepository
	wallet        *WalletService
	notify        *NotificationService

	now func() time.Time
}

func NewBookingService(db *pgxpool.Pool, wallet *WalletService, notify *NotificationService) *BookingService {
	return &BookingService{
		bookings:      repository.NewBookingRepository(db),
		profiles:      repository.NewProfileRepository(db),
		services:      repository.NewTalentServiceRepository(db),
		verifications: repository.NewVerificationRepository(db),
		wallet:        wallet,
		notify:        notify,
		now:           time.Now,
	}
}

// ParseSchedule combines a YYYY-MM-DD date and HH:MM time in West Africa Time.
func ParseSchedule(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(date)+" "+strings.TrimSpace(clock), bookingZone)
	if err != nil {
		return time.Time{}, invalid("date", "Please select a valid date and time")
	}
	return t, nil
}

// Create holds the total in the client's escrow and opens the booking
// awaiting identity verification.
func (s *BookingService) Create(ctx context.Context, clientID string, in CreateBookingInput) (*domain.Booking, error) {
	if in.TalentID == clientID {
		return nil, invalid("talent_id", "You cannot book yourself")
	}
	if len(in.ServiceIDs) == 0 {
		return nil, invalid("service_ids", "Please select at least one service")
	}
	scheduled, err := ParseSchedule(in.Date, in.Time)
	if err != nil {
		return nil, err
	}
	if err := ValidateBookingTime(scheduled, s.now().In(bookingZone)); err != nil {
		return nil, err
	}
	var notes *string
	if n := strings.TrimSpace(in.Notes); n != "" {
		if err := ValidateTextLen("notes", n, domain.MaxNotesLen); err != nil {
			return nil, err
		}
		notes = &n
	}

	talent, err := s.profiles.GetByID(ctx, in.TalentID)
	if err != nil {
		return nil, err
	}
	if talent == nil || !talent.IsTalent() || talent.IsSuspended {
		return nil, userError(ErrNotFound, "Talent not found")
	}

	b := &domain.Booking{
		ClientID:    clientID,
		TalentID:    in.TalentID,
		Status:      domain.BookingVerificationPending,
		ScheduledAt: scheduled,
		Notes:       notes,
	}

	err = s.wallet.withTx(ctx, func(tx pgx.Tx) error {
		svcs, err := s.services.GetActiveByIDsWithTx(ctx, tx, in.TalentID, dedupe(in.ServiceIDs))
		if err != nil {
			return err
		}
		if len(svcs) == 0 {
			return invalid("service_ids", "None of the selected services are available")
		}
		for _, svc := range svcs {
			b.TotalPrice += svc.Price
			b.ServicesSnapshot = append(b.ServicesSnapshot, domain.ServiceSnapshot{ServiceID: svc.ID, Name: svc.Name, Price: svc.Price})
		}

		if _, err := s.wallet.moveToEscrowWithTx(ctx, tx, clientID, b.TotalPrice); err != nil {
			return err
		}
		if err := s.bookings.CreateWithTx(ctx, tx, b); err != nil {
			return err
		}
		ref := b.ID
		return s.wallet.recordWithTx(ctx, tx, &domain.Transaction{
			UserID:      clientID,
			Coins:       -b.TotalPrice,
			Type:        domain.TxBooking,
			ReferenceID: &ref,
			Description: "Booking with " + displayName(talent),
		})
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return nil, &ValidationError{Field: "balance", Message: "Insufficient balance. Please top up your wallet.", Err: ErrInsufficientFunds}
		}
		return nil, err
	}
	s.wallet.Invalidate(ctx, clientID)

	metrics.Bookings.WithLabelValues(string(b.Status)).Inc()
	logger.FromContext(ctx).Info("booking created", "booking_id", b.ID, "client_id", clientID, "talent_id", in.TalentID, "total", b.TotalPrice)

	s.notify.Notify(ctx, in.TalentID, domain.NotifyBookingCreated, "New Booking Request",
		fmt.Sprintf("You have a new booking request for %s coins. It will be available to accept once the client is verified.", formatCoins(b.TotalPrice)),
		map[string]interface{}{"booking_id": b.ID, "client_id": clientID, "total_price": b.TotalPrice})

	return b, nil
}

// Accept confirms a booking once the client's verification is approved.
func (s *BookingService) Accept(ctx context.Context, talentID, bookingID string) (*domain.Booking, error) {
	b, err := s.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.TalentID != talentID {
		return nil, userError(ErrForbidden, "You are not authorized to accept this booking")
	}
	if b.Status != domain.BookingVerificationPending {
		return nil, userError(ErrInvalidState, "Booking cannot be accepted. Current status: %s", b.Status)
	}

	v, err := s.verifications.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, userError(ErrInvalidState, "Verification not found. The client must complete verification before you can accept this booking.")
	}
	switch v.Status {
	case domain.VerificationApproved:
	case domain.VerificationPending:
		return nil, userError(ErrInvalidState, "This booking is awaiting admin verification approval. Please wait for admin to review the client verification before accepting.")
	default:
		return nil, userError(ErrInvalidState, "This booking cannot be accepted. The verification has been rejected.")
	}

	err = s.bookings.Transition(ctx, bookingID, []domain.BookingStatus{domain.BookingVerificationPending}, domain.BookingConfirmed)
	if errors.Is(err, repository.ErrConditionFailed) {
		return nil, s.raced(ctx, bookingID)
	}
	if err != nil {
		return nil, err
	}
	b.Status = domain.BookingConfirmed

	metrics.Bookings.WithLabelValues(string(b.Status)).Inc()
	s.notify.Notify(ctx, b.ClientID, domain.NotifyBookingConfirmed, "Booking Confirmed",
		"Your booking has been accepted by the talent.",
		map[string]interface{}{"booking_id": b.ID})

	return b, nil
}

// Complete pays the talent from the client's escrow.
func (s *BookingService) Complete(ctx context.Context, talentID, bookingID string) (*domain.Booking, error) {
	var b *domain.Booking
	err := s.wallet.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		b, err = s.bookings.LockWithTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return userError(ErrNotFound, "Booking not found")
		}
		if b.TalentID != talentID {
			return userError(ErrForbidden, "You are not authorized to complete this booking")
		}
		if b.Status != domain.BookingConfirmed {
			return userError(ErrInvalidState, "Booking cannot be completed. Current status: %s", b.Status)
		}
		return s.completeWithTx(ctx, tx, b, []domain.BookingStatus{domain.BookingConfirmed})
	})
	if err != nil {
		return nil, err
	}
	s.afterComplete(ctx, b)
	return b, nil
}

// completeWithTx releases the client's hold and credits the talent.
func (s *BookingService) completeWithTx(ctx context.Context, tx pgx.Tx, b *domain.Booking, from []domain.BookingStatus) error {
	if err := s.bookings.TransitionWithTx(ctx, tx, b.ID, from, domain.BookingCompleted, nil); err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return userError(ErrInvalidState, "Booking status has changed")
		}
		return err
	}
	b.Status = domain.BookingCompleted

	if b.TotalPrice <= 0 {
		return nil
	}
	if _, err := s.wallet.releaseEscrowWithTx(ctx, tx, b.ClientID, b.TotalPrice); err != nil {
		return err
	}
	if _, err := s.wallet.creditWithTx(ctx, tx, b.TalentID, b.TotalPrice); err != nil {
		return err
	}
	ref := b.ID
	return s.wallet.recordWithTx(ctx, tx, &domain.Transaction{
		UserID:      b.TalentID,
		Coins:       b.TotalPrice,
		Type:        domain.TxBookingEarning,
		ReferenceID: &ref,
		Description: fmt.Sprintf("Earnings from completed booking #%s", shortID(b.ID)),
	})
}

func (s *BookingService) afterComplete(ctx context.Context, b *domain.Booking) {
	s.wallet.Invalidate(ctx, b.ClientID, b.TalentID)
	metrics.Bookings.WithLabelValues(string(domain.BookingCompleted)).Inc()
	logger.FromContext(ctx).Info("booking completed", "booking_id", b.ID, "talent_id", b.TalentID, "amount", b.TotalPrice)

	s.notify.Notify(ctx, b.TalentID, domain.NotifyBookingCompleted, "Booking Completed",
		fmt.Sprintf("%s coins from booking #%s have been added to your balance.", formatCoins(b.TotalPrice), shortID(b.ID)),
		map[string]interface{}{"booking_id": b.ID, "amount": b.TotalPrice})
	s.notify.Notify(ctx, b.ClientID, domain.NotifyBookingCompleted, "Booking Completed",
		fmt.Sprintf("Your booking #%s has been marked as completed.", shortID(b.ID)),
		map[string]interface{}{"booking_id": b.ID})
}

// Cancel lets either participant call off an open booking; the client is refunded.
func (s *BookingService) Cancel(ctx context.Context, actorID, bookingID, reason string) (*domain.Booking, error) {
	var b *domain.Booking
	err := s.wallet.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		b, err = s.bookings.LockWithTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return userError(ErrNotFound, "Booking not found")
		}
		if !b.IsParticipant(actorID) {
			return userError(ErrForbidden, "You are not authorized to cancel this booking")
		}
		if !b.Open() || b.Status == domain.BookingDisputed {
			return userError(ErrInvalidState, "Booking cannot be cancelled. Current status: %s", b.Status)
		}

		var notes *string
		if r := strings.TrimSpace(reason); r != "" {
			n := "Cancelled: " + r
			notes = &n
		}
		return s.refundWithTx(ctx, tx, b, notes, fmt.Sprintf("Refund for cancelled booking #%s", shortID(b.ID)))
	})
	if err != nil {
		return nil, err
	}
	s.wallet.Invalidate(ctx, b.ClientID)
	metrics.Bookings.WithLabelValues(string(domain.BookingCancelled)).Inc()

	other := b.TalentID
	if actorID == b.TalentID {
		other = b.ClientID
	}
	s.notify.Notify(ctx, other, domain.NotifyBookingCancelled, "Booking Cancelled",
		fmt.Sprintf("Booking #%s has been cancelled.", shortID(b.ID)),
		map[string]interface{}{"booking_id": b.ID, "reason": reason})

	return b, nil
}

// ExpireStale cancels bookings left in payment_pending past paymentTTL or
// awaiting verification past verificationTTL, refunding any escrow.
func (s *BookingService) ExpireStale(ctx context.Context, paymentTTL, verificationTTL time.Duration) (int64, error) {
	var expired int64
	for status, ttl := range map[domain.BookingStatus]time.Duration{
		domain.BookingPaymentPending:      paymentTTL,
		domain.BookingVerificationPending: verificationTTL,
	} {
		cutoff := s.now().Add(-ttl)
		ids, err := s.bookings.ListStale(ctx, status, cutoff, 0)
		if err != nil {
			return expired, err
		}
		for _, id := range ids {
			ok, err := s.expire(ctx, id, status, cutoff)
			if err != nil {
				logger.Error("expire booking failed", "booking_id", id, "error", err)
				continue
			}
			if ok {
				expired++
			}
		}
	}
	return expired, nil
}

func (s *BookingService) expire(ctx context.Context, id string, status domain.BookingStatus, cutoff time.Time) (bool, error) {
	var b *domain.Booking
	err := s.wallet.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		b, err = s.bookings.LockWithTx(ctx, tx, id)
		if err != nil {
			return err
		}
		// touched since it was listed
		if b == nil || b.Status != status || !b.UpdatedAt.Before(cutoff) {
			b = nil
			return nil
		}
		notes := "Expired: no activity"
		return s.refundWithTx(ctx, tx, b, &notes, fmt.Sprintf("Refund for expired booking #%s", shortID(b.ID)))
	})
	if err != nil || b == nil {
		return false, err
	}
	s.wallet.Invalidate(ctx, b.ClientID)
	metrics.Bookings.WithLabelValues(string(domain.BookingCancelled)).Inc()

	name := "the talent"
	if t, err := s.profiles.GetByID(ctx, b.TalentID); err == nil && t != nil {
		name = displayName(t)
	}
	s.notify.Notify(ctx, b.ClientID, domain.NotifyBookingExpired, "Booking Expired",
		fmt.Sprintf("Your booking with %s has expired due to inactivity.", name),
		map[string]interface{}{"booking_id": b.ID})
	return true, nil
}

// refundWithTx cancels b and returns its escrowed total to the client.
func (s *BookingService) refundWithTx(ctx context.Context, tx pgx.Tx, b *domain.Booking, notes *string, description string) error {
	from := []domain.BookingStatus{
		domain.BookingPaymentPending, domain.BookingVerificationPending, domain.BookingConfirmed, domain.BookingDisputed,
	}
	if err := s.bookings.TransitionWithTx(ctx, tx, b.ID, from, domain.BookingCancelled, notes); err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return userError(ErrInvalidState, "Booking status has changed")
		}
		return err
	}
	held := b.Status != domain.BookingPaymentPending
	b.Status = domain.BookingCancelled

	if !held || b.TotalPrice <= 0 {
		return nil
	}
	if _, err := s.wallet.refundFromEscrowWithTx(ctx, tx, b.ClientID, b.TotalPrice); err != nil {
		return err
	}
	ref := b.ID
	return s.wallet.recordWithTx(ctx, tx, &domain.Transaction{
		UserID:      b.ClientID,
		Coins:       b.TotalPrice,
		Type:        domain.TxRefund,
		ReferenceID: &ref,
		Description: description,
	})
}

// Get returns a booking to a participant or an admin.
func (s *BookingService) Get(ctx context.Context, userID string, role domain.Role, bookingID string) (*domain.Booking, error) {
	b, err := s.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && !b.IsParticipant(userID) {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *BookingService) List(ctx context.Context, userID string, role domain.Role, status string, limit int) ([]*domain.Booking, error) {
	switch role {
	case domain.RoleAdmin:
		return s.bookings.ListByStatus(ctx, status, limit)
	case domain.RoleTalent:
		return s.bookings.ListForTalent(ctx, userID, limit)
	default:
		return s.bookings.ListForClient(ctx, userID, limit)
	}
}

func (s *BookingService) get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, userError(ErrNotFound, "Booking not found")
	}
	return b, nil
}

// raced explains a conditional update that matched nothing.
func (s *BookingService) raced(ctx context.Context, bookingID string) error {
	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if current == nil {
		return userError(ErrNotFound, "Booking not found")
	}
	return userError(ErrInvalidState, "Booking status has changed. Current status: %s", current.Status)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
