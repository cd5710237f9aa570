package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"nego/internal/domain"
	"nego/internal/moderation"
	"nego/internal/payment"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These cover the argument checks that run before any query, so the
// services are built without a pool.

func TestModerationRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := NewModerationService(nil, moderation.NewUndoStack(0), nil, nil)

	_, err := s.Moderate(ctx, alice, bob, domain.ModerationPending, "", RequestMeta{})
	assert.Equal(t, "status", fieldOf(t, err))

	_, err = s.Flag(ctx, alice, bob, "   ", RequestMeta{})
	assert.Equal(t, "reason", fieldOf(t, err))

	_, err = s.SuspendUser(ctx, alice, alice, "spam", RequestMeta{})
	assert.True(t, errors.Is(err, ErrForbidden))

	_, err = s.UndoLast(ctx, alice, RequestMeta{})
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.Undo(ctx, alice, "missing", RequestMeta{})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, s.ListUndo(alice))

	// messages are never used as format strings
	err = s.mapMissing(pgx.ErrNoRows, "Media 100% gone")
	assert.Equal(t, "Media 100% gone", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRestoredStatus(t *testing.T) {
	st := func(s domain.BookingStatus) *domain.BookingStatus { return &s }

	assert.Equal(t, domain.BookingConfirmed, RestoredStatus(nil))
	assert.Equal(t, domain.BookingVerificationPending, RestoredStatus(st(domain.BookingVerificationPending)))
	assert.Equal(t, domain.BookingPaymentPending, RestoredStatus(st(domain.BookingPaymentPending)))
	assert.Equal(t, domain.BookingConfirmed, RestoredStatus(st(domain.BookingConfirmed)))
	assert.Equal(t, domain.BookingConfirmed, RestoredStatus(st(domain.BookingDisputed)))
}

func TestDisputeUpdateValidation(t *testing.T) {
	ctx := context.Background()
	s := NewDisputeService(nil, nil, nil, nil)

	_, err := s.UpdateStatus(ctx, alice, bob, UpdateDisputeInput{Status: "escalated"}, RequestMeta{})
	assert.Equal(t, "status", fieldOf(t, err))

	_, err = s.UpdateStatus(ctx, alice, bob, UpdateDisputeInput{Status: domain.DisputeResolved, Resolution: "split"}, RequestMeta{})
	assert.Equal(t, "resolution", fieldOf(t, err))

	_, err = s.UpdateStatus(ctx, alice, bob, UpdateDisputeInput{
		Status: domain.DisputeUnderReview, Resolution: domain.ResolutionRefundClient,
	}, RequestMeta{})
	assert.Equal(t, "resolution", fieldOf(t, err))

	_, err = s.Open(ctx, alice, OpenDisputeInput{BookingID: bob})
	assert.Equal(t, "reason", fieldOf(t, err))
}

func TestFreeTextLimits(t *testing.T) {
	ctx := context.Background()
	long := func(n int) string { return strings.Repeat("x", n+1) }

	mod := NewModerationService(nil, moderation.NewUndoStack(0), nil, nil)
	_, err := mod.Moderate(ctx, alice, bob, domain.ModerationApproved, long(domain.MaxNotesLen), RequestMeta{})
	assert.Equal(t, "notes", fieldOf(t, err))
	_, err = mod.Flag(ctx, alice, bob, long(domain.MaxReasonLen), RequestMeta{})
	assert.Equal(t, "reason", fieldOf(t, err))
	_, err = mod.SuspendUser(ctx, alice, bob, long(domain.MaxReasonLen), RequestMeta{})
	assert.Equal(t, "reason", fieldOf(t, err))

	disputes := NewDisputeService(nil, nil, nil, nil)
	_, err = disputes.Open(ctx, alice, OpenDisputeInput{BookingID: bob, Reason: long(domain.MaxReasonLen)})
	assert.Equal(t, "reason", fieldOf(t, err))
	_, err = disputes.Open(ctx, alice, OpenDisputeInput{BookingID: bob, Reason: "no_show", Description: long(domain.MaxDescriptionLen)})
	assert.Equal(t, "description", fieldOf(t, err))
	_, err = disputes.UpdateStatus(ctx, alice, bob, UpdateDisputeInput{Status: domain.DisputeClosed, Notes: long(domain.MaxNotesLen)}, RequestMeta{})
	assert.Equal(t, "notes", fieldOf(t, err))

	admin := NewAdminService(nil, nil)
	err = admin.SetTalentNotes(ctx, alice, bob, long(domain.MaxNotesLen), RequestMeta{})
	assert.Equal(t, "notes", fieldOf(t, err))

	profiles := NewProfileService(nil, domain.DefaultMinServicePrice)
	bio := long(domain.MaxBioLen)
	_, err = profiles.UpdateProfile(ctx, alice, domain.ProfilePatch{Bio: &bio})
	assert.Equal(t, "bio", fieldOf(t, err))

	bookings := NewBookingService(nil, nil, nil)
	_, err = bookings.Create(ctx, alice, CreateBookingInput{
		TalentID:   bob,
		ServiceIDs: []string{"s1"},
		Date:       time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
		Time:       "12:00",
		Notes:      long(domain.MaxNotesLen),
	})
	assert.Equal(t, "notes", fieldOf(t, err))
}

func TestPackageInput(t *testing.T) {
	p, err := PackageInput{Coins: 2500}.build("coins-2500")
	require.NoError(t, err)
	assert.Equal(t, 25000.0, p.Price)
	assert.Equal(t, int64(2_500_000), p.PriceInKobo)
	assert.Equal(t, "2,500 Coins", p.DisplayName)
	assert.True(t, p.IsActive)

	price, off := 19999.5, false
	p, err = PackageInput{Coins: 2000, Price: &price, DisplayName: " Promo ", IsActive: &off}.build("promo")
	require.NoError(t, err)
	assert.Equal(t, int64(1_999_950), p.PriceInKobo)
	assert.Equal(t, "Promo", p.DisplayName)
	assert.False(t, p.IsActive)

	_, err = PackageInput{}.build("x")
	assert.Equal(t, "coins", fieldOf(t, err))
	zero := 0.0
	_, err = PackageInput{Coins: 10, Price: &zero}.build("x")
	assert.Equal(t, "price", fieldOf(t, err))
	_, err = PackageInput{Coins: 10, Description: strings.Repeat("d", domain.MaxReasonLen+1)}.build("x")
	assert.Equal(t, "description", fieldOf(t, err))

	payments := NewPaymentService(nil, nil, nil, nil, PaymentProviders{}, "http://api", "http://app", 100)
	for _, id := range []string{"", "Coins 500", "-lead", strings.Repeat("a", 51)} {
		_, err = payments.CreatePackage(context.Background(), alice, PackageInput{ID: id, Coins: 500}, RequestMeta{})
		assert.Equal(t, "id", fieldOf(t, err), id)
	}
}

func TestPaymentAndPayoutValidation(t *testing.T) {
	ctx := context.Background()

	payments := NewPaymentService(nil, nil, nil, nil, PaymentProviders{}, "http://api", "http://app", 100)
	_, err := payments.Create(ctx, alice, "coins-1000", "paypal", "NGN")
	assert.Equal(t, "provider", fieldOf(t, err))

	deposits := NewDepositService(nil, nil, nil, nil, nil)
	_, err = deposits.CreateDepositRequest(ctx, alice, 5, "http://proof", "")
	assert.Equal(t, "amount", fieldOf(t, err))
	_, err = deposits.CreateDepositRequest(ctx, alice, 5000, " ", "")
	assert.Equal(t, "proof_url", fieldOf(t, err))
	_, err = deposits.UploadProof(ctx, alice, "receipt.txt", []byte("not an image"))
	assert.Equal(t, "proof", fieldOf(t, err))

	withdrawals := NewWithdrawalService(nil, nil, nil, nil, 0)
	assert.Equal(t, int64(domain.DefaultMinWithdrawal), withdrawals.minimum)
	_, err = withdrawals.Reject(ctx, alice, bob, "", RequestMeta{})
	assert.Equal(t, "reason", fieldOf(t, err))
}

func TestHandleEventIgnoresUnprocessable(t *testing.T) {
	s := NewPaymentService(nil, nil, nil, nil, PaymentProviders{}, "", "", 100)
	out, err := s.HandleEvent(context.Background(), paymentEvent("nowpayments", "ref_1", false, "Status not finished"))
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "Status not finished", out.Message)

	_, err = s.HandleEvent(context.Background(), paymentEvent("segpay", "", true, ""))
	assert.Equal(t, "reference", fieldOf(t, err))
}

func paymentEvent(provider, ref string, process bool, reason string) payment.Event {
	return payment.Event{Provider: provider, Reference: ref, Process: process, Reason: reason}
}
