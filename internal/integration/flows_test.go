package integration

import (
	"context"
	"testing"

	"nego/internal/domain"
	"nego/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGiftMovesCoins(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	client := e.newUser(t, domain.RoleClient, 1_000)
	talent := e.newUser(t, domain.RoleTalent, 0)

	res, err := e.gifts.Send(ctx, map[string]any{
		"senderId":    client.ID,
		"recipientId": talent.ID,
		"amount":      float64(400),
		"message":     "  great show  ",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(600), res.NewSenderBalance)

	assert.Equal(t, int64(600), e.balance(t, client.ID).Balance)
	assert.Equal(t, int64(400), e.balance(t, talent.ID).Balance)

	sent, _, err := e.gifts.History(ctx, client.ID, 10)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	require.NotNil(t, sent[0].Message)
	assert.Equal(t, "great show", *sent[0].Message)
}

func TestGiftInsufficientBalance(t *testing.T) {
	e := setup(t)
	client := e.newUser(t, domain.RoleClient, 150)
	talent := e.newUser(t, domain.RoleTalent, 0)

	_, err := e.gifts.Send(context.Background(), map[string]any{
		"senderId":    client.ID,
		"recipientId": talent.ID,
		"amount":      float64(500),
	})
	require.ErrorIs(t, err, service.ErrInsufficientFunds)

	assert.Equal(t, int64(150), e.balance(t, client.ID).Balance)
	assert.Equal(t, int64(0), e.balance(t, talent.ID).Balance)
}

func bookTalent(t *testing.T, e *env, client, talent *domain.Profile) *domain.Booking {
	t.Helper()
	ctx := context.Background()

	svc, err := e.profiles.AddService(ctx, talent.ID, "Dinner date", 12_000)
	require.NoError(t, err)

	date, clock := tomorrow()
	b, err := e.bookings.Create(ctx, client.ID, service.CreateBookingInput{
		TalentID:   talent.ID,
		ServiceIDs: []string{svc.ID},
		Date:       date,
		Time:       clock,
	})
	require.NoError(t, err)
	return b
}

func TestBookingLifecycle(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	client := e.newUser(t, domain.RoleClient, 20_000)
	talent := e.newUser(t, domain.RoleTalent, 0)
	admin := e.newUser(t, domain.RoleAdmin, 0)

	b := bookTalent(t, e, client, talent)
	assert.Equal(t, domain.BookingVerificationPending, b.Status)
	assert.Equal(t, int64(12_000), b.TotalPrice)

	w := e.balance(t, client.ID)
	assert.Equal(t, int64(8_000), w.Balance)
	assert.Equal(t, int64(12_000), w.EscrowBalance)

	// the talent cannot accept before the client is verified
	_, err := e.bookings.Accept(ctx, talent.ID, b.ID)
	require.ErrorIs(t, err, service.ErrInvalidState)

	_, err = e.verification.Submit(ctx, client.ID, service.SubmitVerificationInput{
		BookingID: b.ID,
		Selfie:    pngBytes(t),
		FullName:  "Ada Obi",
		Phone:     "0801-234-5678",
	})
	require.NoError(t, err)

	_, err = e.verification.Approve(ctx, admin.ID, b.ID, "", service.RequestMeta{})
	require.NoError(t, err)

	b, err = e.bookings.Accept(ctx, talent.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)

	b, err = e.bookings.Complete(ctx, talent.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, b.Status)

	w = e.balance(t, client.ID)
	assert.Equal(t, int64(8_000), w.Balance)
	assert.Equal(t, int64(0), w.EscrowBalance)
	assert.Equal(t, int64(12_000), e.balance(t, talent.ID).Balance)
}

func TestRejectedVerificationRefundsClient(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	client := e.newUser(t, domain.RoleClient, 12_000)
	talent := e.newUser(t, domain.RoleTalent, 0)
	admin := e.newUser(t, domain.RoleAdmin, 0)

	b := bookTalent(t, e, client, talent)
	_, err := e.verification.Submit(ctx, client.ID, service.SubmitVerificationInput{
		BookingID: b.ID,
		Selfie:    pngBytes(t),
		FullName:  "Ada Obi",
		Phone:     "+2348012345678",
	})
	require.NoError(t, err)

	b, err = e.verification.Reject(ctx, admin.ID, b.ID, "Blurry selfie", service.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, b.Status)

	w := e.balance(t, client.ID)
	assert.Equal(t, int64(12_000), w.Balance)
	assert.Equal(t, int64(0), w.EscrowBalance)
}

func TestDisputeRefund(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	client := e.newUser(t, domain.RoleClient, 12_000)
	talent := e.newUser(t, domain.RoleTalent, 0)
	admin := e.newUser(t, domain.RoleAdmin, 0)

	b := bookTalent(t, e, client, talent)

	d, err := e.disputes.Open(ctx, client.ID, service.OpenDisputeInput{BookingID: b.ID, Reason: "No show"})
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeOpen, d.Status)

	_, err = e.disputes.Open(ctx, talent.ID, service.OpenDisputeInput{BookingID: b.ID, Reason: "Again"})
	require.Error(t, err)

	d, err = e.disputes.UpdateStatus(ctx, admin.ID, d.ID, service.UpdateDisputeInput{
		Status:     domain.DisputeResolved,
		Resolution: domain.ResolutionRefundClient,
	}, service.RequestMeta{})
	require.NoError(t, err)
	require.NotNil(t, d.ResolvedBy)
	assert.Equal(t, admin.ID, *d.ResolvedBy)

	got, err := e.bookings.Get(ctx, client.ID, domain.RoleClient, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, int64(12_000), e.balance(t, client.ID).Balance)
}

func TestPaymentCreditedOnce(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	client := e.newUser(t, domain.RoleClient, 0)

	checkout, err := e.payments.Create(ctx, client.ID, "coins-1000", domain.ProviderPaystack, "NGN")
	require.NoError(t, err)

	out, err := e.payments.ProcessSuccessful(ctx, checkout.Reference, checkout.Amount, domain.ProviderPaystack)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.False(t, out.AlreadyProcessed)
	assert.Equal(t, int64(1_000), out.CoinsAdded)

	out, err = e.payments.ProcessSuccessful(ctx, checkout.Reference, checkout.Amount, domain.ProviderPaystack)
	require.NoError(t, err)
	assert.True(t, out.AlreadyProcessed)

	assert.Equal(t, int64(1_000), e.balance(t, client.ID).Balance)
}

func TestPaymentAmountMismatch(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	client := e.newUser(t, domain.RoleClient, 0)

	checkout, err := e.payments.Create(ctx, client.ID, "coins-1000", domain.ProviderSegpay, "NGN")
	require.NoError(t, err)
	assert.NotEmpty(t, checkout.URL)

	out, err := e.payments.ProcessSuccessful(ctx, checkout.Reference, checkout.Amount-50, domain.ProviderSegpay)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, int64(0), e.balance(t, client.ID).Balance)
}

func TestModerationUndo(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	talent := e.newUser(t, domain.RoleTalent, 0)
	admin := e.newUser(t, domain.RoleAdmin, 0)

	m, err := e.media.Upload(ctx, talent.ID, service.UploadInput{
		Filename:    "beach.png",
		ContentType: "image/png",
		Data:        pngBytes(t),
	})
	require.NoError(t, err)
	assert.Contains(t, m.StoragePath, talent.ID+"/")
	assert.Contains(t, m.StoragePath, "_beach.jpg")

	action, err := e.moderation.Moderate(ctx, admin.ID, m.ID, domain.ModerationRejected, "off-topic", service.RequestMeta{})
	require.NoError(t, err)

	public, err := e.media.PublicMedia(ctx, talent.ID, "", "")
	require.NoError(t, err)
	assert.Empty(t, public)

	_, err = e.moderation.Undo(ctx, admin.ID, action.ID, service.RequestMeta{})
	require.NoError(t, err)
	assert.Empty(t, e.moderation.ListUndo(admin.ID))

	mine, err := e.media.MyMedia(ctx, talent.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].ModerationStatus)
	assert.Equal(t, domain.ModerationPending, *mine[0].ModerationStatus)
}

func TestWithdrawalApproval(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	talent := e.newUser(t, domain.RoleTalent, 15_000)
	admin := e.newUser(t, domain.RoleAdmin, 0)

	in := service.WithdrawalInput{Amount: 10_000, BankName: "GTBank", AccountNumber: "0123456789", AccountName: "Ada Obi"}
	req, err := e.withdrawals.Request(ctx, talent.ID, in, service.RequestMeta{})
	require.NoError(t, err)

	_, err = e.withdrawals.Request(ctx, talent.ID, in, service.RequestMeta{})
	require.ErrorIs(t, err, service.ErrConflict)

	req, err = e.withdrawals.Approve(ctx, admin.ID, req.ID, "", service.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusApproved, req.Status)
	assert.Equal(t, int64(5_000), e.balance(t, talent.ID).Balance)
}

func TestClosedDisputeRestoresBookingStatus(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	client := e.newUser(t, domain.RoleClient, 12_000)
	talent := e.newUser(t, domain.RoleTalent, 0)
	admin := e.newUser(t, domain.RoleAdmin, 0)

	b := bookTalent(t, e, client, talent)
	require.Equal(t, domain.BookingVerificationPending, b.Status)

	d, err := e.disputes.Open(ctx, talent.ID, service.OpenDisputeInput{BookingID: b.ID, Reason: "Client unreachable"})
	require.NoError(t, err)
	require.NotNil(t, d.PreviousStatus)
	assert.Equal(t, domain.BookingVerificationPending, *d.PreviousStatus)

	_, err = e.disputes.UpdateStatus(ctx, admin.ID, d.ID, service.UpdateDisputeInput{Status: domain.DisputeClosed}, service.RequestMeta{})
	require.NoError(t, err)

	got, err := e.bookings.Get(ctx, client.ID, domain.RoleClient, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingVerificationPending, got.Status)

	// the verification gate still holds
	_, err = e.bookings.Complete(ctx, talent.ID, b.ID)
	require.ErrorIs(t, err, service.ErrInvalidState)
	_, err = e.bookings.Accept(ctx, talent.ID, b.ID)
	require.ErrorIs(t, err, service.ErrInvalidState)

	w := e.balance(t, client.ID)
	assert.Equal(t, int64(12_000), w.EscrowBalance)
}
