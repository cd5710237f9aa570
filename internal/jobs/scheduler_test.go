package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	ttl   time.Duration
	calls int
	err   error
}

func (f *fakeExpirer) ExpirePending(_ context.Context, ttl time.Duration) (int64, error) {
	f.calls++
	f.ttl = ttl
	return 3, f.err
}

type fakeBookings struct {
	pay, ver time.Duration
	calls    int
	err      error
}

func (f *fakeBookings) ExpireStale(_ context.Context, pay, ver time.Duration) (int64, error) {
	f.calls++
	f.pay, f.ver = pay, ver
	return 1, f.err
}

type fakeDigest struct{ calls int }

func (f *fakeDigest) Digest(context.Context) error {
	f.calls++
	return nil
}

func TestSchedulerJobs(t *testing.T) {
	exp := &fakeExpirer{}
	dig := &fakeDigest{}
	books := &fakeBookings{}
	s, err := New(Config{}, exp, books, dig)
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 3)

	s.ExpirePayments()
	assert.Equal(t, 1, exp.calls)
	assert.Equal(t, 24*time.Hour, exp.ttl)

	exp.err = errors.New("db down")
	s.ExpirePayments()
	assert.Equal(t, 2, exp.calls)

	s.ExpireBookings()
	assert.Equal(t, 1, books.calls)
	assert.Equal(t, time.Hour, books.pay)
	assert.Equal(t, 24*time.Hour, books.ver)

	books.err = errors.New("db down")
	s.ExpireBookings()
	assert.Equal(t, 2, books.calls)

	s.RunDigest()
	assert.Equal(t, 1, dig.calls)
}

func TestSchedulerBookingTTLs(t *testing.T) {
	books := &fakeBookings{}
	s, err := New(Config{BookingPaymentTTL: 30 * time.Minute, BookingVerificationTTL: 6 * time.Hour}, &fakeExpirer{}, books, &fakeDigest{})
	require.NoError(t, err)
	s.ExpireBookings()
	assert.Equal(t, 30*time.Minute, books.pay)
	assert.Equal(t, 6*time.Hour, books.ver)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	_, err := New(Config{DigestSpec: "every tuesday"}, &fakeExpirer{}, &fakeBookings{}, &fakeDigest{})
	assert.Error(t, err)
}

func TestSchedulerStartStop(t *testing.T) {
	s, err := New(Config{PendingTxTTL: time.Hour, DigestSpec: "@daily"}, &fakeExpirer{}, &fakeBookings{}, &fakeDigest{})
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
