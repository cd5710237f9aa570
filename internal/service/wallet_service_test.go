package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefundSplit(t *testing.T) {
	cases := []struct {
		name           string
		escrow, amount int64
		wantEscrow     int64
		wantBalance    int64
	}{
		{"fully held", 5000, 5000, -5000, 5000},
		{"more held than refunded", 8000, 5000, -5000, 5000},
		{"escrow short", 2000, 5000, -2000, 5000},
		{"no escrow", 0, 5000, 0, 5000},
		{"negative escrow", -10, 5000, 0, 5000},
		{"zero amount", 5000, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, b := RefundSplit(tc.escrow, tc.amount)
			assert.Equal(t, tc.wantEscrow, e)
			assert.Equal(t, tc.wantBalance, b)
		})
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := userError(ErrForbidden, "nope %d", 1)
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, "nope 1", err.Error())

	plain := invalid("amount", "bad")
	assert.False(t, errors.Is(plain, ErrForbidden))
	var ve *ValidationError
	assert.True(t, errors.As(plain, &ve))
	assert.Equal(t, "amount", ve.Field)
}
