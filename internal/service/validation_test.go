package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "6f1c2a9e-3d44-4b8e-9b63-0c6a5a1f2e11"
	bob   = "0b7d7f8e-1a2b-4c3d-8e9f-a0b1c2d3e4f5"
)

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve.Field
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("jane_doe-99"))
	assert.Equal(t, "username", fieldOf(t, ValidateUsername("ab")))
	assert.Error(t, ValidateUsername(strings.Repeat("a", 21)))
	assert.Error(t, ValidateUsername("Jane"))
	assert.Error(t, ValidateUsername("jane doe"))
}

func TestValidateFullNameAndPhone(t *testing.T) {
	assert.NoError(t, ValidateFullName("Ada Obi"))
	assert.Error(t, ValidateFullName("Ada"))
	assert.Error(t, ValidateFullName("A"))

	for _, p := range []string{"08031234567", "+2348031234567", "234 803 123 4567", "0703-123-4567"} {
		assert.NoError(t, ValidatePhone(p), p)
	}
	for _, p := range []string{"0603123456", "12345", "+1 555 0100"} {
		assert.Equal(t, "phone", fieldOf(t, ValidatePhone(p)), p)
	}
	assert.Error(t, ValidateDetails("Ada", "08031234567"))
}

func TestValidateServicePrice(t *testing.T) {
	assert.NoError(t, ValidateServicePrice(10000, 10000))
	err := ValidateServicePrice(9999, 10000)
	require.Error(t, err)
	assert.Equal(t, "Minimum price is 10,000 coins", err.Error())
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID(alice))
	assert.True(t, IsValidUUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")) // v1
	for _, s := range []string{
		"11111111111111111111111111111111",
		"not-a-uuid",
		"00000000-0000-0000-0000-000000000000",
		"11111111-1111-1111-1111-111111111111", // NCS variant
		"6f1c2a9e-3d44-7b8e-9b63-0c6a5a1f2e11", // version 7
		"6f1c2a9e-3d44-0b8e-9b63-0c6a5a1f2e11", // version 0
		"6f1c2a9e-3d44-4b8e-cb63-0c6a5a1f2e11", // Microsoft variant
	} {
		assert.False(t, IsValidUUID(s), s)
	}
}

func TestValidateGiftRequest(t *testing.T) {
	valid := func() map[string]any {
		return map[string]any{"senderId": alice, "recipientId": bob, "amount": float64(500), "message": "hi"}
	}
	assert.NoError(t, ValidateGiftRequest(valid()))
	for _, amount := range []any{"500", " 1000 ", "750.0"} {
		m := valid()
		m["amount"] = amount
		assert.NoError(t, ValidateGiftRequest(m), amount)
	}

	cases := []struct {
		name  string
		edit  func(m map[string]any)
		field string
		msg   string
	}{
		{"bad sender", func(m map[string]any) { m["senderId"] = "x" }, "senderId", ""},
		{"bad recipient", func(m map[string]any) { delete(m, "recipientId") }, "recipientId", ""},
		{"self gift", func(m map[string]any) { m["recipientId"] = alice }, "recipientId", "You cannot send a gift to yourself"},
		{"too small", func(m map[string]any) { m["amount"] = float64(99) }, "amount", ""},
		{"too large", func(m map[string]any) { m["amount"] = float64(1_000_001) }, "amount", ""},
		{"fractional", func(m map[string]any) { m["amount"] = 150.5 }, "amount", ""},
		{"non-numeric string", func(m map[string]any) { m["amount"] = "five hundred" }, "amount", ""},
		{"fractional string", func(m map[string]any) { m["amount"] = "150.5" }, "amount", ""},
		{"small string", func(m map[string]any) { m["amount"] = "99" }, "amount", ""},
		{"NaN string", func(m map[string]any) { m["amount"] = "NaN" }, "amount", ""},
		{"boolean amount", func(m map[string]any) { m["amount"] = true }, "amount", ""},
		{"long message", func(m map[string]any) { m["message"] = strings.Repeat("x", 501) }, "message", ""},
		{"non-text message", func(m map[string]any) { m["message"] = 5.0 }, "message", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := valid()
			tc.edit(m)
			err := ValidateGiftRequest(m)
			assert.Equal(t, tc.field, fieldOf(t, err))
			if tc.msg != "" {
				assert.Equal(t, tc.msg, err.Error())
			}
		})
	}
}

func TestSanitizeGiftRequest(t *testing.T) {
	req := SanitizeGiftRequest(map[string]any{
		"senderId":    "  " + alice + " ",
		"recipientId": bob,
		"amount":      "250.9",
		"message":     "  " + strings.Repeat("é", 600),
	})
	assert.Equal(t, alice, req.SenderID)
	assert.Equal(t, int64(250), req.Amount)
	require.NotNil(t, req.Message)
	assert.Len(t, []rune(*req.Message), 500)
	assert.Equal(t, "Someone", req.SenderName)
	assert.Equal(t, "Talent", req.RecipientName)

	empty := SanitizeGiftRequest(map[string]any{"amount": 300.7, "message": "   "})
	assert.Equal(t, int64(300), empty.Amount)
	assert.Nil(t, empty.Message)
}

func TestValidateTextLen(t *testing.T) {
	assert.NoError(t, ValidateTextLen("bio", strings.Repeat("é", 1000), 1000))
	err := ValidateTextLen("bio", strings.Repeat("é", 1001), 1000)
	assert.Equal(t, "bio", fieldOf(t, err))
	assert.Equal(t, "Must be 1000 characters or less", err.Error())
}

func TestParseSchedule(t *testing.T) {
	at, err := ParseSchedule("2026-10-20", "14:30")
	require.NoError(t, err)
	assert.Equal(t, 13, at.UTC().Hour())
	assert.Equal(t, 30, at.UTC().Minute())

	_, err = ParseSchedule("20/10/2026", "14:30")
	assert.Equal(t, "date", fieldOf(t, err))
}

func TestValidateBookingTime(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, bookingZone)

	err := ValidateBookingTime(now.AddDate(0, 0, -1), now)
	assert.Equal(t, "Please select a future date", err.Error())

	err = ValidateBookingTime(now.Add(30*time.Minute), now)
	assert.Equal(t, "time", fieldOf(t, err))
	assert.Error(t, ValidateBookingTime(now.Add(time.Hour), now))

	assert.NoError(t, ValidateBookingTime(now.Add(time.Hour+time.Minute), now))
	assert.NoError(t, ValidateBookingTime(now.AddDate(0, 0, 3), now))
}

func TestFormatCoins(t *testing.T) {
	assert.Equal(t, "100", formatCoins(100))
	assert.Equal(t, "10,000", formatCoins(10000))
	assert.Equal(t, "1,234,567", formatCoins(1234567))
	assert.Equal(t, "-1,000", formatCoins(-1000))
	assert.Equal(t, "abcdefgh", shortID("abcdefgh-1234"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "evil_name_.png", sanitizeFilename("../evil name?.png"))
	assert.Equal(t, "photo.jpg", sanitizeFilename(`C:\Users\me\photo.jpg`))
	assert.Equal(t, "upload", sanitizeFilename("..."))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", " b ", "a", ""}))
}
