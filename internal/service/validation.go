package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"nego/internal/domain"

	"github.com/google/uuid"
)

var (
	usernameRe = regexp.MustCompile(`^[a-z0-9_-]+$`)
	phoneRes   = []*regexp.Regexp{
		regexp.MustCompile(`^0[789]\d{9}$`),
		regexp.MustCompile(`^\+234[789]\d{9}$`),
		regexp.MustCompile(`^234[789]\d{9}$`),
	}
)

// ValidateUsername enforces 3-20 chars of [a-z0-9_-].
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < 3 {
		return invalid("username", "Username must be at least 3 characters")
	}
	if n > 20 {
		return invalid("username", "Username must be at most 20 characters")
	}
	if !usernameRe.MatchString(username) {
		return invalid("username", "Username can only contain lowercase letters, numbers, underscores and hyphens")
	}
	return nil
}

// ValidateFullName requires 2-100 chars and at least two words.
func ValidateFullName(name string) error {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 100 {
		return invalid("full_name", "Full name must be between 2 and 100 characters")
	}
	if len(strings.Fields(name)) < 2 {
		return invalid("full_name", "Please enter your full name (first and last name)")
	}
	return nil
}

// NormalizePhone strips spaces and dashes.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
}

// ValidatePhone accepts Nigerian mobile numbers in local or international form.
func ValidatePhone(phone string) error {
	p := NormalizePhone(phone)
	for _, re := range phoneRes {
		if re.MatchString(p) {
			return nil
		}
	}
	return invalid("phone", "Please enter a valid Nigerian phone number")
}

func ValidateServicePrice(price, min int64) error {
	if price < min {
		return invalidf("price", "Minimum price is %s coins", formatCoins(min))
	}
	return nil
}

// ValidateTextLen rejects text longer than max characters.
func ValidateTextLen(field, s string, max int) error {
	if utf8.RuneCountInString(s) > max {
		return invalidf(field, "Must be %d characters or less", max)
	}
	return nil
}

// IsValidUUID accepts canonical 36-char RFC 4122 ids of versions 1 to 5.
func IsValidUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return false
	}
	return u.Variant() == uuid.RFC4122 && u.Version() >= 1 && u.Version() <= 5
}

// ValidateGiftRequest checks a decoded JSON body.
func ValidateGiftRequest(raw map[string]any) error {
	if raw == nil {
		return invalid("", "Invalid request")
	}

	sender, _ := raw["senderId"].(string)
	if !IsValidUUID(strings.TrimSpace(sender)) {
		return invalid("senderId", "Invalid sender ID")
	}
	recipient, _ := raw["recipientId"].(string)
	if !IsValidUUID(strings.TrimSpace(recipient)) {
		return invalid("recipientId", "Invalid recipient ID")
	}
	if strings.EqualFold(strings.TrimSpace(sender), strings.TrimSpace(recipient)) {
		return invalid("recipientId", "You cannot send a gift to yourself")
	}

	amount, ok := giftAmount(raw["amount"])
	if !ok || amount != math.Trunc(amount) || amount < domain.MinGiftAmount || amount > domain.MaxGiftAmount {
		return invalidf("amount", "Amount must be a whole number between %s and %s coins",
			formatCoins(domain.MinGiftAmount), formatCoins(domain.MaxGiftAmount))
	}

	switch msg := raw["message"].(type) {
	case nil:
	case string:
		if utf8.RuneCountInString(msg) > domain.MaxGiftMessageLen {
			return invalidf("message", "Message must be %d characters or less", domain.MaxGiftMessageLen)
		}
	default:
		return invalid("message", "Message must be text")
	}
	return nil
}

// SanitizeGiftRequest normalizes a body that may not have been validated.
func SanitizeGiftRequest(raw map[string]any) domain.GiftRequest {
	req := domain.GiftRequest{
		SenderID:      trimString(raw["senderId"]),
		RecipientID:   trimString(raw["recipientId"]),
		Amount:        floorAmount(raw["amount"]),
		SenderName:    "Someone",
		RecipientName: "Talent",
	}
	if msg := trimString(raw["message"]); msg != "" {
		if utf8.RuneCountInString(msg) > domain.MaxGiftMessageLen {
			msg = string([]rune(msg)[:domain.MaxGiftMessageLen])
		}
		req.Message = &msg
	}
	if s := trimString(raw["senderName"]); s != "" {
		req.SenderName = s
	}
	if s := trimString(raw["recipientName"]); s != "" {
		req.RecipientName = s
	}
	return req
}

// ValidateBookingTime requires a date not in the past and a time at least
// an hour from now.
func ValidateBookingTime(scheduled, now time.Time) error {
	y1, m1, d1 := scheduled.Date()
	y2, m2, d2 := now.Date()
	if time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC).Before(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)) {
		return invalid("date", "Please select a future date")
	}
	if !scheduled.After(now.Add(time.Hour)) {
		return invalid("time", "Please select a time at least 1 hour from now")
	}
	return nil
}

// giftAmount reads a JSON number or a numeric string such as "500".
func giftAmount(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func trimString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func floorAmount(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(math.Floor(n))
	case int64:
		return n
	case int:
		return int64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return int64(math.Floor(f))
	}
	return 0
}

// formatCoins renders 10000 as "10,000".
func formatCoins(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
