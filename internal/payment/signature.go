package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrNotConfigured    = errors.New("provider not configured")
)

// Sign returns the hex HMAC-SHA512 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a hex HMAC-SHA512 signature over the raw body.
func VerifySignature(secret string, body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if secret == "" {
		return ErrNotConfigured
	}
	expected := Sign(secret, body)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrInvalidSignature
	}
	return nil
}

// VerifyToken checks a shared-secret token sent with an unsigned postback.
// A missing token is treated as a bad one.
func VerifyToken(secret, token string) error {
	if secret == "" {
		return ErrNotConfigured
	}
	if token == "" || !hmac.Equal([]byte(secret), []byte(token)) {
		return ErrInvalidSignature
	}
	return nil
}

// VerifyNowPaymentsSignature accepts a signature computed over the raw body
// or over the body re-encoded with sorted keys, which is what NOWPayments signs.
func VerifyNowPaymentsSignature(secret string, body []byte, signature string) error {
	err := VerifySignature(secret, body, signature)
	if !errors.Is(err, ErrInvalidSignature) {
		return err
	}
	sorted, serr := sortedJSON(body)
	if serr != nil {
		return err
	}
	return VerifySignature(secret, sorted, signature)
}

// sortedJSON re-encodes body with object keys sorted at every level.
// Numbers keep their original text.
func sortedJSON(body []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
