package payment

import (
	"crypto/rand"
	"fmt"
	"time"
)

const refAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewReference returns {provider}_{unixms}_{7 random chars}.
func NewReference(provider string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%s", provider, now.UnixMilli(), RandomString(7))
}

// RandomString returns n characters from [a-z0-9].
func RandomString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = refAlphabet[int(b[i])%len(refAlphabet)]
	}
	return string(b)
}
