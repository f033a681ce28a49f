package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// CalculateHash returns the hex HMAC-SHA256 of body under key.
func CalculateHash(body []byte, key string) string {
	h := hmac.New(sha256.New, []byte(key))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// ValidHash compares a received hex digest against the expected one in constant time.
func ValidHash(body []byte, key, got string) bool {
	want := CalculateHash(body, key)
	return hmac.Equal([]byte(want), []byte(got))
}
