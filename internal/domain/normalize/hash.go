// Package normalize turns raw contact rows into hashed identity records.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize lower-cases s. With removeAllWhitespace every whitespace rune is
// dropped; otherwise only leading and trailing whitespace is trimmed.
func Normalize(s string, removeAllWhitespace bool) string {
	if removeAllWhitespace {
		s = strings.Join(strings.Fields(s), "")
	} else {
		s = strings.TrimSpace(s)
	}
	return strings.ToLower(s)
}

// Hash returns the hex encoded SHA-256 of s.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// NormalizeAndHash normalizes s and hashes the result.
func NormalizeAndHash(s string, removeAllWhitespace bool) string {
	return Hash(Normalize(s, removeAllWhitespace))
}
