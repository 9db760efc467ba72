// Package question normalises user questions for exact-match comparison and
// content-addressed cache keys.
package question

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const docKeyPrefix = "doc:"

// Normalize trims, case-folds and collapses inner whitespace.
func Normalize(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// Equal reports whether two questions are the same after normalisation.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Key is the document cache key for q.
func Key(q string) string {
	sum := sha256.Sum256([]byte(Normalize(q)))
	return docKeyPrefix + hex.EncodeToString(sum[:])
}

// Truncate cuts s to at most n runes, appending an ellipsis when shortened.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
