package fingerprint

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
)

// Package fingerprint derives the stable identity of an event from its
// normalized name, address, and date range. Two listings describing the
// same real-world event must hash identically regardless of case,
// whitespace, or punctuation differences.

const unknownPeriod = "unknown"

// Compute returns the hex fingerprint for an event.
func Compute(e domain.Event) string {
	parts := []string{
		Normalize(e.Name),
		Normalize(e.Address),
		periodKey(e),
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Normalize lower-cases the input, strips punctuation and symbols, and
// collapses all whitespace runs to single spaces.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// dropped
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

func periodKey(e domain.Event) string {
	if !e.HasPeriod() {
		return unknownPeriod
	}
	key := e.StartDate.Format(domain.DateLayout)
	if !e.EndDate.IsZero() {
		key += ".." + e.EndDate.Format(domain.DateLayout)
	}
	return key
}
