package search

import (
	"strings"
	"unicode"
)

// Normalize lower-cases s and collapses every run of characters that are
// not letters or digits into a single space, trimming both ends. Queries
// and candidate fields go through the same function so that matching is
// symmetric.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	gap := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if gap && b.Len() > 0 {
				b.WriteByte(' ')
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}
	return b.String()
}

// matchesAny reports whether any field contains the normalized query.
func matchesAny(normalizedQuery string, fields ...string) bool {
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(Normalize(f), normalizedQuery) {
			return true
		}
	}
	return false
}
