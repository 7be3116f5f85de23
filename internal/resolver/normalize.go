// Package resolver consolidates duplicate entity mentions into
// canonical identities. It normalizes names, scores candidate pairs
// with a set of similarity strategies, merges or queues pairs against
// fixed thresholds, and maintains a reversible, audited source →
// canonical mapping.
package resolver

import (
	"regexp"
	"strings"
)

var (
	titlePattern   = regexp.MustCompile(`(?i)^(?:mr\.?|mrs\.?|ms\.?|dr\.?|prof\.?|rev\.?|hon\.?|sir|dame|lord|lady)\s+`)
	suffixPattern  = regexp.MustCompile(`(?i),?\s+(?:jr\.?|sr\.?|ii|iii|iv|esq\.?|ph\.?d\.?|md|m\.d\.)$`)
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// NormalizeName maps a display name to a comparison-ready form:
// it strips a leading honorific and a trailing suffix, reorders
// "Last, First" to "First Last", lowercases, removes everything that
// is not a letter, digit, or whitespace, and collapses whitespace.
// Deterministic and idempotent; an empty input yields an empty output.
func NormalizeName(name string) string {
	s := strings.TrimSpace(name)
	s = titlePattern.ReplaceAllString(s, "")
	s = suffixPattern.ReplaceAllString(s, "")

	// "Last, First" → "First Last", only when something follows the comma.
	if i := strings.Index(s, ","); i >= 0 {
		last := strings.TrimSpace(s[:i])
		first := strings.TrimSpace(s[i+1:])
		if first != "" {
			s = first + " " + last
		}
	}

	s = strings.ToLower(s)
	s = nonWordPattern.ReplaceAllString(s, "")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
