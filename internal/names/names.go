// Package names normalises human names so that spelling variants of the
// same patient compare equal.
package names

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// suffixPattern matches one trailing generational suffix preceded by whitespace.
var suffixPattern = regexp.MustCompile(`(?i)\s+(jr\.?|sr\.?|iii|ii|iv|v)$`)

// Normalise trims, lower-cases and strips diacritics from s.
// Normalise("García") == Normalise("garcia").
func Normalise(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// StripNameSuffixes removes a trailing generational suffix such as "Jr."
// or "III" and trims the result.
func StripNameSuffixes(s string) string {
	return strings.TrimSpace(suffixPattern.ReplaceAllString(strings.TrimSpace(s), ""))
}

// Tokens splits a full name on whitespace.
func Tokens(full string) []string {
	return strings.Fields(full)
}

// FirstLast returns the first and last whitespace-delimited tokens of a name.
// A single-token name yields an empty last.
func FirstLast(full string) (first, last string) {
	parts := Tokens(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[len(parts)-1]
	}
}
