package resolver

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nameSuffixes are trailing tokens that carry no identity: "Ramen House
// Restaurant" and "Ramen House" are the same establishment.
var nameSuffixes = map[string]bool{
	"restaurant": true,
	"resto":      true,
	"inc":        true,
	"ltd":        true,
	"co":         true,
	"eatery":     true,
}

// diacriticsRemover strips combining marks after NFD decomposition, so
// "Café Crème" normalizes the same as "Cafe Creme".
var diacriticsRemover = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName canonicalizes an extracted restaurant name for matching:
// lower-case, diacritics stripped, punctuation removed, whitespace
// collapsed, leading article and trailing no-identity suffixes dropped.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	if out, _, err := transform.String(diacriticsRemover, s); err == nil {
		s = out
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '/':
			b.WriteByte(' ')
		}
		// All other punctuation is dropped entirely ("Joe's" → "joes").
	}

	tokens := strings.Fields(b.String())
	if len(tokens) > 1 && tokens[0] == "the" {
		tokens = tokens[1:]
	}
	for len(tokens) > 1 && nameSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, " ")
}

// MoreComplete reports whether candidate is a more complete rendering of the
// same name than current: longer, and proper-cased rather than all-lower or
// all-upper. Used by the merge policy to upgrade display names.
func MoreComplete(candidate, current string) bool {
	candidate = strings.TrimSpace(candidate)
	current = strings.TrimSpace(current)
	if len(candidate) <= len(current) {
		return false
	}
	return properCased(candidate) || !properCased(current)
}

func properCased(s string) bool {
	hasUpper, hasLower := false, false
	for _, r := range s {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	return hasUpper && hasLower
}
