// Package textnorm folds display text into comparison keys.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the comparison key for s: diacritics stripped, Unicode
// case-folded, trimmed, and internal whitespace collapsed to single spaces.
// Transformers carry state, so a fresh chain is built per call.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)
	return strings.Join(strings.Fields(folded), " ")
}

// Label returns a display label for a category or tag: whitespace collapsed
// and title-cased ("city life" → "City Life").
func Label(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.Und).String(s)
}

// Contains reports whether the folded form of s contains the already-folded
// key. An empty key matches everything.
func Contains(s, key string) bool {
	if key == "" {
		return true
	}
	return strings.Contains(Fold(s), key)
}
