// Package textutil provides accent-insensitive text helpers used when
// matching user-facing catalog fields such as categories and collections.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases the input and strips combining diacritical marks, so that
// "Categoría" and "categoria" compare equal.
func Fold(value string) string {
	folded, _, err := transform.String(foldTransformer, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// EqualFold reports whether two values match after accent folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// ContainsFold reports whether haystack contains needle after accent folding.
// An empty needle always matches.
func ContainsFold(haystack, needle string) bool {
	folded := Fold(needle)
	if folded == "" {
		return true
	}
	return strings.Contains(Fold(haystack), folded)
}
