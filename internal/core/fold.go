package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldName lowercases s and strips combining marks, so "Energia Elétrica"
// and "energia eletrica" compare equal.
func FoldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// NameMatches reports whether the folded name contains the folded term.
func NameMatches(name, term string) bool {
	return strings.Contains(FoldName(name), FoldName(strings.TrimSpace(term)))
}
