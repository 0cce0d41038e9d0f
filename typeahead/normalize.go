package typeahead

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const nbsp = "\u00a0"

// removeDiacritics folds "Gaël" to "Gael". Transformers hold state, so a
// fresh chain is built per call.
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// hasDiacritics reports whether s carries combining marks once decomposed
func hasDiacritics(s string) bool {
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			return true
		}
	}
	return false
}

// canonicalize lowercases query and source, and strips diacritics from the
// source when the query has none, so "gael" finds "Gaël" but "gaël" does not
// find "Gael".
func canonicalize(query, source string) (string, string) {
	query = strings.ToLower(query)
	source = strings.ToLower(source)
	if !hasDiacritics(query) {
		source = removeDiacritics(source)
	}
	return query, source
}

// QueryMatchesStringInOrder reports whether query matches the start of source
// or the start of any sep-delimited segment of it. Case-insensitive.
func QueryMatchesStringInOrder(query, source, sep string) bool {
	query, source = canonicalize(query, source)
	return strings.HasPrefix(source, query) || strings.Contains(source, sep+query)
}
