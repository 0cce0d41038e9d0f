package typeahead

import "strings"

// tier orders how well a name matches a query. Lower is better.
type tier int

const (
	tierExact tier = iota
	tierPrefixCaseSensitive
	tierPrefix
	tierWordBoundary
	tierNone
)

// classify places name in a tier for query. Words are split on sep.
func classify(query, name, sep string) tier {
	q, n := canonicalize(query, name)
	switch {
	case q == n:
		return tierExact
	case strings.HasPrefix(name, query):
		return tierPrefixCaseSensitive
	case strings.HasPrefix(n, q):
		return tierPrefix
	case strings.Contains(n, sep+q):
		return tierWordBoundary
	default:
		return tierNone
	}
}

// triage splits items into matches, ordered exact, case-sensitive prefix,
// prefix, word boundary, and the rest. Input order is kept within a tier.
func triage[T any](query string, items []T, name func(T) string, sep string) (matches, rest []T) {
	var buckets [tierNone + 1][]T
	for _, item := range items {
		t := classify(query, name(item), sep)
		buckets[t] = append(buckets[t], item)
	}
	for t := tierExact; t < tierNone; t++ {
		matches = append(matches, buckets[t]...)
	}
	return matches, buckets[tierNone]
}
