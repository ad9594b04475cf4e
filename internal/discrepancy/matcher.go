// Package discrepancy groups normalized markets across venues by matched
// question, filters by minimum spread, scores confidence, and annotates
// results with likely news drivers.
package discrepancy

import (
	"sort"
	"strings"
)

// Matcher decides whether two market questions refer to the same underlying
// event. Grouping goes through Key so detection stays linear in the number of
// markets: equal keys imply Match. A stronger (e.g. semantic) matcher can
// replace the default without touching the grouping or confidence logic.
type Matcher interface {
	Match(a, b string) bool
	Key(question string) string
}

// SlugMatcher is the default coarse bag-of-words matcher: lowercase, strip
// non-alphanumeric characters, keep words of at least MinWordLength
// characters, sort them lexically, join with "-", cap at MaxKeyLength. It is
// word-order- and synonym-insensitive, so it is lexically brittle by
// construction.
type SlugMatcher struct {
	MinWordLength int
	MaxKeyLength  int
}

// NewSlugMatcher returns a SlugMatcher with the default word-length cutoff
// (4) and key cap (100). Both are unvalidated heuristics, kept configurable
// rather than hard-coded.
func NewSlugMatcher() *SlugMatcher {
	return &SlugMatcher{MinWordLength: 4, MaxKeyLength: 100}
}

// Match reports whether two questions canonicalize to the same key.
func (m *SlugMatcher) Match(a, b string) bool {
	return m.Key(a) == m.Key(b)
}

// Key canonicalizes a question into a sorted bag-of-words slug.
func (m *SlugMatcher) Key(question string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(question) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte(' ')
		}
	}

	words := strings.Fields(sb.String())
	kept := words[:0]
	for _, w := range words {
		if len(w) >= m.MinWordLength {
			kept = append(kept, w)
		}
	}
	sort.Strings(kept)

	key := strings.Join(kept, "-")
	if len(key) > m.MaxKeyLength {
		key = key[:m.MaxKeyLength]
	}
	return key
}
