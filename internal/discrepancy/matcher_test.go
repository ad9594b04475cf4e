package discrepancy

import (
	"strings"
	"testing"
)

func TestSlugMatcherKey(t *testing.T) {
	m := NewSlugMatcher()

	cases := []struct {
		question string
		want     string
	}{
		{"Will Candidate Smith win the election?", "candidate-election-smith-will"},
		{"Candidate Smith will win the election", "candidate-election-smith-will"},
		{"BTC > $100k by 2026?", "100k-2026"},
		{"", ""},
		{"a an to it", ""}, // nothing survives the word-length cutoff
	}
	for _, tc := range cases {
		if got := m.Key(tc.question); got != tc.want {
			t.Fatalf("Key(%q) = %q, want %q", tc.question, got, tc.want)
		}
	}
}

func TestSlugMatcherMatchIsWordOrderInsensitive(t *testing.T) {
	m := NewSlugMatcher()

	if !m.Match("Will Candidate Smith win the election?", "The election: will Candidate Smith win?") {
		t.Fatalf("word order must not matter")
	}
	if m.Match("Will Candidate Smith win the election?", "Will Candidate Jones win the election?") {
		t.Fatalf("different keywords must not match")
	}
}

func TestSlugMatcherTruncatesLongKeys(t *testing.T) {
	m := NewSlugMatcher()

	long := strings.Repeat("verylongword ", 30)
	if got := m.Key(long); len(got) > m.MaxKeyLength {
		t.Fatalf("key length %d exceeds cap %d", len(got), m.MaxKeyLength)
	}
}

func TestSlugMatcherConfigurableCutoff(t *testing.T) {
	m := &SlugMatcher{MinWordLength: 6, MaxKeyLength: 100}

	if got := m.Key("Will Candidate Smith win the election?"); got != "candidate-election" {
		t.Fatalf("Key with cutoff 6 = %q, want %q", got, "candidate-election")
	}
}
