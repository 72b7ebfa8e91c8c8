package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixSuggestions_ClosestMatchFirst(t *testing.T) {
	items := []string{"index", "insert", "indexer", "banana"}
	out := PrefixSuggestions("idx", items, func(s string) string { return s }, 3)
	assert.NotEmpty(t, out)
	assert.Equal(t, "index", out[0])
}

func TestPrefixSuggestions_RespectsLimit(t *testing.T) {
	items := []string{"alpha", "alphb", "alphc", "alphd"}
	out := PrefixSuggestions("alph", items, func(s string) string { return s }, 2)
	assert.Len(t, out, 2)
}

func TestPrefixSuggestions_NoCandidatesBeyondThreshold(t *testing.T) {
	items := []string{"zzzzzzzzzz"}
	out := PrefixSuggestions("a", items, func(s string) string { return s }, 5)
	assert.Empty(t, out)
}
