package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	names := []string{"upper", "lower", "trim", "truncate", "escape"}

	tests := []struct {
		given    string
		expected string
	}{
		{"uper", "upper"},
		{"UPPR", "upper"},
		{"lowr", "lower"},
		{"trimm", "trim"},
		{"escpae", "escape"},
		{"truncat", "truncate"},
		{"markdown", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.given, func(t *testing.T) {
			assert.Equal(t, tt.expected, suggest(tt.given, names, DefaultSuggestionDistance))
		})
	}
}

func TestSuggest_PrefersClosest(t *testing.T) {
	assert.Equal(t, "abcd", suggest("abcx", []string{"abyy", "abcd"}, 2))
}

func TestSuggest_NoCandidates(t *testing.T) {
	assert.Empty(t, suggest("trim", nil, DefaultSuggestionDistance))
	assert.Empty(t, suggest("trim", []string{"trim"}, 0))
}
