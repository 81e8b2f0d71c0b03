package filter

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// DefaultSuggestionDistance is the largest edit distance still offered as a
// "did you mean" suggestion
const DefaultSuggestionDistance = 2

// suggest returns the closest candidate within maxDistance of given, or ""
func suggest(given string, candidates []string, maxDistance int) string {
	if maxDistance <= 0 || len(candidates) == 0 {
		return ""
	}

	given = strings.ToLower(given)
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	best := ""
	bestDistance := maxDistance + 1
	for _, candidate := range sorted {
		if candidate == given {
			continue
		}
		dist := levenshtein.Distance(given, candidate, nil)
		if dist < bestDistance {
			best = candidate
			bestDistance = dist
		}
	}

	return best
}
