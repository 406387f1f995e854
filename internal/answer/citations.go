package answer

import (
	"regexp"
	"strconv"

	"github.com/finch0/finch/internal/evidence"
)

// citationMarker matches bracketed citation numbers like [1] in generated
// text.
var citationMarker = regexp.MustCompile(`\[(\d+)\]`)

// validateCitations orders citations by first mention in the response text.
// Mentioned citations come first in mention order (deduplicated); citations
// the model never referenced follow in their original creation order.
// Out-of-range markers are ignored. Indices are never renumbered, so the
// result is always a permutation of the input.
func validateCitations(response string, citations []evidence.Citation) []evidence.Citation {
	validated := make([]evidence.Citation, 0, len(citations))
	seen := make(map[int]bool, len(citations))

	for _, match := range citationMarker.FindAllStringSubmatch(response, -1) {
		num, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		idx := num - 1
		if idx < 0 || idx >= len(citations) || seen[idx] {
			continue
		}
		seen[idx] = true
		validated = append(validated, citations[idx])
	}

	for i, c := range citations {
		if !seen[i] {
			validated = append(validated, c)
		}
	}
	return validated
}
