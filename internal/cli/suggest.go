package cli

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance is the largest edit distance still offered as a hint.
const maxSuggestDistance = 3

// suggest returns the candidate closest to input, if any is close enough.
func suggest(input string, candidates []string) (string, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	best, bestDist := "", maxSuggestDistance+1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(input, strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}

func unknownError(kind, input string, candidates []string) error {
	if hint, ok := suggest(input, candidates); ok {
		return fmt.Errorf("unknown %s %q (did you mean %q?)", kind, input, hint)
	}
	return fmt.Errorf("unknown %s %q (valid: %s)", kind, input, strings.Join(candidates, ", "))
}
