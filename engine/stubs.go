package engine

import (
	"fmt"
	"strings"

	"github.com/BaSui01/reagent/types"
)

// stubAnswers lists non-answers models are known to emit in place of a
// real conclusion. Matched after trimming, case-insensitively.
var stubAnswers = []string{
	"no further action needed",
	"no action needed",
	"observation: none",
	"none",
	"n/a",
	"i don't know",
	"no answer",
}

// isStub reports whether the candidate answer is a known placeholder.
func isStub(answer string, denylist []string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(answer))
	trimmed = strings.TrimSuffix(trimmed, ".")
	if trimmed == "" {
		return true
	}
	for _, stub := range denylist {
		if trimmed == strings.ToLower(strings.TrimSpace(stub)) {
			return true
		}
	}
	return false
}

// synthesizeFromContext builds a real answer out of whatever evidence the
// loop gathered, for use when the model's own answer is a placeholder or
// the loop aborted before producing one.
func synthesizeFromContext(state *types.AgentState) string {
	if len(state.ContextGathered) == 0 {
		return "I could not find enough information to answer this question."
	}

	var b strings.Builder
	b.WriteString("Based on the information gathered:\n")
	for i, fragment := range state.ContextGathered {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(fragment))
	}
	return strings.TrimSpace(b.String())
}
