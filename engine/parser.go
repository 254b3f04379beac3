package engine

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/BaSui01/reagent/types"
)

// Action lines look like:
//
//	Action: vector_search {"query": "quarterly revenue", "limit": 5}
//
// The argument object is optional and must be a single JSON object on the
// same line.
var actionLine = regexp.MustCompile(`(?im)^\s*action:\s*([A-Za-z0-9_.-]+)\s*(\{.*\})?\s*$`)

// ParseAction extracts at most one tool call from raw model text. Model
// output is untrusted: malformed syntax or broken JSON yields no action,
// never an error. The absence of an action means the text is a
// final-answer candidate.
func ParseAction(text string) (*types.ToolCall, bool) {
	m := actionLine.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	call := &types.ToolCall{
		Name:      strings.TrimSpace(m[1]),
		Arguments: map[string]any{},
	}
	if raw := strings.TrimSpace(m[2]); raw != "" {
		var args map[string]any
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			// A named action with unparseable arguments is treated as
			// no action at all rather than a half-formed call.
			return nil, false
		}
		call.Arguments = args
	}
	return call, true
}

// StripActionLines removes action syntax from model text so the remaining
// prose can serve as the thought or final-answer candidate.
func StripActionLines(text string) string {
	return strings.TrimSpace(actionLine.ReplaceAllString(text, ""))
}
