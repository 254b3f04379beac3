package engine

import (
	"encoding/json"

	"github.com/BaSui01/reagent/types"
)

// sourceEnvelope pulls just the sources key out of an arbitrary tool
// payload without committing to the rest of its shape.
type sourceEnvelope struct {
	Sources json.RawMessage `json:"sources"`
}

// MergeCitations appends well-formed citation records from a tool payload
// into state.Sources and returns how many were added. Tool payloads are
// untrusted: a missing sources key, null, a scalar, or a malformed list
// all leave the state unchanged. Parse trouble here never surfaces to the
// loop.
func MergeCitations(state *types.AgentState, payload json.RawMessage) int {
	if len(payload) == 0 {
		return 0
	}

	var env sourceEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return 0
	}
	if len(env.Sources) == 0 || string(env.Sources) == "null" {
		return 0
	}

	var sources []types.Source
	if err := json.Unmarshal(env.Sources, &sources); err != nil {
		return 0
	}

	state.Sources = append(state.Sources, sources...)
	return len(sources)
}
