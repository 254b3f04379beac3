package engine

import (
	"encoding/json"
	"testing"

	"github.com/BaSui01/reagent/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeCitationsWellFormed(t *testing.T) {
	state := types.NewAgentState("q", 5)
	payload := json.RawMessage(`{
		"results": ["a", "b"],
		"sources": [
			{"id": "doc-1", "score": 0.92},
			{"id": "doc-2", "score": 0.81, "metadata": {"page": 3}}
		]
	}`)

	added := MergeCitations(state, payload)
	assert.Equal(t, 2, added)
	require.Len(t, state.Sources, 2)
	assert.Equal(t, "doc-1", state.Sources[0].ID)
	assert.InDelta(t, 0.81, state.Sources[1].Score, 1e-9)
}

func TestMergeCitationsDefensive(t *testing.T) {
	payloads := map[string]json.RawMessage{
		"missing key":    json.RawMessage(`{"results": [1, 2]}`),
		"null sources":   json.RawMessage(`{"sources": null}`),
		"scalar sources": json.RawMessage(`{"sources": "x"}`),
		"number sources": json.RawMessage(`{"sources": 7}`),
		"malformed list": json.RawMessage(`{"sources": ["not-an-object"]}`),
		"not json":       json.RawMessage(`plain text output`),
		"empty payload":  nil,
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			state := types.NewAgentState("q", 5)
			state.Sources = []types.Source{{ID: "existing"}}

			added := MergeCitations(state, payload)
			assert.Equal(t, 0, added)
			require.Len(t, state.Sources, 1)
			assert.Equal(t, "existing", state.Sources[0].ID)
		})
	}
}
