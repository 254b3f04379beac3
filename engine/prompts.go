package engine

import (
	"fmt"
	"strings"

	"github.com/BaSui01/reagent/types"
)

// Prompts holds the engine's prompt templates. Callers may substitute
// their own; DefaultPrompts covers the common case.
type Prompts struct {
	// System frames the loop protocol for the model.
	System string
	// Caveat asks for a hedged final answer when evidence is weak. It is
	// formatted with the query and the accumulated context.
	Caveat string
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() Prompts {
	return Prompts{
		System: `You are a research assistant that answers questions by calling tools.

To call a tool, reply with a short reasoning paragraph followed by exactly one line of the form:
Action: <tool_name> {"arg": "value"}

When you have enough information, reply with the final answer as plain text and no Action line. Cite the evidence you used.`,
		Caveat: `The evidence gathered for the question below is limited. Provide the best possible answer, state clearly which parts are uncertain, and do not invent facts.

Question: %s

Evidence:
%s`,
	}
}

// lowConfidenceAnswer is the templated fallback used when even the caveat
// call fails transiently.
const lowConfidenceAnswer = "Based on the limited information available, I cannot give a confident answer to this question. The evidence gathered was insufficient or inconclusive."

// accumulatedPrompt renders the query plus every observation so far into
// the per-step prompt.
func accumulatedPrompt(state *types.AgentState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", state.Query)
	if len(state.ContextGathered) > 0 {
		b.WriteString("\nObservations so far:\n")
		for i, fragment := range state.ContextGathered {
			fmt.Fprintf(&b, "%d. %s\n", i+1, fragment)
		}
	}
	fmt.Fprintf(&b, "\nStep %d of %d.", state.StepsTaken+1, state.MaxSteps)
	return b.String()
}

// caveatPrompt renders the weak-evidence final-answer request.
func caveatPrompt(p Prompts, state *types.AgentState) string {
	evidence := "(none)"
	if len(state.ContextGathered) > 0 {
		evidence = strings.Join(state.ContextGathered, "\n")
	}
	return fmt.Sprintf(p.Caveat, state.Query, evidence)
}
