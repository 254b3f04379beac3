// Package gateway defines the narrow interface through which the reasoning
// engine exchanges one prompt/history for one model reply. Concrete
// providers live outside this module; the engine only depends on the
// contract and on the transient-error classification in types.
package gateway

import (
	"context"
	"encoding/json"

	"github.com/BaSui01/reagent/types"
)

// ModelTier selects a capability/cost band without naming a model.
type ModelTier string

const (
	TierFast     ModelTier = "fast"
	TierBalanced ModelTier = "balanced"
	TierDeep     ModelTier = "deep"
)

// Role identifies the author of a history message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request carries everything for one exchange: the system prompt, the
// accumulated prompt for this step, prior history, and the model tier.
type Request struct {
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Prompt       string    `json:"prompt"`
	History      []Message `json:"history,omitempty"`
	Tier         ModelTier `json:"tier,omitempty"`
}

// Reply is the model's side of one exchange. Usage is nil when the
// provider does not report token accounting.
type Reply struct {
	Text  string            `json:"text"`
	Model string            `json:"model"`
	Raw   json.RawMessage   `json:"raw,omitempty"`
	Usage *types.TokenUsage `json:"usage,omitempty"`
}

// Gateway is the LLM collaborator consumed by the reasoning engine.
// One SendMessage call is one exchange. Implementations must surface
// rate-limited and temporarily-unavailable conditions as *types.Error
// with ErrLLMRateLimited / ErrLLMUnavailable so the engine can apply its
// caveat fallback; any other error is fatal to the current step.
type Gateway interface {
	SendMessage(ctx context.Context, req *Request) (*Reply, error)
}

// RateLimitedError builds the distinguished throttling error.
func RateLimitedError(provider string, cause error) *types.Error {
	return types.NewError(types.ErrLLMRateLimited, "provider rate limited").
		WithProvider(provider).
		WithRetryable(true).
		WithCause(cause)
}

// UnavailableError builds the distinguished temporary-outage error.
func UnavailableError(provider string, cause error) *types.Error {
	return types.NewError(types.ErrLLMUnavailable, "provider temporarily unavailable").
		WithProvider(provider).
		WithRetryable(true).
		WithCause(cause)
}

// FatalError wraps any non-transient provider failure.
func FatalError(provider string, cause error) *types.Error {
	return types.NewError(types.ErrLLMFatal, "provider request failed").
		WithProvider(provider).
		WithCause(cause)
}
