package types

// Status identifies the phase of one reasoning loop invocation.
type Status string

const (
	StatusThinking          Status = "thinking"
	StatusActing            Status = "acting"
	StatusObserving         Status = "observing"
	StatusFinalAnswer       Status = "final_answer"
	StatusMaxStepsExhausted Status = "max_steps_exhausted"
	StatusFatalError        Status = "fatal_error"
)

// Terminal reports whether the status ends the loop.
func (s Status) Terminal() bool {
	switch s {
	case StatusFinalAnswer, StatusMaxStepsExhausted, StatusFatalError:
		return true
	}
	return false
}

// Source is one citation record gathered while answering a query.
type Source struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AgentState is the evolving evidence state of a single loop invocation.
// It is exclusively owned by that invocation: only the reasoning engine
// mutates it, and it is discarded when the invocation returns.
type AgentState struct {
	Query           string   `json:"query"`
	MaxSteps        int      `json:"max_steps"`
	StepsTaken      int      `json:"steps_taken"`
	ContextGathered []string `json:"context_gathered,omitempty"`
	Sources         []Source `json:"sources,omitempty"`
	EvidenceScore   float64  `json:"evidence_score"`
	FinalAnswer     string   `json:"final_answer,omitempty"`
	Status          Status   `json:"status"`
}

// NewAgentState creates the initial state for one loop invocation.
func NewAgentState(query string, maxSteps int) *AgentState {
	if maxSteps <= 0 {
		maxSteps = 5
	}
	return &AgentState{
		Query:    query,
		MaxSteps: maxSteps,
		Status:   StatusThinking,
	}
}

// TokenUsage accumulates token accounting across gateway calls.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add folds another usage sample into the accumulator.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
