package types

import (
	"encoding/json"
	"time"
)

// ToolCall is one tool invocation request parsed from model output.
// Produced once by the action parser, consumed once by the executor.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// OutputMetadata carries execution details stamped onto every PluginOutput.
type OutputMetadata struct {
	ExecutionTime time.Duration `json:"execution_time"`
	PluginVersion string        `json:"plugin_version,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	Attempts      int           `json:"attempts,omitempty"`
	RateLimit     int           `json:"rate_limit,omitempty"`
	CacheHit      bool          `json:"cache_hit,omitempty"`
}

// PluginOutput is the result of one protected tool execution.
// Ownership transfers to the caller on return. Ordinary failures are
// expressed as Success=false with a human-readable Error, never as a
// Go error from the executor.
type PluginOutput struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
	Metadata OutputMetadata  `json:"metadata"`
}

// IsError returns true if the execution failed.
func (o *PluginOutput) IsError() bool {
	return !o.Success
}
