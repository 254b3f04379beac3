// Package plugin defines the capability interface implemented by external
// tools (vector search, knowledge graph, directory lookup, ...) and the
// registry the executor resolves them through. Plugins register at startup;
// the registry is read-only during execution.
package plugin

import (
	"context"
	"encoding/json"
	"time"
)

// Metadata describes a plugin's identity and protection policy.
type Metadata struct {
	Name          string        `json:"name"`
	Category      string        `json:"category,omitempty"`
	RateLimit     *int          `json:"rate_limit,omitempty"` // max calls per user per window; nil = unlimited
	RequiresAuth  bool          `json:"requires_auth"`
	EstimatedTime time.Duration `json:"estimated_time,omitempty"`
	Version       string        `json:"version,omitempty"`
}

// Plugin is the capability contract every tool implements. The executor is
// the only caller of Execute; it applies circuit breaking, rate limiting,
// caching and retries uniformly regardless of plugin identity.
type Plugin interface {
	// Metadata returns the plugin's descriptor.
	Metadata() Metadata
	// InputSchema returns the JSON Schema of the expected arguments.
	InputSchema() json.RawMessage
	// OutputSchema returns the JSON Schema of the produced payload.
	OutputSchema() json.RawMessage
	// Validate checks the arguments before execution.
	Validate(ctx context.Context, args map[string]any) error
	// Execute runs the tool and returns its JSON payload.
	Execute(ctx context.Context, args map[string]any) (json.RawMessage, error)
}

// Loader is an optional warm-up hook. Plugins that need to prime caches or
// open connections implement it; the executor's WarmUp calls it once.
type Loader interface {
	OnLoad(ctx context.Context) error
}
