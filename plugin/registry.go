package plugin

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Sentinel errors for the plugin registry.
var (
	ErrAlreadyRegistered = errors.New("plugin already registered")
	ErrNotFound          = errors.New("plugin not found")
)

// Registry resolves plugins by name.
type Registry interface {
	// Register adds a plugin. Call during startup only.
	Register(p Plugin) error
	// Get returns a plugin by name.
	Get(name string) (Plugin, bool)
	// List returns the metadata of all plugins sorted by name.
	List() []Metadata
}

// InMemoryRegistry is a thread-safe in-memory implementation of Registry.
type InMemoryRegistry struct {
	plugins map[string]Plugin
	mu      sync.RWMutex
	logger  *zap.Logger
}

// Compile-time interface compliance check.
var _ Registry = (*InMemoryRegistry)(nil)

// NewInMemoryRegistry creates a new InMemoryRegistry.
func NewInMemoryRegistry(logger *zap.Logger) *InMemoryRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryRegistry{
		plugins: make(map[string]Plugin),
		logger:  logger.With(zap.String("component", "plugin_registry")),
	}
}

// Register adds a plugin to the registry.
func (r *InMemoryRegistry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("plugin must not be nil")
	}
	meta := p.Metadata()
	if meta.Name == "" {
		return fmt.Errorf("plugin name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[meta.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, meta.Name)
	}
	r.plugins[meta.Name] = p

	r.logger.Info("plugin registered",
		zap.String("name", meta.Name),
		zap.String("category", meta.Category),
		zap.String("version", meta.Version))
	return nil
}

// Get returns a plugin by name.
func (r *InMemoryRegistry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// List returns all plugin metadata sorted by name.
func (r *InMemoryRegistry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Metadata, 0, len(r.plugins))
	for _, p := range r.plugins {
		result = append(result, p.Metadata())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}
