package executor

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// breakerRecord tracks consecutive failures for one plugin. Created on the
// first failure, deleted on success or once the cooldown has elapsed.
type breakerRecord struct {
	failureCount    int
	lastFailureTime time.Time
}

// breakerTable is the shared circuit-breaker state, keyed by plugin name —
// never by argument payload. A plugin is open iff failureCount >= threshold
// and now - lastFailureTime < cooldown.
type breakerTable struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	records   map[string]*breakerRecord
	logger    *zap.Logger
}

func newBreakerTable(threshold int, cooldown time.Duration, logger *zap.Logger) *breakerTable {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &breakerTable{
		threshold: threshold,
		cooldown:  cooldown,
		records:   make(map[string]*breakerRecord),
		logger:    logger,
	}
}

// allow reports whether the plugin may be called. When the cooldown has
// elapsed since the last failure the record is discarded and the call
// proceeds on this very check — no intervening success is required.
func (t *breakerTable) allow(name string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[name]
	if !ok {
		return true
	}
	if rec.failureCount < t.threshold {
		return true
	}
	if now.Sub(rec.lastFailureTime) >= t.cooldown {
		delete(t.records, name)
		t.logger.Info("circuit breaker closed after cooldown", zap.String("plugin", name))
		return true
	}
	return false
}

// recordFailure increments the plugin's failure count and stamps the
// last failure time.
func (t *breakerTable) recordFailure(name string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[name]
	if !ok {
		rec = &breakerRecord{}
		t.records[name] = rec
	}
	rec.failureCount++
	rec.lastFailureTime = now

	if rec.failureCount == t.threshold {
		t.logger.Warn("circuit breaker opened",
			zap.String("plugin", name),
			zap.Int("failure_count", rec.failureCount),
			zap.Duration("cooldown", t.cooldown))
	}
}

// recordSuccess fully clears the plugin's record — a reset, not a decrement.
func (t *breakerTable) recordSuccess(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.records[name]; ok {
		delete(t.records, name)
		t.logger.Debug("circuit breaker record cleared", zap.String("plugin", name))
	}
}

// failures returns the current consecutive failure count, for tests and
// introspection.
func (t *breakerTable) failures(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if rec, ok := t.records[name]; ok {
		return rec.failureCount
	}
	return 0
}
