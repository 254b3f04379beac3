package executor

import (
	"sync"
	"time"
)

// pluginStats are the monotone per-plugin counters behind GetMetrics.
type pluginStats struct {
	calls       int64
	failures    int64
	totalTime   time.Duration
	cacheHits   int64
	cacheMisses int64
}

// MetricsSnapshot is the read-only view of one plugin's counters.
type MetricsSnapshot struct {
	Calls        int64         `json:"calls"`
	Failures     int64         `json:"failures"`
	AvgTime      time.Duration `json:"avg_time"`
	SuccessRate  float64       `json:"success_rate"`
	CacheHitRate float64       `json:"cache_hit_rate"`
}

// statsTable guards the shared counters against interleaved goroutines.
type statsTable struct {
	mu sync.Mutex
	m  map[string]*pluginStats
}

func newStatsTable() *statsTable {
	return &statsTable{m: make(map[string]*pluginStats)}
}

func (t *statsTable) get(name string) *pluginStats {
	s, ok := t.m[name]
	if !ok {
		s = &pluginStats{}
		t.m[name] = s
	}
	return s
}

func (t *statsTable) recordCall(name string, d time.Duration, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.get(name)
	s.calls++
	s.totalTime += d
	if !success {
		s.failures++
	}
}

func (t *statsTable) recordCacheHit(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(name).cacheHits++
}

func (t *statsTable) recordCacheMiss(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(name).cacheMisses++
}

// snapshot returns the plugin's counters. Unknown plugins yield all-zero
// defaults — never an error or a division by zero.
func (t *statsTable) snapshot(name string) MetricsSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.m[name]
	if !ok {
		return MetricsSnapshot{}
	}
	return buildSnapshot(s)
}

// all returns the full table of snapshots.
func (t *statsTable) all() map[string]MetricsSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]MetricsSnapshot, len(t.m))
	for name, s := range t.m {
		out[name] = buildSnapshot(s)
	}
	return out
}

func buildSnapshot(s *pluginStats) MetricsSnapshot {
	snap := MetricsSnapshot{
		Calls:    s.calls,
		Failures: s.failures,
	}
	if s.calls > 0 {
		snap.AvgTime = s.totalTime / time.Duration(s.calls)
		snap.SuccessRate = float64(s.calls-s.failures) / float64(s.calls)
	}
	if probes := s.cacheHits + s.cacheMisses; probes > 0 {
		snap.CacheHitRate = float64(s.cacheHits) / float64(probes)
	}
	return snap
}
