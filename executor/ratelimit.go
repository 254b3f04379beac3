package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BaSui01/reagent/internal/store"
	"go.uber.org/zap"
)

// rateLimiter enforces per (plugin, user) call budgets. The shared store is
// authoritative: one atomic INCR per call, TTL equal to the window. When the
// store is absent or failing the limiter falls back to an in-process sliding
// window — fail-open on infra failure, fail-closed on policy breach.
type rateLimiter struct {
	store  store.KV // may be nil
	window time.Duration
	logger *zap.Logger

	mu    sync.Mutex
	local map[string]*slidingWindow
}

func newRateLimiter(kv store.KV, window time.Duration, logger *zap.Logger) *rateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &rateLimiter{
		store:  kv,
		window: window,
		logger: logger,
		local:  make(map[string]*slidingWindow),
	}
}

// allow reports whether the call fits the plugin's per-user budget.
func (l *rateLimiter) allow(ctx context.Context, pluginName, userID string, limit int) bool {
	if limit <= 0 {
		return true
	}
	key := fmt.Sprintf("ratelimit:%s:%s", pluginName, userID)

	if l.store != nil {
		n, err := l.store.Incr(ctx, key)
		if err == nil {
			if n == 1 {
				// Fresh counter, start the window. Best effort: a failed
				// expire leaves a counter that keeps its budget until the
				// next successful expire.
				if eerr := l.store.Expire(ctx, key, l.window); eerr != nil {
					l.logger.Warn("rate limit expire failed", zap.String("key", key), zap.Error(eerr))
				}
			}
			return n <= int64(limit)
		}
		if ctx.Err() != nil {
			// The caller handles cancellation; do not burn local budget
			// for a call that will not run.
			return true
		}
		l.logger.Warn("rate limit store unreachable, using in-process fallback",
			zap.String("key", key), zap.Error(err))
	}

	return l.allowLocal(key, limit)
}

func (l *rateLimiter) allowLocal(key string, limit int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.local[key]
	if !ok {
		w = &slidingWindow{}
		l.local[key] = w
	}
	return w.allow(time.Now(), l.window, limit)
}

// slidingWindow keeps the timestamps of accepted calls inside the window.
type slidingWindow struct {
	stamps []time.Time
}

func (w *slidingWindow) allow(now time.Time, window time.Duration, limit int) bool {
	cutoff := now.Add(-window)
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.stamps = kept

	if len(w.stamps) >= limit {
		return false
	}
	w.stamps = append(w.stamps, now)
	return true
}
