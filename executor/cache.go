package executor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/BaSui01/reagent/internal/store"
	"github.com/BaSui01/reagent/types"
	"go.uber.org/zap"
)

// cacheKey builds a deterministic key from the plugin name and arguments.
// encoding/json marshals maps with sorted keys at every level, so two
// argument sets that differ only in key order hash identically.
func cacheKey(pluginName string, args map[string]any) string {
	data, err := json.Marshal(args)
	if err != nil {
		// Unmarshalable arguments still need a deterministic key; the
		// plugin name alone keeps the call functional without caching
		// collisions across plugins.
		data = nil
	}
	h := sha256.New()
	h.Write([]byte(pluginName))
	h.Write([]byte{0})
	h.Write(data)
	return "tool:cache:" + hex.EncodeToString(h.Sum(nil)[:16])
}

// resultCache is a write-through cache of successful plugin outputs in the
// shared store. Reads and writes are best effort: a store failure is logged
// and treated as a miss, never as a call failure.
type resultCache struct {
	store  store.KV
	ttl    time.Duration
	logger *zap.Logger
}

func newResultCache(kv store.KV, ttl time.Duration, logger *zap.Logger) *resultCache {
	if kv == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &resultCache{store: kv, ttl: ttl, logger: logger}
}

// get returns the cached output for key, if any.
func (c *resultCache) get(ctx context.Context, key string) (*types.PluginOutput, bool) {
	val, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNil) && ctx.Err() == nil {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var out types.PluginOutput
	if err := json.Unmarshal(val, &out); err != nil {
		c.logger.Warn("cache entry corrupt, ignoring", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &out, true
}

// put stores a successful output. A cache-write failure must not fail the
// call, so errors are only logged.
func (c *resultCache) put(ctx context.Context, key string, out *types.PluginOutput) {
	data, err := json.Marshal(out)
	if err != nil {
		c.logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetEx(ctx, key, c.ttl, data); err != nil && ctx.Err() == nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
