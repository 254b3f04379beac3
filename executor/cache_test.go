package executor

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/BaSui01/reagent/internal/store"
	"github.com/BaSui01/reagent/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

func TestCacheKeyStable(t *testing.T) {
	args := map[string]any{"query": "golang", "limit": 10}
	k1 := cacheKey("search", args)
	k2 := cacheKey("search", map[string]any{"limit": 10, "query": "golang"})
	assert.Equal(t, k1, k2)
	assert.True(t, strings.HasPrefix(k1, "tool:cache:"))
}

func TestCacheKeyDistinguishesPlugins(t *testing.T) {
	args := map[string]any{"query": "golang"}
	assert.NotEqual(t, cacheKey("search", args), cacheKey("graph", args))
}

func TestCacheKeyDistinguishesArgs(t *testing.T) {
	assert.NotEqual(t,
		cacheKey("search", map[string]any{"query": "golang"}),
		cacheKey("search", map[string]any{"query": "rust"}))
}

// Insertion order of map keys must never influence the cache key.
func TestCacheKeyOrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		keys := make([]string, 0, n)
		seen := map[string]bool{}
		for len(keys) < n {
			k := rapid.StringMatching(`[a-z_]{1,12}`).Draw(t, "key")
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}

		args := map[string]any{}
		for _, k := range keys {
			switch rapid.IntRange(0, 2).Draw(t, "kind") {
			case 0:
				args[k] = rapid.String().Draw(t, "sval")
			case 1:
				args[k] = rapid.Float64().Draw(t, "fval")
			default:
				args[k] = rapid.Bool().Draw(t, "bval")
			}
		}

		// Rebuild the map in a shuffled key order.
		perm := rapid.Permutation(keys).Draw(t, "perm")
		shuffled := map[string]any{}
		for _, k := range perm {
			shuffled[k] = args[k]
		}

		if cacheKey("p", args) != cacheKey("p", shuffled) {
			t.Fatalf("cache key depends on construction order")
		}
	})
}

func TestResultCacheRoundTrip(t *testing.T) {
	kv := setupTestStore(t)
	c := newResultCache(kv, time.Minute, zap.NewNop())
	require.NotNil(t, c)
	ctx := context.Background()

	key := cacheKey("search", map[string]any{"q": "go"})
	_, hit := c.get(ctx, key)
	assert.False(t, hit)

	out := &types.PluginOutput{
		Success: true,
		Data:    json.RawMessage(`{"results":[1,2,3]}`),
		Metadata: types.OutputMetadata{
			ExecutionTime: 12 * time.Millisecond,
			PluginVersion: "1.0.0",
			Attempts:      1,
		},
	}
	c.put(ctx, key, out)

	got, hit := c.get(ctx, key)
	require.True(t, hit)
	assert.True(t, got.Success)
	assert.JSONEq(t, `{"results":[1,2,3]}`, string(got.Data))
	assert.Equal(t, "1.0.0", got.Metadata.PluginVersion)
}

func TestResultCacheNilStore(t *testing.T) {
	assert.Nil(t, newResultCache(nil, time.Minute, zap.NewNop()))
}

func TestResultCacheCorruptEntry(t *testing.T) {
	kv := setupTestStore(t)
	c := newResultCache(kv, time.Minute, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, kv.SetEx(ctx, "tool:cache:bad", time.Minute, []byte("{not json")))
	_, hit := c.get(ctx, "tool:cache:bad")
	assert.False(t, hit)
}

func TestResultCacheUnreachableStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	kv, err := store.NewRedis(store.Config{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	c := newResultCache(kv, time.Minute, zap.NewNop())
	mr.Close()

	// Store failures degrade to a miss, never an error.
	_, hit := c.get(context.Background(), "tool:cache:any")
	assert.False(t, hit)
	c.put(context.Background(), "tool:cache:any", &types.PluginOutput{Success: true})
}
