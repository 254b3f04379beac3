package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Engine.MaxSteps)
	assert.Equal(t, 5, cfg.Executor.BreakerThreshold)
	assert.Equal(t, 60*time.Second, cfg.Executor.BreakerCooldown)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "reagent", cfg.Metrics.Namespace)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  max_steps: 8
  retry_count: 3
executor:
  breaker_threshold: 10
  cache_ttl: 2m
redis:
  enabled: true
  addr: redis.internal:6380
log:
  level: debug
`), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Engine.MaxSteps)
	assert.Equal(t, 3, cfg.Engine.RetryCount)
	assert.Equal(t, 10, cfg.Executor.BreakerThreshold)
	assert.Equal(t, 2*time.Minute, cfg.Executor.CacheTTL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, 500*time.Millisecond, cfg.Executor.RetryDelay)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Engine.MaxSteps)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [not: a map"), 0o600))

	_, err := NewLoader().WithConfigPath(path).Load()
	assert.Error(t, err)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  max_steps: 8\n"), 0o600))

	t.Setenv("REAGENT_ENGINE_MAX_STEPS", "12")
	t.Setenv("REAGENT_EXECUTOR_BREAKER_COOLDOWN", "90s")
	t.Setenv("REAGENT_REDIS_ADDR", "env.redis:6379")
	t.Setenv("REAGENT_REDIS_ENABLED", "true")
	t.Setenv("REAGENT_LOG_LEVEL", "warn")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Engine.MaxSteps)
	assert.Equal(t, 90*time.Second, cfg.Executor.BreakerCooldown)
	assert.Equal(t, "env.redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestEnvInvalidValue(t *testing.T) {
	t.Setenv("REAGENT_ENGINE_MAX_STEPS", "not-a-number")

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestValidatorRuns(t *testing.T) {
	boom := errors.New("bad config")
	_, err := NewLoader().
		WithValidator(func(c *Config) error { return boom }).
		Load()
	assert.ErrorIs(t, err, boom)
}

func TestCustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_ENGINE_MAX_STEPS", "7")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Engine.MaxSteps)
}
