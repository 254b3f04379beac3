package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BaSui01/reagent/internal/metrics"
	"github.com/BaSui01/reagent/internal/store"
	"github.com/BaSui01/reagent/plugin"
	"github.com/BaSui01/reagent/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Config holds the executor's protection-policy tunables.
type Config struct {
	// BreakerThreshold is the consecutive failure count that opens a
	// plugin's circuit.
	BreakerThreshold int `yaml:"breaker_threshold"`
	// BreakerCooldown is how long an open circuit rejects calls.
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
	// RateWindow is the rate-limit window for plugins that declare a limit.
	RateWindow time.Duration `yaml:"rate_window"`
	// CacheTTL bounds the lifetime of cached plugin outputs.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// RetryDelay is the pause between execution attempts.
	RetryDelay time.Duration `yaml:"retry_delay"`
	// DefaultTimeout applies when a plugin declares no EstimatedTime.
	DefaultTimeout time.Duration `yaml:"default_timeout"`
}

// DefaultConfig returns the default protection policy.
func DefaultConfig() Config {
	return Config{
		BreakerThreshold: 5,
		BreakerCooldown:  60 * time.Second,
		RateWindow:       time.Minute,
		CacheTTL:         5 * time.Minute,
		RetryDelay:       500 * time.Millisecond,
		DefaultTimeout:   30 * time.Second,
	}
}

// Executor is the resilient tool-execution layer. Multiple concurrent
// queries share one Executor; the breaker table, rate-limit counters,
// cache and stats tolerate interleaved access.
type Executor struct {
	registry  plugin.Registry
	breaker   *breakerTable
	limiter   *rateLimiter
	cache     *resultCache // nil when no store is configured
	stats     *statsTable
	collector *metrics.Collector
	tracer    trace.Tracer
	config    Config
	logger    *zap.Logger
}

// New creates an Executor. kv may be nil: the rate limiter then runs on its
// in-process fallback and the result cache is disabled. collector may be
// nil to run without prometheus metrics.
func New(registry plugin.Registry, kv store.KV, cfg Config, collector *metrics.Collector, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "tool_executor"))

	def := DefaultConfig()
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = def.BreakerThreshold
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = def.BreakerCooldown
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = def.RateWindow
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = def.DefaultTimeout
	}

	return &Executor{
		registry:  registry,
		breaker:   newBreakerTable(cfg.BreakerThreshold, cfg.BreakerCooldown, logger),
		limiter:   newRateLimiter(kv, cfg.RateWindow, logger),
		cache:     newResultCache(kv, cfg.CacheTTL, logger),
		stats:     newStatsTable(),
		collector: collector,
		tracer:    otel.Tracer("reagent/executor"),
		config:    cfg,
		logger:    logger,
	}
}

// Execute invokes the named plugin under the full protection pipeline.
// Ordinary failures come back as PluginOutput{Success: false}; the returned
// error is non-nil only for context cancellation.
func (e *Executor) Execute(ctx context.Context, pluginName string, input map[string]any, userID string, retryCount int) (*types.PluginOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "executor.Execute",
		trace.WithAttributes(attribute.String("plugin.name", pluginName)))
	defer span.End()

	// 1. Registry lookup. Not found has no side effects, not even stats.
	p, ok := e.registry.Get(pluginName)
	if !ok {
		e.logger.Warn("plugin not found", zap.String("plugin", pluginName))
		return e.failure(start, 0, "plugin not found: "+pluginName), nil
	}
	meta := p.Metadata()

	// 2. Circuit check.
	if !e.breaker.allow(pluginName, time.Now()) {
		e.logger.Warn("circuit breaker open, call rejected", zap.String("plugin", pluginName))
		e.recordOutcome(pluginName, start, false)
		return e.failure(start, 0, "circuit breaker open"), nil
	}

	// 3. Rate-limit check.
	if meta.RateLimit != nil {
		if !e.limiter.allow(ctx, pluginName, userID, *meta.RateLimit) {
			e.logger.Warn("rate limit exceeded",
				zap.String("plugin", pluginName),
				zap.String("user", userID),
				zap.Int("limit", *meta.RateLimit))
			e.recordOutcome(pluginName, start, false)
			out := e.failure(start, 0, "rate limit exceeded")
			out.Metadata.RateLimit = *meta.RateLimit
			return out, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	// 4. Auth check.
	if meta.RequiresAuth && userID == "" {
		e.recordOutcome(pluginName, start, false)
		return e.failure(start, 0, "authentication required"), nil
	}

	// 5. Input validation through the plugin's own validator.
	if err := p.Validate(ctx, input); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warn("input validation failed", zap.String("plugin", pluginName), zap.Error(err))
		e.recordOutcome(pluginName, start, false)
		return e.failure(start, 0, "input validation failed: "+err.Error()), nil
	}

	// 6. Cache lookup.
	var key string
	if e.cache != nil {
		key = cacheKey(pluginName, input)
		if cached, hit := e.cache.get(ctx, key); hit {
			e.stats.recordCacheHit(pluginName)
			e.collector.RecordCacheHit(pluginName)
			span.SetAttributes(attribute.Bool("cache.hit", true))
			cached.Metadata.CacheHit = true
			return cached, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.stats.recordCacheMiss(pluginName)
		e.collector.RecordCacheMiss(pluginName)
	}

	// 7. Timed execution with retry.
	timeout := meta.EstimatedTime
	if timeout <= 0 {
		timeout = e.config.DefaultTimeout
	}

	var (
		data     json.RawMessage
		execErr  error
		attempts int
	)
	for attempt := 0; attempt <= retryCount; attempt++ {
		attempts++
		data, execErr = e.runOnce(ctx, p, input, timeout)
		if execErr == nil {
			break
		}
		// Cancellation is never retried and re-raises immediately.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < retryCount {
			e.logger.Debug("plugin execution failed, retrying",
				zap.String("plugin", pluginName),
				zap.Int("attempt", attempts),
				zap.Error(execErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.config.RetryDelay):
			}
		}
	}

	elapsed := time.Since(start)
	now := time.Now()

	// 9. Failure after retries.
	if execErr != nil {
		e.breaker.recordFailure(pluginName, now)
		e.recordOutcome(pluginName, start, false)
		e.logger.Error("plugin execution failed",
			zap.String("plugin", pluginName),
			zap.Int("attempts", attempts),
			zap.Error(execErr))
		span.SetAttributes(attribute.Bool("success", false), attribute.Int("attempts", attempts))

		out := e.failure(start, attempts, execErr.Error())
		out.Metadata.PluginVersion = meta.Version
		return out, nil
	}

	// 8. Success: stamp metadata, clear the breaker, write through cache.
	e.breaker.recordSuccess(pluginName)
	e.recordOutcome(pluginName, start, true)
	span.SetAttributes(attribute.Bool("success", true), attribute.Int("attempts", attempts))

	out := &types.PluginOutput{
		Success: true,
		Data:    data,
		Metadata: types.OutputMetadata{
			ExecutionTime: elapsed,
			PluginVersion: meta.Version,
			Timestamp:     now,
			Attempts:      attempts,
		},
	}
	if e.cache != nil {
		e.cache.put(ctx, key, out)
	}

	e.logger.Info("plugin executed",
		zap.String("plugin", pluginName),
		zap.Duration("duration", elapsed),
		zap.Int("attempts", attempts))
	return out, nil
}

// runOnce invokes the plugin under a per-call deadline derived from its
// declared estimated time. The buffered channel lets the goroutine exit
// even when the deadline wins.
func (e *Executor) runOnce(ctx context.Context, p plugin.Plugin, input map[string]any, timeout time.Duration) (json.RawMessage, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		data json.RawMessage
		err  error
	}
	done := make(chan result, 1)

	go func() {
		data, err := p.Execute(callCtx, input)
		select {
		case done <- result{data: data, err: err}:
		case <-callCtx.Done():
		}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, types.NewError(types.ErrPluginExecution, "plugin execution error").WithCause(r.err)
		}
		return r.data, nil
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, types.NewError(types.ErrPluginTimeout, fmt.Sprintf("execution timeout after %s", timeout))
	}
}

// GetMetrics returns the plugin's counters; unknown plugins yield all-zero
// defaults.
func (e *Executor) GetMetrics(pluginName string) MetricsSnapshot {
	return e.stats.snapshot(pluginName)
}

// GetAllMetrics returns the full metrics table.
func (e *Executor) GetAllMetrics() map[string]MetricsSnapshot {
	return e.stats.all()
}

// WarmUp runs the optional on-load hook of each named plugin. A missing
// plugin or a failing hook never aborts the remaining warm-ups.
func (e *Executor) WarmUp(ctx context.Context, names []string) {
	for _, name := range names {
		p, ok := e.registry.Get(name)
		if !ok {
			e.logger.Warn("warm-up skipped, plugin not found", zap.String("plugin", name))
			continue
		}
		loader, ok := p.(plugin.Loader)
		if !ok {
			continue
		}
		if err := loader.OnLoad(ctx); err != nil {
			e.logger.Warn("plugin warm-up failed", zap.String("plugin", name), zap.Error(err))
			continue
		}
		e.logger.Info("plugin warmed up", zap.String("plugin", name))
	}
}

func (e *Executor) failure(start time.Time, attempts int, msg string) *types.PluginOutput {
	return &types.PluginOutput{
		Success: false,
		Error:   msg,
		Metadata: types.OutputMetadata{
			ExecutionTime: time.Since(start),
			Timestamp:     time.Now(),
			Attempts:      attempts,
		},
	}
}

func (e *Executor) recordOutcome(pluginName string, start time.Time, success bool) {
	elapsed := time.Since(start)
	e.stats.recordCall(pluginName, elapsed, success)
	status := "ok"
	if !success {
		status = "error"
	}
	e.collector.RecordToolCall(pluginName, status, elapsed)
}
