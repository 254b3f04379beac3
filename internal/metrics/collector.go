// Package metrics provides internal prometheus metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector registers and records the engine's prometheus metrics.
// All record methods are safe on a nil receiver so callers can run
// without metrics wired.
type Collector struct {
	toolCallsTotal   *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec
	toolCacheHits    *prometheus.CounterVec
	toolCacheMisses  *prometheus.CounterVec

	llmRequestsTotal *prometheus.CounterVec
	llmTokensUsed    *prometheus.CounterVec

	loopExecutionsTotal *prometheus.CounterVec
	loopSteps           prometheus.Histogram
	stateTransitions    *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a Collector registered against reg. Pass
// prometheus.DefaultRegisterer in production; tests supply their own
// registry so repeated construction does not collide.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.toolCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool executions",
		},
		[]string{"plugin", "status"},
	)

	c.toolCallDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"plugin"},
	)

	c.toolCacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_cache_hits_total",
			Help:      "Total number of tool cache hits",
		},
		[]string{"plugin"},
	)

	c.toolCacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_cache_misses_total",
			Help:      "Total number of tool cache misses",
		},
		[]string{"plugin"},
	)

	c.llmRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM gateway exchanges",
		},
		[]string{"tier", "status"},
	)

	c.llmTokensUsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"tier", "type"}, // type: prompt, completion
	)

	c.loopExecutionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_executions_total",
			Help:      "Total number of reasoning loop invocations",
		},
		[]string{"status"},
	)

	c.loopSteps = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loop_steps",
			Help:      "Steps taken per reasoning loop invocation",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	c.stateTransitions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_state_transitions_total",
			Help:      "Total number of loop state transitions",
		},
		[]string{"from", "to"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// RecordToolCall records one tool execution outcome.
func (c *Collector) RecordToolCall(plugin, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.toolCallsTotal.WithLabelValues(plugin, status).Inc()
	c.toolCallDuration.WithLabelValues(plugin).Observe(duration.Seconds())
}

// RecordCacheHit records a tool cache hit.
func (c *Collector) RecordCacheHit(plugin string) {
	if c == nil {
		return
	}
	c.toolCacheHits.WithLabelValues(plugin).Inc()
}

// RecordCacheMiss records a tool cache miss.
func (c *Collector) RecordCacheMiss(plugin string) {
	if c == nil {
		return
	}
	c.toolCacheMisses.WithLabelValues(plugin).Inc()
}

// RecordLLMRequest records one gateway exchange.
func (c *Collector) RecordLLMRequest(tier, status string, promptTokens, completionTokens int) {
	if c == nil {
		return
	}
	c.llmRequestsTotal.WithLabelValues(tier, status).Inc()
	c.llmTokensUsed.WithLabelValues(tier, "prompt").Add(float64(promptTokens))
	c.llmTokensUsed.WithLabelValues(tier, "completion").Add(float64(completionTokens))
}

// RecordLoop records a completed loop invocation.
func (c *Collector) RecordLoop(status string, steps int) {
	if c == nil {
		return
	}
	c.loopExecutionsTotal.WithLabelValues(status).Inc()
	c.loopSteps.Observe(float64(steps))
}

// RecordStateTransition records one loop state transition.
func (c *Collector) RecordStateTransition(from, to string) {
	if c == nil {
		return
	}
	c.stateTransitions.WithLabelValues(from, to).Inc()
}
