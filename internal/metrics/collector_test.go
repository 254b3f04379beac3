package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCollector_RecordToolCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("reagent", reg, zap.NewNop())

	c.RecordToolCall("vector_search", "ok", 120*time.Millisecond)
	c.RecordToolCall("vector_search", "ok", 80*time.Millisecond)
	c.RecordToolCall("vector_search", "error", 10*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.toolCallsTotal.WithLabelValues("vector_search", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.toolCallsTotal.WithLabelValues("vector_search", "error")))
}

func TestCollector_RecordCacheAndLLM(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("reagent", reg, zap.NewNop())

	c.RecordCacheHit("kg_query")
	c.RecordCacheMiss("kg_query")
	c.RecordCacheMiss("kg_query")
	c.RecordLLMRequest("balanced", "ok", 100, 40)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.toolCacheHits.WithLabelValues("kg_query")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.toolCacheMisses.WithLabelValues("kg_query")))
	assert.Equal(t, float64(100), testutil.ToFloat64(c.llmTokensUsed.WithLabelValues("balanced", "prompt")))
	assert.Equal(t, float64(40), testutil.ToFloat64(c.llmTokensUsed.WithLabelValues("balanced", "completion")))
}

func TestCollector_NilReceiverIsSafe(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordToolCall("x", "ok", time.Millisecond)
		c.RecordCacheHit("x")
		c.RecordCacheMiss("x")
		c.RecordLLMRequest("fast", "ok", 1, 1)
		c.RecordLoop("final_answer", 3)
		c.RecordStateTransition("thinking", "acting")
	})
}
