package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_FormatAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrLLMUnavailable, "provider unreachable").WithCause(cause).WithProvider("openai")

	assert.Contains(t, err.Error(), "LLM_UNAVAILABLE")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Equal(t, "openai", err.Provider)
}

func TestGetErrorCode_Wrapped(t *testing.T) {
	inner := NewError(ErrRateLimited, "too many calls")
	wrapped := fmt.Errorf("execute plugin: %w", inner)

	assert.Equal(t, ErrRateLimited, GetErrorCode(wrapped))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewError(ErrLLMRateLimited, "throttled")))
	assert.True(t, IsTransient(NewError(ErrLLMUnavailable, "overloaded")))
	assert.False(t, IsTransient(NewError(ErrLLMFatal, "bad request")))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsTransient(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewError(ErrLLMRateLimited, "throttled").WithRetryable(true)))
	assert.False(t, IsRetryable(NewError(ErrLLMFatal, "bad request")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusThinking.Terminal())
	assert.False(t, StatusActing.Terminal())
	assert.False(t, StatusObserving.Terminal())
	assert.True(t, StatusFinalAnswer.Terminal())
	assert.True(t, StatusMaxStepsExhausted.Terminal())
	assert.True(t, StatusFatalError.Terminal())
}

func TestTokenUsage_Add(t *testing.T) {
	u := TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	u.Add(TokenUsage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5})
	assert.Equal(t, TokenUsage{PromptTokens: 13, CompletionTokens: 7, TotalTokens: 20}, u)
}
