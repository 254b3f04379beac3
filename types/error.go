package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Tool execution error codes
const (
	ErrPluginNotFound  ErrorCode = "PLUGIN_NOT_FOUND"
	ErrCircuitOpen     ErrorCode = "CIRCUIT_OPEN"
	ErrRateLimited     ErrorCode = "RATE_LIMITED"
	ErrAuthRequired    ErrorCode = "AUTH_REQUIRED"
	ErrInputValidation ErrorCode = "INPUT_VALIDATION"
	ErrPluginTimeout   ErrorCode = "PLUGIN_TIMEOUT"
	ErrPluginExecution ErrorCode = "PLUGIN_EXECUTION"
	ErrCitationParse   ErrorCode = "CITATION_PARSE"
)

// LLM gateway error codes
const (
	ErrLLMRateLimited ErrorCode = "LLM_RATE_LIMITED"
	ErrLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	ErrLLMFatal       ErrorCode = "LLM_FATAL"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Provider  string    `json:"provider,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// GetErrorCode extracts the error code from an error chain.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsTransient reports whether an error is one of the two distinguished
// transient gateway classes (rate-limited, temporarily unavailable).
// Transient errors trigger the caveat fallback at the final-answer step
// instead of aborting the invocation.
func IsTransient(err error) bool {
	switch GetErrorCode(err) {
	case ErrLLMRateLimited, ErrLLMUnavailable:
		return true
	}
	return false
}

// IsRetryable checks if an error is marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
