package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
)

// ErrorType classifies provider failures.
type ErrorType string

const (
	ErrorTypeRateLimited ErrorType = "rate_limited"
	ErrorTypeOverloaded  ErrorType = "overloaded"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeGeneric     ErrorType = "generic"
)

// User-facing copy per error category. The chat layer sends these verbatim,
// so they must not leak provider or infrastructure detail.
const (
	userMsgRateLimited = "I'm receiving too many requests right now. Please wait a moment and try again."
	userMsgOverloaded  = "The assistant is temporarily overloaded. Please try again in a few moments."
	userMsgGeneric     = "Sorry, something went wrong while generating a response. Please try again."
)

// Error represents a structured provider error with classification.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// UserMessage returns the copy shown to the end user for this error category.
func (e *Error) UserMessage() string {
	switch e.Type {
	case ErrorTypeRateLimited:
		return userMsgRateLimited
	case ErrorTypeOverloaded:
		return userMsgOverloaded
	default:
		return userMsgGeneric
	}
}

// NewError creates a new structured provider error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ClassifyError categorizes an error from either provider SDK and returns a
// structured Error so the chat layer can pick the right user copy.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	var anthErr *anthropic.APIError
	if errors.As(err, &anthErr) {
		switch {
		case anthErr.IsRateLimitErr():
			return NewError(ErrorTypeRateLimited, "rate limited", true, err)
		case anthErr.IsOverloadedErr():
			return NewError(ErrorTypeOverloaded, "provider overloaded", true, err)
		case anthErr.IsAuthenticationErr(), anthErr.IsPermissionErr():
			return NewError(ErrorTypeAuth, "authentication failed", false, err)
		}
		return NewError(ErrorTypeGeneric, "provider error", false, err)
	}

	var oaiErr *openai.APIError
	if errors.As(err, &oaiErr) {
		e := classifyStatusCode(oaiErr.HTTPStatusCode, err)
		if e != nil {
			return e
		}
		return NewError(ErrorTypeGeneric, "provider error", false, err)
	}

	lower := strings.ToLower(err.Error())

	if strings.Contains(lower, "429") || strings.Contains(lower, "rate limit") {
		return NewError(ErrorTypeRateLimited, "rate limited", true, err)
	}
	if strings.Contains(lower, "overloaded") ||
		strings.Contains(lower, "503") || strings.Contains(lower, "529") {
		return NewError(ErrorTypeOverloaded, "provider overloaded", true, err)
	}
	if strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") {
		return NewError(ErrorTypeAuth, "authentication failed", false, err)
	}
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "connection refused") {
		return NewError(ErrorTypeGeneric, "request failed", true, err)
	}

	return NewError(ErrorTypeGeneric, "provider error", false, err)
}

func classifyStatusCode(code int, cause error) *Error {
	switch {
	case code == 429:
		e := NewError(ErrorTypeRateLimited, "rate limited", true, cause)
		e.StatusCode = code
		return e
	case code == 503 || code == 529:
		e := NewError(ErrorTypeOverloaded, "provider overloaded", true, cause)
		e.StatusCode = code
		return e
	case code == 401 || code == 403:
		e := NewError(ErrorTypeAuth, "authentication failed", false, cause)
		e.StatusCode = code
		return e
	case code >= 500:
		e := NewError(ErrorTypeGeneric, "server error", true, cause)
		e.StatusCode = code
		return e
	}
	return nil
}

// UserMessageFor returns the user-facing copy for any error, classifying it
// first when needed.
func UserMessageFor(err error) string {
	if err == nil {
		return ""
	}
	return ClassifyError(err).UserMessage()
}
