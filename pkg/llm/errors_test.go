package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{"rate limit by status", errors.New("HTTP 429 Too Many Requests"), ErrorTypeRateLimited, true},
		{"rate limit by text", errors.New("rate limit exceeded, slow down"), ErrorTypeRateLimited, true},
		{"overloaded by text", errors.New("upstream overloaded"), ErrorTypeOverloaded, true},
		{"overloaded by status", errors.New("service unavailable: 503"), ErrorTypeOverloaded, true},
		{"auth failure", errors.New("401 unauthorized"), ErrorTypeAuth, false},
		{"invalid api key", errors.New("invalid api key provided"), ErrorTypeAuth, false},
		{"timeout is retryable generic", errors.New("context deadline exceeded"), ErrorTypeGeneric, true},
		{"unknown failure", errors.New("something odd happened"), ErrorTypeGeneric, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if got.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", got.Type, tt.wantType)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
		})
	}
}

func TestClassifyErrorNil(t *testing.T) {
	if got := ClassifyError(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestClassifyErrorPassesThroughStructured(t *testing.T) {
	orig := NewError(ErrorTypeOverloaded, "provider overloaded", true, errors.New("529"))
	wrapped := errors.Join(errors.New("request failed"), orig)

	got := ClassifyError(wrapped)
	if got != orig {
		t.Errorf("expected the original structured error back, got %v", got)
	}
}

func TestUserMessagesAreDistinct(t *testing.T) {
	rate := (&Error{Type: ErrorTypeRateLimited}).UserMessage()
	over := (&Error{Type: ErrorTypeOverloaded}).UserMessage()
	generic := (&Error{Type: ErrorTypeGeneric}).UserMessage()

	if rate == over || rate == generic || over == generic {
		t.Errorf("user messages must differ per category: %q / %q / %q", rate, over, generic)
	}
	if (&Error{Type: ErrorTypeAuth}).UserMessage() != generic {
		t.Errorf("auth errors should use generic user copy")
	}
}

func TestErrorStringIncludesContext(t *testing.T) {
	err := NewError(ErrorTypeRateLimited, "rate limited", true, errors.New("too many requests"))
	err.StatusCode = 429

	got := err.Error()
	for _, want := range []string{"rate_limited", "HTTP 429", "too many requests"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}
