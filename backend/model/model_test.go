package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProviderErrorUserMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind ErrorKind
		want string
	}{
		{ErrKindRateLimited, "I'm being rate limited. Please wait a moment and try again."},
		{ErrKindUnauthorized, "There's an issue with the assistant configuration. Please contact support."},
		{ErrKindUnavailable, "The assistant is unavailable right now. Please try again later."},
		{ErrKindUnknown, "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()

			pe := NewProviderError("openai", tt.kind, errors.New("http 500"))
			assert.Equal(t, tt.want, pe.UserMessage())
			assert.NotContains(t, pe.UserMessage(), "500", "provider detail never reaches users")
		})
	}
}

func TestProviderErrorRetryable(t *testing.T) {
	t.Parallel()

	rateLimited := NewProviderError("openai", ErrKindRateLimited, errors.New("429"))
	rateLimited.RetryAfter = 3 * time.Second
	ok, delay := rateLimited.Retryable()
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, delay)

	unavailable := NewProviderError("anthropic", ErrKindUnavailable, errors.New("503"))
	ok, delay = unavailable.Retryable()
	assert.True(t, ok)
	assert.Zero(t, delay)

	unauthorized := NewProviderError("openai", ErrKindUnauthorized, errors.New("401"))
	ok, _ = unauthorized.Retryable()
	assert.False(t, ok)
}

func TestProviderErrorWrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	pe := NewProviderError("openai", ErrKindUnavailable, cause)
	wrapped := fmt.Errorf("turn failed: %w", pe)

	var target *ProviderError
	assert.ErrorAs(t, wrapped, &target)
	assert.Equal(t, ErrKindUnavailable, target.Kind)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, pe.Error(), "openai")
	assert.Contains(t, pe.Error(), "unavailable")
}
