package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoffGrowsAndCaps(t *testing.T) {
	t.Parallel()

	cfg := &RetryConfig{
		MaxAttempts:       5,
		InitialDelay:      time.Second,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2,
	}

	// Jitter is ±10%, so each attempt stays within a known band.
	for attempt, base := range map[uint]time.Duration{
		1: time.Second,
		2: 2 * time.Second,
		3: 4 * time.Second,
	} {
		got := cfg.ExponentialBackoff(attempt)
		lo := time.Duration(float64(base) * 0.9)
		hi := time.Duration(float64(base) * 1.1)
		assert.GreaterOrEqual(t, got, lo, "attempt %d", attempt)
		assert.LessOrEqual(t, got, hi, "attempt %d", attempt)
	}

	assert.LessOrEqual(t, cfg.ExponentialBackoff(20), 10*time.Second)
}

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("openai", 3, time.Hour)
	assert.Equal(t, CircuitClosed, cb.State())

	failure := errors.New("boom")
	cb.RecordResult(failure)
	cb.RecordResult(failure)
	assert.Equal(t, CircuitClosed, cb.State())
	assert.True(t, cb.Allow())

	cb.RecordResult(failure)
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("openai", 2, time.Hour)
	failure := errors.New("boom")

	cb.RecordResult(failure)
	cb.RecordResult(nil)
	cb.RecordResult(failure)
	assert.Equal(t, CircuitClosed, cb.State(), "a success breaks the failure run")
}

func TestCircuitBreakerHalfOpenProbe(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("openai", 1, 10*time.Millisecond)
	cb.RecordResult(errors.New("boom"))
	assert.False(t, cb.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, cb.Allow(), "elapsed reset timeout admits one probe")
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordResult(nil)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("openai", 1, 10*time.Millisecond)
	cb.RecordResult(errors.New("boom"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, cb.Allow())

	cb.RecordResult(errors.New("boom again"))
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())
}
