package resilience

import (
	"math/rand/v2"
	"time"
)

type RetryConfig struct {
	MaxAttempts        uint
	InitialDelay       time.Duration
	MaxDelay           time.Duration
	UseProviderBackoff bool
	BackoffMultiplier  float64
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:        5,
		InitialDelay:       1 * time.Second,
		MaxDelay:           10 * time.Second,
		UseProviderBackoff: true,
		BackoffMultiplier:  2,
	}
}

// ExponentialBackoff computes the delay before the given attempt with
// ±10% jitter, capped at MaxDelay.
func (c *RetryConfig) ExponentialBackoff(attempt uint) time.Duration {
	delay := float64(c.InitialDelay)
	for i := uint(1); i < attempt; i++ {
		delay *= c.BackoffMultiplier
	}

	jitter := (rand.Float64() - 0.5) * 0.2 * delay
	final := time.Duration(delay + jitter)
	if final > c.MaxDelay {
		final = c.MaxDelay
	}
	return final
}
