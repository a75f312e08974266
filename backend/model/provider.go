package model

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskpilot/taskpilot/shared/resilience"
)

type ProviderOptions struct {
	URL            string
	Timeout        time.Duration
	RetryConfig    *resilience.RetryConfig
	CircuitBreaker *resilience.CircuitBreaker
	Metrics        *prometheus.Registry
}

type ProviderOption func(*ProviderOptions)

func WithURL(url string) ProviderOption {
	return func(o *ProviderOptions) {
		o.URL = url
	}
}

func WithTimeout(timeout time.Duration) ProviderOption {
	return func(o *ProviderOptions) {
		o.Timeout = timeout
	}
}

func WithRetryConfig(retryConfig *resilience.RetryConfig) ProviderOption {
	return func(o *ProviderOptions) {
		o.RetryConfig = retryConfig
	}
}

func WithCircuitBreaker(circuitBreaker *resilience.CircuitBreaker) ProviderOption {
	return func(o *ProviderOptions) {
		o.CircuitBreaker = circuitBreaker
	}
}

func WithMetrics(metrics *prometheus.Registry) ProviderOption {
	return func(o *ProviderOptions) {
		o.Metrics = metrics
	}
}

func DefaultProviderOptions(name string) *ProviderOptions {
	return &ProviderOptions{
		Timeout:        60 * time.Second,
		RetryConfig:    resilience.DefaultRetryConfig(),
		CircuitBreaker: resilience.NewCircuitBreaker(name, 5, 10*time.Second),
		Metrics:        prometheus.NewRegistry(),
	}
}

// completeWithResilience wraps a single provider call with the
// circuit breaker, per-attempt timeout, and retry policy shared by
// all providers. A timed-out attempt surfaces as an unavailable
// ProviderError rather than hanging the turn.
func completeWithResilience(
	ctx context.Context,
	name string,
	opts *ProviderOptions,
	metrics *providerMetrics,
	call func(ctx context.Context) (*Response, error),
) (*Response, error) {
	if opts.CircuitBreaker != nil && !opts.CircuitBreaker.Allow() {
		err := NewProviderError(name, ErrKindUnavailable, errors.New("circuit breaker open"))
		metrics.IncrementRequest(name, "rejected")
		return nil, err
	}

	attempt := func(ctx context.Context) (*Response, error) {
		callCtx := ctx
		if opts.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
		}

		resp, err := call(callCtx)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewProviderError(name, ErrKindUnavailable, err)
		}
		var pe *ProviderError
		if errors.As(err, &pe) {
			return nil, pe
		}
		return nil, NewProviderError(name, ErrKindUnknown, err)
	}

	resp, err := retry.DoWithData(
		func() (*Response, error) { return attempt(ctx) },
		retry.DelayType(func(n uint, err error, cfg *retry.Config) time.Duration {
			return retryDelay(opts.RetryConfig, n, err)
		}),
		retry.OnRetry(func(n uint, err error) {
			metrics.IncrementRetry(name)
		}),
		retry.RetryIf(func(err error) bool {
			var pe *ProviderError
			if errors.As(err, &pe) {
				retryable, _ := pe.Retryable()
				return retryable
			}
			return true
		}),
		retry.Attempts(opts.RetryConfig.MaxAttempts),
		retry.MaxDelay(opts.RetryConfig.MaxDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)

	if opts.CircuitBreaker != nil {
		opts.CircuitBreaker.RecordResult(err)
	}

	if err != nil {
		metrics.IncrementRequest(name, "error")
		return nil, err
	}
	metrics.IncrementRequest(name, "ok")
	return resp, nil
}

// retryDelay prefers provider-directed timing over exponential
// backoff when the provider supplied one.
func retryDelay(cfg *resilience.RetryConfig, attempt uint, err error) time.Duration {
	var pe *ProviderError
	if errors.As(err, &pe) && cfg.UseProviderBackoff {
		if _, after := pe.Retryable(); after > 0 {
			jitter := time.Duration(rand.Float64() * 100 * float64(time.Millisecond))
			return after + jitter
		}
	}
	return cfg.ExponentialBackoff(attempt + 1)
}
