package model

import "github.com/prometheus/client_golang/prometheus"

type providerMetrics struct {
	requests *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

func newProviderMetrics(registry *prometheus.Registry) *providerMetrics {
	if registry == nil {
		return nil
	}

	m := &providerMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_requests_total",
				Help: "Total number of completion requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_request_retries_total",
				Help: "Total number of completion request retries by provider",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(m.requests, m.retries)
	return m
}

func (m *providerMetrics) IncrementRequest(provider, outcome string) {
	if m != nil && m.requests != nil {
		m.requests.WithLabelValues(provider, outcome).Inc()
	}
}

func (m *providerMetrics) IncrementRetry(provider string) {
	if m != nil && m.retries != nil {
		m.retries.WithLabelValues(provider).Inc()
	}
}
