package dispatch

import "github.com/prometheus/client_golang/prometheus"

type dispatchMetrics struct {
	turns *prometheus.CounterVec
	tools *prometheus.CounterVec
}

func newDispatchMetrics(registry *prometheus.Registry) *dispatchMetrics {
	if registry == nil {
		return nil
	}

	m := &dispatchMetrics{
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_turns_total",
				Help: "Total number of chat turns by dispatch tier",
			},
			[]string{"tier"},
		),
		tools: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_tool_executions_total",
				Help: "Total number of tool executions by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
	}

	registry.MustRegister(m.turns, m.tools)
	return m
}

func (m *dispatchMetrics) IncrementTurn(tier string) {
	if m != nil && m.turns != nil {
		m.turns.WithLabelValues(tier).Inc()
	}
}

func (m *dispatchMetrics) IncrementTool(tool, outcome string) {
	if m != nil && m.tools != nil {
		m.tools.WithLabelValues(tool, outcome).Inc()
	}
}
