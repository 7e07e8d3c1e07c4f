package chat

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what happened in a conversation. Each Loop gets its own
// registry; nothing is exported over the network.
type Metrics struct {
	Registry *prometheus.Registry

	turns    prometheus.Counter
	tokens   prometheus.Counter
	failures prometheus.Counter
	halts    prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics registers the chat collectors in a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "llamachat",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Turns that completed inference",
		}),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "llamachat",
			Subsystem: "chat",
			Name:      "tokens_total",
			Help:      "Tokens generated by the engine",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "llamachat",
			Subsystem: "chat",
			Name:      "inference_failures_total",
			Help:      "Turns whose inference call failed",
		}),
		halts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "llamachat",
			Subsystem: "chat",
			Name:      "stop_halts_total",
			Help:      "Turns ended because the model started the next user turn",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "llamachat",
			Subsystem: "chat",
			Name:      "inference_duration_seconds",
			Help:      "Duration of inference calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	m.Registry.MustRegister(m.turns, m.tokens, m.failures, m.halts, m.duration)
	return m
}

// Summary is a snapshot of the counters.
type Summary struct {
	Turns    int
	Tokens   int
	Failures int
	Halts    int
}

// Summary gathers the current counter values from the registry.
func (m *Metrics) Summary() Summary {
	var s Summary
	mfs, err := m.Registry.Gather()
	if err != nil {
		return s
	}
	for _, mf := range mfs {
		ms := mf.GetMetric()
		if len(ms) == 0 || ms[0].GetCounter() == nil {
			continue
		}
		v := int(ms[0].GetCounter().GetValue())
		switch mf.GetName() {
		case "llamachat_chat_turns_total":
			s.Turns = v
		case "llamachat_chat_tokens_total":
			s.Tokens = v
		case "llamachat_chat_inference_failures_total":
			s.Failures = v
		case "llamachat_chat_stop_halts_total":
			s.Halts = v
		}
	}
	return s
}
