package metrics

import "github.com/prometheus/client_golang/prometheus"

// AssistantMetrics exposes counters/histograms for the chat dispatch loop.
type AssistantMetrics struct {
	llmLatency   *prometheus.HistogramVec
	toolCalls    *prometheus.CounterVec
	replies      *prometheus.CounterVec
	toolRounds   prometheus.Histogram
	bookingTotal *prometheus.CounterVec
}

func NewAssistantMetrics(reg prometheus.Registerer) *AssistantMetrics {
	m := &AssistantMetrics{
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tradeezy",
			Subsystem: "assistant",
			Name:      "llm_latency_seconds",
			Help:      "Latency of LLM completion calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}, []string{"provider", "outcome"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradeezy",
			Subsystem: "assistant",
			Name:      "tool_calls_total",
			Help:      "Tool invocations requested by the model",
		}, []string{"tool", "outcome"}),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradeezy",
			Subsystem: "assistant",
			Name:      "replies_total",
			Help:      "Chat replies by how they were produced",
		}, []string{"outcome"}),
		toolRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tradeezy",
			Subsystem: "assistant",
			Name:      "tool_rounds",
			Help:      "Tool rounds used per user turn",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradeezy",
			Subsystem: "bookings",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.llmLatency, m.toolCalls, m.replies, m.toolRounds, m.bookingTotal)
	return m
}

func (m *AssistantMetrics) ObserveLLM(provider, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(provider, outcome).Observe(seconds)
}

func (m *AssistantMetrics) ObserveToolCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

func (m *AssistantMetrics) ObserveReply(outcome string) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(outcome).Inc()
}

func (m *AssistantMetrics) ObserveToolRounds(rounds int) {
	if m == nil {
		return
	}
	m.toolRounds.Observe(float64(rounds))
}

func (m *AssistantMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingTotal.WithLabelValues(outcome).Inc()
}
