package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLM provider Prometheus metrics, covering both the embedding and the
// chat completion endpoints.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatsense",
			Name:      "llm_requests_total",
			Help:      "Total number of LLM provider requests",
		},
		[]string{"endpoint", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chatsense",
			Name:      "llm_request_duration_seconds",
			Help:      "LLM provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatsense",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"endpoint", "model", "type"},
	)

	LLMErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatsense",
			Name:      "llm_errors_total",
			Help:      "Total LLM provider errors",
		},
		[]string{"endpoint", "model", "error_type"},
	)
)

var llmMetricsRegistered bool

// RegisterLLMMetrics registers Prometheus LLM metrics. Must be called once from main.
func RegisterLLMMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMTokensTotal)
	prometheus.MustRegister(LLMErrorsTotal)
	llmMetricsRegistered = true
}
