package metrics

import "github.com/prometheus/client_golang/prometheus"

// RAG pipeline Prometheus metrics.
var (
	IngestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragdex",
			Name:      "ingests_total",
			Help:      "Total number of document ingest attempts",
		},
		[]string{"status"}, // "ok" / "error"
	)

	ChatsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragdex",
			Name:      "chats_total",
			Help:      "Total number of chat requests",
		},
		[]string{"status"}, // "ok" / "timeout" / "error"
	)

	ChatStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragdex",
			Name:      "chat_stage_duration_seconds",
			Help:      "Per-stage chat pipeline duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"}, // "retrieve" / "prompt" / "generate"
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragdex",
			Name:      "generation_requests_total",
			Help:      "Total number of generation requests",
		},
		[]string{"model", "status"},
	)
)

var ragMetricsRegistered bool

// RegisterRAGMetrics registers Prometheus RAG pipeline metrics. Must be called once from main.
func RegisterRAGMetrics() {
	if ragMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestsTotal)
	prometheus.MustRegister(ChatsTotal)
	prometheus.MustRegister(ChatStageDuration)
	prometheus.MustRegister(GenerationRequestsTotal)
	ragMetricsRegistered = true
}
