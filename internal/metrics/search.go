package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchStrategyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carsearch",
			Name:      "search_strategy_total",
			Help:      "Searches executed per retrieval strategy",
		},
		[]string{"strategy"},
	)

	SearchDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carsearch",
			Name:      "search_degraded_total",
			Help:      "Hybrid searches degraded to a single leg",
		},
		[]string{"failed_leg"},
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carsearch",
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end search pipeline duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carsearch",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carsearch",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carsearch",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses per tier",
		},
		[]string{"tier", "result"}, // tier: "memory"/"redis"; result: "hit"/"miss"
	)

	InventoryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carsearch",
			Name:      "inventory_requests_total",
			Help:      "Requests to the inventory search backend",
		},
		[]string{"kind", "status"}, // kind: "filter"/"vector"/"lookup"
	)
)

var registered bool

// Register registers the search metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(SearchStrategyTotal)
	prometheus.MustRegister(SearchDegradedTotal)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(InventoryRequestsTotal)
	registered = true
}
