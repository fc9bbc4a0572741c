package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Name:      "searches_total",
			Help:      "Total number of search requests",
		},
		[]string{"mode", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rag",
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	RerankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Name:      "rerank_requests_total",
			Help:      "Total number of rerank requests",
		},
		[]string{"status"},
	)

	IndexRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Name:      "index_rebuilds_total",
			Help:      "Total number of lexical index rebuilds",
		},
		[]string{"status"},
	)

	LexicalIndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rag",
			Name:      "lexical_index_documents",
			Help:      "Number of documents in the lexical index snapshot",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers retrieval metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(RerankRequestsTotal)
	prometheus.MustRegister(IndexRebuildsTotal)
	prometheus.MustRegister(LexicalIndexDocuments)
	searchMetricsRegistered = true
}
