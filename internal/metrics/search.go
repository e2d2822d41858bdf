package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and catalog Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursedex",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"status"}, // "success" / "error"
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coursedex",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds (filter + embed + rank)",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	SearchMemoTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursedex",
			Name:      "search_memo_total",
			Help:      "Search result memo hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	DegenerateVectorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coursedex",
			Name:      "degenerate_vectors_total",
			Help:      "Zero-norm candidate vectors excluded from ranking",
		},
	)

	CatalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "coursedex",
			Name:      "catalog_records",
			Help:      "Number of records in the loaded catalog",
		},
	)

	CatalogSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursedex",
			Name:      "catalog_records_skipped_total",
			Help:      "Records skipped during catalog load",
		},
		[]string{"reason"}, // "malformed" / "duplicate"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchMemoTotal)
	prometheus.MustRegister(DegenerateVectorsTotal)
	prometheus.MustRegister(CatalogSize)
	prometheus.MustRegister(CatalogSkippedTotal)
	searchMetricsRegistered = true
}
