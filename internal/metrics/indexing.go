package metrics

import "github.com/prometheus/client_golang/prometheus"

// Indexing and vote Prometheus metrics.
var (
	IndexWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealdex",
			Name:      "index_writes_total",
			Help:      "Search index writes by operation and outcome",
		},
		[]string{"op", "status"}, // op: index/delete, status: ok/error
	)

	CompensationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealdex",
			Name:      "index_compensations_total",
			Help:      "Compensating record deletes after failed index writes",
		},
		[]string{"status"}, // ok / orphan
	)

	VotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealdex",
			Name:      "votes_total",
			Help:      "Vote operations by type and outcome",
		},
		[]string{"type", "status"}, // type: UP/DOWN/UNVOTE, status: ok/conflict/error
	)
)

// RegisterIndexingMetrics registers the indexing and vote metrics. Called
// once from the composition root; no init() to keep registration explicit.
func RegisterIndexingMetrics() {
	prometheus.MustRegister(IndexWritesTotal)
	prometheus.MustRegister(CompensationsTotal)
	prometheus.MustRegister(VotesTotal)
}
