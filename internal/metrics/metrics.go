// Package metrics exposes pipeline counters on the default Prometheus
// registry. They are served by the HTTP API under /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bnp_ledger"

var (
	StatementsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "statements_processed_total",
		Help:      "Statements run through the pipeline, by page format and outcome.",
	}, []string{"format", "outcome"})

	RowsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_parsed_total",
		Help:      "Operation rows produced by the layout parser, by page format.",
	}, []string{"format"})

	RowsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_rejected_total",
		Help:      "Rows dropped by a pipeline stage.",
	}, []string{"stage"})

	CacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extraction_cache_events_total",
		Help:      "Extraction cache lookups by result: hit, miss or corrupt.",
	}, []string{"event"})

	ExtractionSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extraction_duration_seconds",
		Help:      "Time spent in the upstream extractor.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"extractor"})

	RulesLearned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rules_learned_total",
		Help:      "Categorization rules appended through interactive learning.",
	})
)
