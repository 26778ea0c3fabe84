package aggregator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	SourceCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketpulse_source_calls_total",
		Help: "Upstream source calls by source and outcome (ok, error, timeout, panic)",
	}, []string{"source", "outcome"})

	SourceDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketpulse_source_duration_seconds",
		Help:    "Upstream source call duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	AggregatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketpulse_aggregates_total",
		Help: "Aggregate fetches by aggregate and result (complete, partial, failed)",
	}, []string{"aggregate", "result"})
)
