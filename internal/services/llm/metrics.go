package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var TierAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "marketpulse_ai_tier_attempts_total",
	Help: "Fallback chain tier attempts by provider and outcome",
}, []string{"provider", "outcome"})
