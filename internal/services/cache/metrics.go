package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketpulse_cache_hits_total",
		Help: "Total number of cache hits",
	}, []string{"namespace"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketpulse_cache_misses_total",
		Help: "Total number of cache misses",
	}, []string{"namespace"})

	CacheSetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketpulse_cache_sets_total",
		Help: "Total number of cache sets",
	}, []string{"namespace"})

	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketpulse_cache_evictions_total",
		Help: "Total number of expired entries removed lazily or by the sweeper",
	})

	CacheLoadsCoalescedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketpulse_cache_loads_coalesced_total",
		Help: "Total number of GetOrLoad calls that shared another caller's load",
	})
)
