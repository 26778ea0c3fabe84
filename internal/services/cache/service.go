// Package cache provides the namespaced in-memory TTL cache shared by the
// aggregators, the AI chain and the news pipeline.
package cache

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/singleflight"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

const (
	// DefaultTTL applies to keys outside the known namespaces.
	DefaultTTL = 5 * time.Minute

	// DefaultSweepInterval is how often the sweeper reclaims expired entries.
	DefaultSweepInterval = 5 * time.Minute

	// otherNamespace groups keys without a namespace prefix in stats.
	otherNamespace = "other"
)

// Namespace prefixes
const (
	NamespaceEconomic = "economic"
	NamespaceAI       = "ai"
	NamespaceNews     = "news"
	NamespaceChat     = "chat"
	NamespaceStock    = "stock"
	NamespaceChart    = "chart"
)

// DefaultNamespaceTTLs returns the built-in TTL per namespace
func DefaultNamespaceTTLs() map[string]time.Duration {
	return map[string]time.Duration{
		NamespaceEconomic: 24 * time.Hour,
		NamespaceAI:       12 * time.Hour,
		NamespaceNews:     6 * time.Hour,
		NamespaceChat:     time.Hour,
		NamespaceStock:    5 * time.Minute,
		NamespaceChart:    time.Hour,
	}
}

// Key joins a namespace and key parts: Key("stock", "AAPL") == "stock:AAPL"
func Key(namespace string, parts ...string) string {
	return namespace + ":" + strings.Join(parts, ":")
}

// Namespace returns the namespace prefix of key, or "" when it has none
func Namespace(key string) string {
	i := strings.Index(key, ":")
	if i <= 0 {
		return ""
	}
	return key[:i]
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithClock replaces time.Now, used for simulated time in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithNamespaceTTLs overrides namespace TTLs. Non-positive values are ignored.
func WithNamespaceTTLs(ttls map[string]time.Duration) Option {
	return func(s *Service) {
		for ns, ttl := range ttls {
			if ttl > 0 {
				s.ttls[ns] = ttl
			}
		}
	}
}

// Service is a mutex-guarded TTL cache
type Service struct {
	mu      sync.Mutex
	entries map[string]entry
	ttls    map[string]time.Duration
	hits    int64
	misses  int64

	now    func() time.Time
	group  singleflight.Group
	logger arbor.ILogger

	stopOnce sync.Once
	stop     chan struct{}
}

var _ interfaces.Cache = (*Service)(nil)

// NewService creates a new cache service.
func NewService(logger arbor.ILogger, opts ...Option) *Service {
	s := &Service{
		entries: make(map[string]entry),
		ttls:    DefaultNamespaceTTLs(),
		now:     time.Now,
		logger:  logger,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTLFor returns the default TTL for key's namespace
func (s *Service) TTLFor(key string) time.Duration {
	if ttl, ok := s.ttls[Namespace(key)]; ok {
		return ttl
	}
	return DefaultTTL
}

// Get returns the value for key if present and unexpired. Expired entries are removed.
func (s *Service) Get(key string) (any, bool) {
	ns := metricNamespace(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.misses++
		CacheMissesTotal.WithLabelValues(ns).Inc()
		return nil, false
	}

	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		s.misses++
		CacheMissesTotal.WithLabelValues(ns).Inc()
		CacheEvictionsTotal.Inc()
		return nil, false
	}

	s.hits++
	CacheHitsTotal.WithLabelValues(ns).Inc()
	return e.value, true
}

// peek reads without touching the hit/miss counters
func (s *Service) peek(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. A ttl <= 0 uses the namespace default.
func (s *Service) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.TTLFor(key)
	}

	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()

	CacheSetsTotal.WithLabelValues(metricNamespace(key)).Inc()
}

// Delete removes key and reports whether it was present
func (s *Service) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// Clear drops every entry and resets the hit/miss counters
func (s *Service) Clear() int {
	s.mu.Lock()
	count := len(s.entries)
	s.entries = make(map[string]entry)
	s.hits = 0
	s.misses = 0
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info().Int("count", count).Msg("Cache cleared")
	}
	return count
}

// Stats counts live entries per namespace and reports the hit rate
func (s *Service) Stats() models.CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stats := models.CacheStats{
		Hits:             s.hits,
		Misses:           s.misses,
		ItemsByNamespace: make(map[string]int),
	}

	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			continue
		}
		stats.TotalItems++
		stats.ItemsByNamespace[metricNamespace(key)]++
	}

	if total := s.hits + s.misses; total > 0 {
		rate := float64(s.hits) / float64(total) * 100
		stats.HitRate = math.Round(rate*100) / 100
	}

	return stats
}

// Sweep removes every expired entry and returns how many were removed
func (s *Service) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}

	if removed > 0 {
		CacheEvictionsTotal.Add(float64(removed))
	}
	return removed
}

// StartSweeper sweeps expired entries every interval until ctx is done or Close is called
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				if removed := s.Sweep(); removed > 0 && s.logger != nil {
					s.logger.Debug().Int("removed", removed).Msg("Cache sweep removed expired entries")
				}
			}
		}
	}()

	if s.logger != nil {
		s.logger.Debug().Dur("interval", interval).Msg("Cache sweeper started")
	}
}

// Close stops the sweeper. Safe to call more than once.
func (s *Service) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// GetOrLoad returns the cached value for key, or runs load once for all
// concurrent callers missing the same key and caches its result.
// Load errors are returned and nothing is cached. The load is detached from
// the caller's cancellation so one departing caller cannot fail the others;
// a cancelled caller stops waiting and gets ctx.Err().
func (s *Service) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		if v, ok := s.peek(key); ok {
			return v, nil
		}
		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		s.Set(key, v, ttl)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			CacheLoadsCoalescedTotal.Inc()
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetAs reads key and asserts its type, treating a type mismatch as a miss
func GetAs[T any](c interfaces.Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func metricNamespace(key string) string {
	if ns := Namespace(key); ns != "" {
		return ns
	}
	return otherNamespace
}
