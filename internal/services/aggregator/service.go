// Package aggregator fans out independent upstream calls, waits for all of
// them to settle, and merges whatever succeeded.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// DefaultTimeout bounds each individual source call.
const DefaultTimeout = 10 * time.Second

var (
	// ErrAllSourcesFailed is returned when no source in an aggregate succeeded.
	ErrAllSourcesFailed = errors.New("all sources failed")

	// ErrSourceTimeout marks a source that did not settle within its timeout.
	ErrSourceTimeout = errors.New("source timed out")
)

// Service runs sources with settle-all semantics
type Service struct {
	timeout time.Duration
	logger  arbor.ILogger
}

var _ interfaces.Aggregator = (*Service)(nil)

// NewService creates an aggregator. A non-positive timeout uses DefaultTimeout.
func NewService(logger arbor.ILogger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		timeout: timeout,
		logger:  logger,
	}
}

// SettleAll starts every source before awaiting any of them and returns one
// result per source, in the order given. A failing, panicking or slow source
// never affects the others.
func (s *Service) SettleAll(ctx context.Context, sources ...models.Source) []models.SourceResult {
	results := make([]models.SourceResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src models.Source) {
			defer wg.Done()
			results[i] = s.run(ctx, src)
		}(i, src)
	}
	wg.Wait()

	return results
}

type fetchResult struct {
	payload any
	err     error
	outcome string
}

func (s *Service) run(ctx context.Context, src models.Source) models.SourceResult {
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Buffered so an abandoned call can still finish and exit
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: common.PanicError(s.logger, "source:"+src.Name, r), outcome: "panic"}
			}
		}()
		payload, err := src.Fetch(callCtx)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		done <- fetchResult{payload: payload, err: err, outcome: outcome}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = fetchResult{err: fmt.Errorf("%s: %w", src.Name, ErrSourceTimeout), outcome: "timeout"}
	}

	elapsed := time.Since(start)
	SourceCallsTotal.WithLabelValues(src.Name, res.outcome).Inc()
	SourceDurationSeconds.WithLabelValues(src.Name).Observe(elapsed.Seconds())

	if res.err != nil && s.logger != nil {
		s.logger.Warn().
			Str("source", src.Name).
			Str("outcome", res.outcome).
			Dur("duration", elapsed).
			Err(res.err).
			Msg("Source failed")
	}

	return models.SourceResult{
		Name:     src.Name,
		Payload:  res.payload,
		Err:      res.err,
		Duration: elapsed,
	}
}

// Request describes one aggregate: its sources, how to merge them, and where to cache the result.
type Request[T any] struct {
	Name    string
	Sources []models.Source
	Merge   func(results []models.SourceResult) T

	// Cache, Key and TTL enable cache-first reads and write-through. A nil
	// Cache or empty Key disables caching; TTL <= 0 uses the namespace default.
	Cache interfaces.Cache
	Key   string
	TTL   time.Duration

	// Refresh skips the cache read but still writes through.
	Refresh bool
}

// FetchAggregate consults the cache, and on a miss settles every source,
// merges the results and writes the aggregate through to the cache.
// Concurrent misses for the same key share one fetch. It returns
// ErrAllSourcesFailed, without caching, only when no source succeeded.
func FetchAggregate[T any](ctx context.Context, s *Service, req Request[T]) (T, error) {
	var zero T

	load := func(ctx context.Context) (any, error) {
		return fetch(ctx, s, req)
	}

	if req.Cache == nil || req.Key == "" {
		v, err := fetch(ctx, s, req)
		return v, err
	}

	if req.Refresh {
		v, err := fetch(ctx, s, req)
		if err != nil {
			return zero, err
		}
		req.Cache.Set(req.Key, v, req.TTL)
		return v, nil
	}

	v, err := req.Cache.GetOrLoad(ctx, req.Key, req.TTL, load)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		// A foreign value under our key; refetch rather than fail the caller
		fresh, err := fetch(ctx, s, req)
		if err != nil {
			return zero, err
		}
		req.Cache.Set(req.Key, fresh, req.TTL)
		return fresh, nil
	}
	return typed, nil
}

func fetch[T any](ctx context.Context, s *Service, req Request[T]) (T, error) {
	var zero T

	results := s.SettleAll(ctx, req.Sources...)

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}

	switch {
	case len(results) > 0 && len(errs) == len(results):
		AggregatesTotal.WithLabelValues(req.Name, "failed").Inc()
		if s.logger != nil {
			s.logger.Error().Str("aggregate", req.Name).Int("sources", len(results)).Msg("Every source failed")
		}
		return zero, fmt.Errorf("%s: %w: %w", req.Name, ErrAllSourcesFailed, errors.Join(errs...))
	case len(errs) > 0:
		AggregatesTotal.WithLabelValues(req.Name, "partial").Inc()
		if s.logger != nil {
			s.logger.Info().Str("aggregate", req.Name).Int("failed", len(errs)).Int("sources", len(results)).Msg("Aggregate merged with partial data")
		}
	default:
		AggregatesTotal.WithLabelValues(req.Name, "complete").Inc()
	}

	return req.Merge(results), nil
}

// Find returns the result for the named source
func Find(results []models.SourceResult, name string) (models.SourceResult, bool) {
	for _, r := range results {
		if r.Name == name {
			return r, true
		}
	}
	return models.SourceResult{}, false
}
