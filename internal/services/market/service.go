// Package market builds the economic, index and per-symbol aggregates
// served to clients, on top of the settle-all aggregator and the TTL cache.
package market

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/aggregator"
	"github.com/ternarybob/marketpulse/internal/services/cache"
)

// ErrEssentialDataMissing is returned under the "fail" policy when an
// aggregate could not be built from any source.
var ErrEssentialDataMissing = errors.New("essential market data unavailable")

// Providers groups the upstream clients. Any of them may be nil, in which
// case the sources that need it fail and are reported as unavailable.
type Providers struct {
	Quotes   interfaces.QuoteProvider
	History  interfaces.HistoryProvider
	News     interfaces.SymbolNewsProvider
	Economic interfaces.EconomicProvider
}

// Service implements interfaces.MarketData
type Service struct {
	agg           *aggregator.Service
	cache         interfaces.Cache
	providers     Providers
	ai            interfaces.ResponseGenerator
	failOnMissing bool
	logger        arbor.ILogger
	now           func() time.Time
}

var _ interfaces.MarketData = (*Service)(nil)

// NewService creates the market data service. failOnMissing selects the
// "fail" policy for essential data; otherwise a static fallback is served.
func NewService(agg *aggregator.Service, c interfaces.Cache, providers Providers, ai interfaces.ResponseGenerator, failOnMissing bool, logger arbor.ILogger) *Service {
	return &Service{
		agg:           agg,
		cache:         c,
		providers:     providers,
		ai:            ai,
		failOnMissing: failOnMissing,
		logger:        logger,
		now:           time.Now,
	}
}

// GetEconomicIndicators returns the cached macro snapshot, fetching it on a miss
func (s *Service) GetEconomicIndicators(ctx context.Context) (*models.EconomicIndicators, error) {
	v, err := aggregator.FetchAggregate(ctx, s.agg, s.economicRequest(false))
	if err != nil {
		return s.missingEconomic(err)
	}
	return v, nil
}

// RefreshEconomicIndicators refetches the macro snapshot and writes it through
func (s *Service) RefreshEconomicIndicators(ctx context.Context) error {
	_, err := aggregator.FetchAggregate(ctx, s.agg, s.economicRequest(true))
	return err
}

// GetMarketIndices returns the cached index snapshot, fetching it on a miss
func (s *Service) GetMarketIndices(ctx context.Context) (*models.MarketIndices, error) {
	v, err := aggregator.FetchAggregate(ctx, s.agg, s.indicesRequest(false))
	if err != nil {
		return s.missingIndices(err)
	}
	return v, nil
}

// RefreshMarketIndices refetches the index snapshot and writes it through
func (s *Service) RefreshMarketIndices(ctx context.Context) error {
	_, err := aggregator.FetchAggregate(ctx, s.agg, s.indicesRequest(true))
	return err
}

// GetStockBundle returns quote, news, evaluation and technicals for a symbol.
// A bundle is only an error when every one of its sources failed.
func (s *Service) GetStockBundle(ctx context.Context, symbol string) (*models.StockBundle, error) {
	v, err := aggregator.FetchAggregate(ctx, s.agg, s.bundleRequest(symbol))
	if err != nil {
		if s.failOnMissing {
			return nil, fmt.Errorf("stock %s: %w: %w", symbol, ErrEssentialDataMissing, err)
		}
		s.logger.Warn().Str("symbol", symbol).Err(err).Msg("Serving fallback stock bundle")
		return staticBundle(symbol, s.now()), nil
	}
	return v, nil
}

func (s *Service) missingEconomic(err error) (*models.EconomicIndicators, error) {
	if s.failOnMissing {
		return nil, fmt.Errorf("economic indicators: %w: %w", ErrEssentialDataMissing, err)
	}
	s.logger.Warn().Err(err).Msg("Serving fallback economic indicators")
	return staticEconomic(s.now()), nil
}

func (s *Service) missingIndices(err error) (*models.MarketIndices, error) {
	if s.failOnMissing {
		return nil, fmt.Errorf("market indices: %w: %w", ErrEssentialDataMissing, err)
	}
	s.logger.Warn().Err(err).Msg("Serving fallback market indices")
	return staticIndices(s.now()), nil
}

// sourceTag is the provider name for a successful result, else unavailable
func sourceTag(r models.SourceResult, ok bool, provider string) string {
	if !ok || !r.OK() {
		return models.SourceUnavailable
	}
	return provider
}

// cached wraps a provider call in the cache so sources shared between
// aggregates hit the upstream once per TTL.
func cached[T any](ctx context.Context, c interfaces.Cache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.GetOrLoad(ctx, key, 0, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		c.Delete(key)
		return load(ctx)
	}
	return typed, nil
}

var errNoProvider = errors.New("provider not configured")

func chartKey(symbol string, days int) string {
	return cache.Key(cache.NamespaceChart, symbol, strconv.Itoa(days))
}
