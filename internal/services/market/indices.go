package market

import (
	"context"
	"time"

	"github.com/ternarybob/marketpulse/internal/eodhd"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/aggregator"
	"github.com/ternarybob/marketpulse/internal/services/cache"
)

const (
	SymbolSP500 = "GSPC.INDX"
	SymbolVIX   = "VIX.INDX"

	// SparklineDays is the calendar window of the S&P 500 sparkline
	SparklineDays = 30
)

// IndicesKey is where the index snapshot is cached
var IndicesKey = cache.Key(cache.NamespaceStock, "indices")

const sourceSparkline = "chart:" + SymbolSP500

func quoteSource(symbol string) string {
	return eodhd.ProviderName + ":" + symbol
}

func (s *Service) quoteFetcher(symbol string) models.Source {
	return models.Source{
		Name: quoteSource(symbol),
		Fetch: func(ctx context.Context) (any, error) {
			if s.providers.Quotes == nil {
				return nil, errNoProvider
			}
			return s.providers.Quotes.GetQuote(ctx, symbol)
		},
	}
}

// history loads daily closes through the chart namespace
func (s *Service) history(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	if s.providers.History == nil {
		return nil, errNoProvider
	}
	return cached(ctx, s.cache, chartKey(symbol, days), func(ctx context.Context) ([]models.PricePoint, error) {
		return s.providers.History.GetHistory(ctx, symbol, days)
	})
}

func (s *Service) indicesRequest(refresh bool) aggregator.Request[*models.MarketIndices] {
	return aggregator.Request[*models.MarketIndices]{
		Name: "indices",
		Sources: []models.Source{
			s.quoteFetcher(SymbolSP500),
			s.quoteFetcher(SymbolVIX),
			{
				Name: sourceSparkline,
				Fetch: func(ctx context.Context) (any, error) {
					return s.history(ctx, SymbolSP500, SparklineDays)
				},
			},
		},
		Merge:   s.mergeIndices,
		Cache:   s.cache,
		Key:     IndicesKey,
		Refresh: refresh,
	}
}

func (s *Service) mergeIndices(results []models.SourceResult) *models.MarketIndices {
	sp500 := indexQuote(results, SymbolSP500)
	if r, ok := aggregator.Find(results, sourceSparkline); ok && r.OK() {
		if points, ok := r.Payload.([]models.PricePoint); ok {
			sp500.Sparkline = closes(points)
		}
	}

	return &models.MarketIndices{
		SP500:     sp500,
		VIX:       indexQuote(results, SymbolVIX),
		UpdatedAt: s.now().UTC().Truncate(time.Second),
	}
}

func indexQuote(results []models.SourceResult, symbol string) models.IndexQuote {
	r, ok := aggregator.Find(results, quoteSource(symbol))
	out := models.IndexQuote{Source: sourceTag(r, ok, eodhd.ProviderName)}
	if out.Source == models.SourceUnavailable {
		return out
	}
	out.Value = aggregator.Number(r.Payload, "close", "price", "previousClose")
	out.Change = aggregator.Number(r.Payload, "change")
	out.ChangePercent = aggregator.Number(r.Payload, "change_p", "changePercent")
	return out
}

func closes(points []models.PricePoint) []float64 {
	out := make([]float64, 0, len(points))
	for _, p := range points {
		out = append(out, p.Close)
	}
	return out
}
