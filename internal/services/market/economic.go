package market

import (
	"context"
	"time"

	"github.com/ternarybob/marketpulse/internal/clients/fred"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/aggregator"
	"github.com/ternarybob/marketpulse/internal/services/cache"
)

// EconomicKey is where the macro snapshot is cached
var EconomicKey = cache.Key(cache.NamespaceEconomic, "indicators")

func economicSource(series string) string {
	return fred.ProviderName + ":" + series
}

func (s *Service) economicRequest(refresh bool) aggregator.Request[*models.EconomicIndicators] {
	seriesSource := func(series string) models.Source {
		return models.Source{
			Name: economicSource(series),
			Fetch: func(ctx context.Context) (any, error) {
				if s.providers.Economic == nil {
					return nil, errNoProvider
				}
				return s.providers.Economic.GetSeries(ctx, series)
			},
		}
	}

	return aggregator.Request[*models.EconomicIndicators]{
		Name: "economic",
		Sources: []models.Source{
			seriesSource(fred.SeriesCPI),
			seriesSource(fred.SeriesFedFunds),
			seriesSource(fred.SeriesUnemployment),
		},
		Merge:   s.mergeEconomic,
		Cache:   s.cache,
		Key:     EconomicKey,
		Refresh: refresh,
	}
}

func (s *Service) mergeEconomic(results []models.SourceResult) *models.EconomicIndicators {
	indicator := func(series string) models.Indicator {
		r, ok := aggregator.Find(results, economicSource(series))
		out := models.Indicator{Source: sourceTag(r, ok, fred.ProviderName)}
		if out.Source == models.SourceUnavailable {
			return out
		}
		out.Value = aggregator.Number(r.Payload, "observations.0.value")
		out.Date = aggregator.String(r.Payload, "observations.0.date")
		return out
	}

	return &models.EconomicIndicators{
		CPI:              indicator(fred.SeriesCPI),
		InterestRate:     indicator(fred.SeriesFedFunds),
		UnemploymentRate: indicator(fred.SeriesUnemployment),
		UpdatedAt:        s.now().UTC().Truncate(time.Second),
	}
}
