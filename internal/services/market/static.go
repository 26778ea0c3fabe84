package market

import (
	"time"

	"github.com/ternarybob/marketpulse/internal/models"
)

// Static views served under the "fallback" policy. Every field is tagged
// so a consumer can tell them from live data. They are never cached.

func ptr(v float64) *float64 {
	return &v
}

func staticEconomic(now time.Time) *models.EconomicIndicators {
	return &models.EconomicIndicators{
		CPI:              models.Indicator{Value: ptr(310.3), Source: models.SourceFallback},
		InterestRate:     models.Indicator{Value: ptr(5.33), Source: models.SourceFallback},
		UnemploymentRate: models.Indicator{Value: ptr(3.9), Source: models.SourceFallback},
		UpdatedAt:        now.UTC().Truncate(time.Second),
	}
}

func staticIndices(now time.Time) *models.MarketIndices {
	return &models.MarketIndices{
		SP500:     models.IndexQuote{Value: ptr(5000), Change: ptr(0), ChangePercent: ptr(0), Source: models.SourceFallback},
		VIX:       models.IndexQuote{Value: ptr(15), Change: ptr(0), ChangePercent: ptr(0), Source: models.SourceFallback},
		UpdatedAt: now.UTC().Truncate(time.Second),
	}
}

func staticBundle(symbol string, now time.Time) *models.StockBundle {
	return &models.StockBundle{
		Symbol:     normalize(symbol),
		Quote:      models.StockQuote{Source: models.SourceFallback},
		News:       []models.NewsArticle{},
		NewsSource: models.SourceFallback,
		Evaluation: &models.StockEvaluation{
			Sentiment: models.SentimentNeutral,
			Summary:   "Market data is temporarily unavailable.",
			Source:    models.SourceFallback,
		},
		Technicals: models.Technicals{Source: models.SourceFallback},
		UpdatedAt:  now.UTC().Truncate(time.Second),
	}
}
