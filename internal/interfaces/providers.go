package interfaces

import (
	"context"

	"github.com/ternarybob/marketpulse/internal/models"
)

// QuoteProvider returns the provider-shaped real-time quote payload for a symbol
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (map[string]any, error)
}

// HistoryProvider returns daily closes, oldest first
type HistoryProvider interface {
	GetHistory(ctx context.Context, symbol string, days int) ([]models.PricePoint, error)
}

// SymbolNewsProvider returns recent news tagged with a symbol
type SymbolNewsProvider interface {
	GetSymbolNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error)
}

// EconomicProvider returns the provider-shaped observations payload for a series
type EconomicProvider interface {
	GetSeries(ctx context.Context, seriesID string) (map[string]any, error)
}

// NewsSearcher runs a free-text news search
type NewsSearcher interface {
	SearchNews(ctx context.Context, query string, limit int) ([]models.NewsArticle, error)
}
