package interfaces

import (
	"context"

	"github.com/ternarybob/marketpulse/internal/models"
)

// Aggregator runs independent sources concurrently and waits for all of them
type Aggregator interface {
	SettleAll(ctx context.Context, sources ...models.Source) []models.SourceResult
}

// MarketData serves cached market aggregates
type MarketData interface {
	GetEconomicIndicators(ctx context.Context) (*models.EconomicIndicators, error)
	GetMarketIndices(ctx context.Context) (*models.MarketIndices, error)
	GetStockBundle(ctx context.Context, symbol string) (*models.StockBundle, error)

	// Refresh* bypass the cache read and write the fresh aggregate through
	RefreshEconomicIndicators(ctx context.Context) error
	RefreshMarketIndices(ctx context.Context) error
}
