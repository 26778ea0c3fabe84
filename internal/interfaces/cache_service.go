package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/marketpulse/internal/models"
)

// Cache is a namespaced TTL key/value cache. A ttl <= 0 selects the
// default for the key's namespace prefix (e.g. "economic:").
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string) bool
	Clear() int
	Stats() models.CacheStats

	// GetOrLoad returns the cached value or runs load once per key, even for concurrent callers
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(ctx context.Context) (any, error)) (any, error)
}
