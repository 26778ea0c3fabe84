package models

// CacheStats is a point-in-time view of the TTL cache
type CacheStats struct {
	TotalItems       int            `json:"totalItems"`
	Hits             int64          `json:"hits"`
	Misses           int64          `json:"misses"`
	HitRate          float64        `json:"hitRate"` // percentage of lookups that hit, 0 when there were none
	ItemsByNamespace map[string]int `json:"itemsByNamespace"`
}
