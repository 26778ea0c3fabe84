package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/interfaces"
)

// CacheHandler exposes cache statistics and invalidation
type CacheHandler struct {
	cache  interfaces.Cache
	logger arbor.ILogger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(cache interfaces.Cache, logger arbor.ILogger) *CacheHandler {
	return &CacheHandler{
		cache:  cache,
		logger: logger,
	}
}

// StatsHandler returns hit/miss counters and per-namespace item counts
// GET /api/cache/stats
func (h *CacheHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.cache.Stats())
}

// ClearHandler drops every entry
// DELETE /api/cache
func (h *CacheHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	removed := h.cache.Clear()
	h.logger.Info().Int("removed", removed).Msg("Cache cleared")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"removed": removed,
	})
}

// DeleteHandler drops a single key
// DELETE /api/cache/{key}
func (h *CacheHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		WriteError(w, http.StatusBadRequest, "cache key is required")
		return
	}

	if !h.cache.Delete(key) {
		WriteError(w, http.StatusNotFound, "cache key not found")
		return
	}
	WriteSuccess(w, "deleted "+key)
}
