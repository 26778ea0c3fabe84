package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
)

// StatusHandler reports liveness, version and configured AI tiers
type StatusHandler struct {
	providers interfaces.ProviderReporter
	startedAt time.Time
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(providers interfaces.ProviderReporter) *StatusHandler {
	return &StatusHandler{
		providers: providers,
		startedAt: time.Now(),
	}
}

// HealthHandler returns 200 while the process is serving
// GET /api/health
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),

		"backgroundTasks": common.GetGoroutineCount(),
	}
	if h.providers != nil {
		response["aiProviders"] = h.providers.Providers()
	}
	WriteJSON(w, http.StatusOK, response)
}
