package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/interfaces"
)

// SchedulerHandler handles scheduler-related endpoints
type SchedulerHandler struct {
	scheduler interfaces.RefreshScheduler
	logger    arbor.ILogger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(scheduler interfaces.RefreshScheduler, logger arbor.ILogger) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

// StatusHandler reports the live scheduler state
// GET /api/scheduler/status
func (h *SchedulerHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.scheduler.Status())
}

// ForceUpdateHandler runs every refresh job now and waits for them to settle.
// Individual job failures are reported in the body, not as an HTTP error.
// POST /api/scheduler/force
func (h *SchedulerHandler) ForceUpdateHandler(w http.ResponseWriter, r *http.Request) {
	result := h.scheduler.ForceUpdate(r.Context())

	failed := 0
	for _, job := range result.Jobs {
		if !job.Success {
			failed++
		}
	}
	h.logger.Info().Int("jobs", len(result.Jobs)).Int("failed", failed).Msg("Forced update completed")

	WriteJSON(w, http.StatusOK, result)
}
