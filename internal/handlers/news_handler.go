package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/services/news"
)

// NewsHandler exposes the daily news pipeline
type NewsHandler struct {
	pipeline interfaces.NewsPipeline
	logger   arbor.ILogger
}

// NewNewsHandler creates a new news handler
func NewNewsHandler(pipeline interfaces.NewsPipeline, logger arbor.ILogger) *NewsHandler {
	return &NewsHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// NewsHandler returns today's news decision for a symbol.
// An invalid symbol is a 400 carrying suggestions; a pipeline failure is a 500.
// GET /api/stocks/{symbol}/news
func (h *NewsHandler) NewsHandler(w http.ResponseWriter, r *http.Request) {
	decision := h.pipeline.Process(r.Context(), chi.URLParam(r, "symbol"))

	status := http.StatusOK
	switch {
	case decision.IsValid:
	case decision.Error == news.ErrInternal:
		status = http.StatusInternalServerError
	default:
		status = http.StatusBadRequest
	}

	WriteJSON(w, status, decision)
}
