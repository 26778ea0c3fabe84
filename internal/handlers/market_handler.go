package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/services/market"
	"github.com/ternarybob/marketpulse/internal/services/validation"
)

// MarketHandler serves the market aggregates, symbol validation and sentiment
type MarketHandler struct {
	market    interfaces.MarketData
	sentiment interfaces.SentimentAnalyzer
	validator interfaces.Validator
	logger    arbor.ILogger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(
	marketData interfaces.MarketData,
	sentiment interfaces.SentimentAnalyzer,
	validator interfaces.Validator,
	logger arbor.ILogger,
) *MarketHandler {
	return &MarketHandler{
		market:    marketData,
		sentiment: sentiment,
		validator: validator,
		logger:    logger,
	}
}

// EconomicHandler returns the macro indicator snapshot
// GET /api/economic
func (h *MarketHandler) EconomicHandler(w http.ResponseWriter, r *http.Request) {
	indicators, err := h.market.GetEconomicIndicators(r.Context())
	if err != nil {
		h.writeAggregateError(w, "economic", err)
		return
	}
	WriteJSON(w, http.StatusOK, indicators)
}

// IndicesHandler returns the S&P 500 and VIX view
// GET /api/indices
func (h *MarketHandler) IndicesHandler(w http.ResponseWriter, r *http.Request) {
	indices, err := h.market.GetMarketIndices(r.Context())
	if err != nil {
		h.writeAggregateError(w, "indices", err)
		return
	}
	WriteJSON(w, http.StatusOK, indices)
}

// StockHandler returns the per-symbol bundle for a valid symbol
// GET /api/stocks/{symbol}
func (h *MarketHandler) StockHandler(w http.ResponseWriter, r *http.Request) {
	symbol := validation.Normalize(chi.URLParam(r, "symbol"))

	result := h.validator.Validate(r.Context(), symbol)
	if !result.IsValid {
		WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status":      "error",
			"error":       result.Reason,
			"validation":  result,
			"suggestions": h.validator.Suggestions(symbol),
		})
		return
	}

	bundle, err := h.market.GetStockBundle(r.Context(), symbol)
	if err != nil {
		h.writeAggregateError(w, "stock", err)
		return
	}
	WriteJSON(w, http.StatusOK, bundle)
}

// ValidateHandler reports whether a symbol is valid and how that was decided
// GET /api/stocks/{symbol}/validate
func (h *MarketHandler) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	result := h.validator.Validate(r.Context(), symbol)

	response := map[string]interface{}{
		"validation": result,
	}
	if !result.IsValid {
		response["suggestions"] = h.validator.Suggestions(symbol)
	}
	WriteJSON(w, http.StatusOK, response)
}

type sentimentRequest struct {
	Text string `json:"text"`
}

// SentimentHandler classifies free text
// POST /api/sentiment {"text": "..."}
func (h *MarketHandler) SentimentHandler(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.sentiment.AnalyzeSentiment(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, market.ErrEmptyText) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("Sentiment analysis failed")
		WriteError(w, http.StatusInternalServerError, "sentiment analysis failed")
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (h *MarketHandler) writeAggregateError(w http.ResponseWriter, aggregate string, err error) {
	if errors.Is(err, market.ErrEssentialDataMissing) {
		h.logger.Warn().Err(err).Str("aggregate", aggregate).Msg("Essential data unavailable")
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	h.logger.Error().Err(err).Str("aggregate", aggregate).Msg("Aggregate request failed")
	WriteError(w, http.StatusInternalServerError, "failed to load "+aggregate+" data")
}
