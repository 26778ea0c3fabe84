package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/aggregator"
	"github.com/ternarybob/marketpulse/internal/services/cache"
	"github.com/ternarybob/marketpulse/internal/services/market"
	"github.com/ternarybob/marketpulse/internal/services/news"
)

// mockMarketData implements interfaces.MarketData for testing
type mockMarketData struct {
	economicFunc func(ctx context.Context) (*models.EconomicIndicators, error)
	indicesFunc  func(ctx context.Context) (*models.MarketIndices, error)
	bundleFunc   func(ctx context.Context, symbol string) (*models.StockBundle, error)
}

func (m *mockMarketData) GetEconomicIndicators(ctx context.Context) (*models.EconomicIndicators, error) {
	if m.economicFunc != nil {
		return m.economicFunc(ctx)
	}
	return &models.EconomicIndicators{}, nil
}

func (m *mockMarketData) GetMarketIndices(ctx context.Context) (*models.MarketIndices, error) {
	if m.indicesFunc != nil {
		return m.indicesFunc(ctx)
	}
	return &models.MarketIndices{}, nil
}

func (m *mockMarketData) GetStockBundle(ctx context.Context, symbol string) (*models.StockBundle, error) {
	if m.bundleFunc != nil {
		return m.bundleFunc(ctx, symbol)
	}
	return &models.StockBundle{Symbol: symbol}, nil
}

func (m *mockMarketData) RefreshEconomicIndicators(ctx context.Context) error { return nil }
func (m *mockMarketData) RefreshMarketIndices(ctx context.Context) error      { return nil }

// mockValidator accepts only the symbols in valid
type mockValidator struct {
	valid map[string]bool
}

func (m *mockValidator) Validate(ctx context.Context, symbol string) models.ValidationResult {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if m.valid[sym] {
		return models.ValidationResult{Symbol: sym, IsValid: true, Method: models.ValidationMethodKnownList}
	}
	return models.ValidationResult{Symbol: sym, IsValid: false, Method: models.ValidationMethodFormat, Reason: "unknown symbol"}
}

func (m *mockValidator) Suggestions(symbol string) []string {
	return []string{"AAPL"}
}

type mockSentiment struct {
	result *models.SentimentResult
	err    error
}

func (m *mockSentiment) AnalyzeSentiment(ctx context.Context, text string) (*models.SentimentResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, market.ErrEmptyText
	}
	return m.result, m.err
}

type mockPipeline struct {
	decision *models.NewsDecision
}

func (m *mockPipeline) Process(ctx context.Context, symbol string) *models.NewsDecision {
	return m.decision
}

type mockScheduler struct {
	status models.SchedulerStatus
	result models.ForceUpdateResult
	forced int
}

func (m *mockScheduler) Start() {}
func (m *mockScheduler) Stop()  {}
func (m *mockScheduler) ForceUpdate(ctx context.Context) models.ForceUpdateResult {
	m.forced++
	return m.result
}
func (m *mockScheduler) Status() models.SchedulerStatus { return m.status }

func newMarketRouter(h *MarketHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/economic", h.EconomicHandler)
	r.Get("/api/indices", h.IndicesHandler)
	r.Get("/api/stocks/{symbol}", h.StockHandler)
	r.Get("/api/stocks/{symbol}/validate", h.ValidateHandler)
	r.Post("/api/sentiment", h.SentimentHandler)
	return r
}

func serve(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestMarketHandler_Economic(t *testing.T) {
	value := 3.9
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "ok", wantStatus: http.StatusOK},
		{name: "essential data missing", err: fmt.Errorf("economic: %w: %w", market.ErrEssentialDataMissing, aggregator.ErrAllSourcesFailed), wantStatus: http.StatusServiceUnavailable},
		{name: "unexpected error", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := &mockMarketData{
				economicFunc: func(ctx context.Context) (*models.EconomicIndicators, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &models.EconomicIndicators{
						UnemploymentRate: models.Indicator{Value: &value, Source: "fred:UNRATE"},
					}, nil
				},
			}
			h := NewMarketHandler(data, &mockSentiment{}, &mockValidator{}, arbor.NewLogger())

			w := serve(newMarketRouter(h), http.MethodGet, "/api/economic", "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			body := decode(t, w)
			if tt.err == nil {
				rate := body["unemploymentRate"].(map[string]interface{})
				assert.Equal(t, 3.9, rate["value"])
				assert.Equal(t, "fred:UNRATE", rate["source"])
			} else {
				assert.Equal(t, "error", body["status"])
			}
		})
	}
}

func TestMarketHandler_Stock(t *testing.T) {
	var requested string
	data := &mockMarketData{
		bundleFunc: func(ctx context.Context, symbol string) (*models.StockBundle, error) {
			requested = symbol
			return &models.StockBundle{Symbol: symbol, UpdatedAt: time.Now()}, nil
		},
	}
	h := NewMarketHandler(data, &mockSentiment{}, &mockValidator{valid: map[string]bool{"AAPL": true}}, arbor.NewLogger())
	router := newMarketRouter(h)

	t.Run("valid symbol is normalised", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/stocks/aapl", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "AAPL", requested)
		assert.Equal(t, "AAPL", decode(t, w)["symbol"])
	})

	t.Run("invalid symbol returns suggestions", func(t *testing.T) {
		requested = ""
		w := serve(router, http.MethodGet, "/api/stocks/ZZZZ", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, requested, "bundle must not be fetched for an invalid symbol")

		body := decode(t, w)
		assert.Equal(t, "unknown symbol", body["error"])
		assert.Equal(t, []interface{}{"AAPL"}, body["suggestions"])
	})
}

func TestMarketHandler_Validate(t *testing.T) {
	h := NewMarketHandler(&mockMarketData{}, &mockSentiment{}, &mockValidator{valid: map[string]bool{"MSFT": true}}, arbor.NewLogger())
	router := newMarketRouter(h)

	w := serve(router, http.MethodGet, "/api/stocks/MSFT/validate", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	validation := body["validation"].(map[string]interface{})
	assert.Equal(t, true, validation["isValid"])
	assert.Equal(t, "known_list", validation["method"])
	assert.NotContains(t, body, "suggestions")

	w = serve(router, http.MethodGet, "/api/stocks/NOPE/validate", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, false, body["validation"].(map[string]interface{})["isValid"])
	assert.Contains(t, body, "suggestions")
}

func TestMarketHandler_Sentiment(t *testing.T) {
	analyzer := &mockSentiment{result: &models.SentimentResult{Sentiment: "positive", Source: "heuristic"}}
	h := NewMarketHandler(&mockMarketData{}, analyzer, &mockValidator{}, arbor.NewLogger())
	router := newMarketRouter(h)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "classified", body: `{"text":"record profit"}`, wantStatus: http.StatusOK},
		{name: "empty text", body: `{"text":"  "}`, wantStatus: http.StatusBadRequest},
		{name: "malformed body", body: `{"text":`, wantStatus: http.StatusBadRequest},
		{name: "missing body", body: "", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, http.MethodPost, "/api/sentiment", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "positive", decode(t, w)["sentiment"])
			}
		})
	}
}

func TestNewsHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		decision   *models.NewsDecision
		wantStatus int
	}{
		{name: "valid", decision: &models.NewsDecision{IsValid: true, Symbol: "AAPL"}, wantStatus: http.StatusOK},
		{name: "invalid symbol", decision: &models.NewsDecision{IsValid: false, Error: "unknown symbol"}, wantStatus: http.StatusBadRequest},
		{name: "internal failure", decision: &models.NewsDecision{IsValid: false, Error: news.ErrInternal}, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewNewsHandler(&mockPipeline{decision: tt.decision}, arbor.NewLogger())
			r := chi.NewRouter()
			r.Get("/api/stocks/{symbol}/news", h.NewsHandler)

			w := serve(r, http.MethodGet, "/api/stocks/AAPL/news", "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.decision.IsValid, decode(t, w)["isValid"])
		})
	}
}

func TestSchedulerHandler(t *testing.T) {
	sched := &mockScheduler{
		status: models.SchedulerStatus{IsRunning: true, IsProduction: true},
		result: models.ForceUpdateResult{Jobs: []models.JobOutcome{
			{Job: "economic", Success: true},
			{Job: "market", Success: false, Error: "all sources failed"},
		}},
	}
	h := NewSchedulerHandler(sched, arbor.NewLogger())

	w := serve(http.HandlerFunc(h.StatusHandler), http.MethodGet, "/api/scheduler/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["isRunning"])

	w = serve(http.HandlerFunc(h.ForceUpdateHandler), http.MethodPost, "/api/scheduler/force", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, sched.forced)
	jobs := decode(t, w)["jobs"].([]interface{})
	assert.Len(t, jobs, 2)
}

func TestCacheHandler(t *testing.T) {
	logger := arbor.NewLogger()
	c := cache.NewService(logger)
	defer c.Close()

	c.Set("stock:AAPL", "bundle", time.Minute)
	c.Set("economic:indicators", "snapshot", time.Minute)

	h := NewCacheHandler(c, logger)
	r := chi.NewRouter()
	r.Get("/api/cache/stats", h.StatsHandler)
	r.Delete("/api/cache", h.ClearHandler)
	r.Delete("/api/cache/{key}", h.DeleteHandler)

	w := serve(r, http.MethodGet, "/api/cache/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["totalItems"])

	w = serve(r, http.MethodDelete, "/api/cache/stock:AAPL", "")
	assert.Equal(t, http.StatusOK, w.Code)
	_, ok := c.Get("stock:AAPL")
	assert.False(t, ok)

	w = serve(r, http.MethodDelete, "/api/cache/stock:AAPL", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodDelete, "/api/cache", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["removed"])
	assert.Equal(t, 0, c.Stats().TotalItems)
}

type staticProviders map[string]bool

func (p staticProviders) Providers() map[string]bool { return p }

func TestStatusHandler_Health(t *testing.T) {
	h := NewStatusHandler(staticProviders{"gemini": false, "claude": true, "heuristic": true})

	w := serve(http.HandlerFunc(h.HealthHandler), http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	providers := body["aiProviders"].(map[string]interface{})
	assert.Equal(t, true, providers["heuristic"])
	assert.Equal(t, false, providers["gemini"])
}
