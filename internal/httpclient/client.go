// Package httpclient holds the JSON-over-HTTP plumbing shared by the
// upstream provider clients.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single upstream request
const DefaultTimeout = 10 * time.Second

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// NewLimiter returns a token bucket allowing requestsPerSecond with an equal burst
func NewLimiter(requestsPerSecond int) *rate.Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
}

// APIError is a non-200 response from an upstream provider
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %s (status: %d, endpoint: %s)", e.Provider, e.Message, e.StatusCode, e.Endpoint)
}

// JSONGetter performs rate-limited GET requests and decodes JSON bodies
type JSONGetter struct {
	Provider   string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     arbor.ILogger
}

// Get requests baseURL+path with params and decodes the body into result.
// Secrets in params are never logged.
func (g *JSONGetter) Get(ctx context.Context, baseURL, path string, params url.Values, result interface{}) error {
	if g.Limiter != nil {
		if err := g.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s rate limiter: %w", g.Provider, err)
		}
	}

	reqURL := baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if g.Logger != nil {
		g.Logger.Debug().Str("provider", g.Provider).Str("url", baseURL+path).Msg("Upstream request")
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			Provider:   g.Provider,
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", g.Provider, err)
	}
	return nil
}
