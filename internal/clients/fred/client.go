// Package fred is a thin client for the St. Louis Fed FRED series API.
package fred

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/httpclient"
	"github.com/ternarybob/marketpulse/internal/interfaces"
)

const (
	// DefaultBaseURL is the FRED API root
	DefaultBaseURL = "https://api.stlouisfed.org/fred"

	// ProviderName tags data sourced from FRED
	ProviderName = "fred"

	SeriesCPI          = "CPIAUCSL"
	SeriesFedFunds     = "FEDFUNDS"
	SeriesUnemployment = "UNRATE"
)

var _ interfaces.EconomicProvider = (*Client)(nil)

// Client fetches the latest observation of a FRED series
type Client struct {
	baseURL string
	apiKey  string
	getter  *httpclient.JSONGetter
}

// NewClient creates a FRED client. httpClient may be nil.
func NewClient(apiKey, baseURL string, rateLimit int, httpClient *http.Client, logger arbor.ILogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = httpclient.NewDefaultHTTPClient(httpclient.DefaultTimeout)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		getter: &httpclient.JSONGetter{
			Provider:   ProviderName,
			HTTPClient: httpClient,
			Limiter:    httpclient.NewLimiter(rateLimit),
			Logger:     logger,
		},
	}
}

// GetSeries returns the raw observations payload, newest observation first.
// The latest value is at observations.0.value.
func (c *Client) GetSeries(ctx context.Context, seriesID string) (map[string]any, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("FRED API key not configured")
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", "1")

	var result map[string]any
	if err := c.getter.Get(ctx, c.baseURL, "/series/observations", params, &result); err != nil {
		return nil, fmt.Errorf("series %s: %w", seriesID, err)
	}
	return result, nil
}
