// Package serp searches Google News through SerpAPI.
package serp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/httpclient"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

const (
	// DefaultBaseURL is the SerpAPI root
	DefaultBaseURL = "https://serpapi.com"

	// ProviderName tags articles sourced from SerpAPI
	ProviderName = "serp"
)

var _ interfaces.NewsSearcher = (*Client)(nil)

type searchResponse struct {
	Error       string       `json:"error"`
	NewsResults []newsResult `json:"news_results"`
}

type newsResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
	Source  any    `json:"source"`
	// Top stories nest their articles
	Stories []newsResult `json:"stories"`
}

// Client runs google_news searches
type Client struct {
	baseURL string
	apiKey  string
	getter  *httpclient.JSONGetter
}

// NewClient creates a SerpAPI client. httpClient may be nil.
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

// SearchNews returns at most limit articles for query, in provider order
func (c *Client) SearchNews(ctx context.Context, query string, limit int) ([]models.NewsArticle, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("SerpAPI key not configured")
	}

	params := url.Values{}
	params.Set("engine", "google_news")
	params.Set("q", query)
	params.Set("api_key", c.apiKey)

	var resp searchResponse
	if err := c.getter.Get(ctx, c.baseURL, "/search.json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("serp search %q: %s", query, resp.Error)
	}

	var articles []models.NewsArticle
	var add func(results []newsResult)
	add = func(results []newsResult) {
		for _, r := range results {
			if limit > 0 && len(articles) >= limit {
				return
			}
			if len(r.Stories) > 0 {
				add(r.Stories)
				continue
			}
			if strings.TrimSpace(r.Title) == "" || r.Link == "" {
				continue
			}
			articles = append(articles, models.NewsArticle{
				Title:   strings.TrimSpace(r.Title),
				Link:    r.Link,
				Snippet: cleanText(r.Snippet),
				Date:    r.Date,
				Source:  sourceName(r.Source),
			})
		}
	}
	add(resp.NewsResults)

	return articles, nil
}

// sourceName handles both the object and the plain string source shapes
func sourceName(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case map[string]any:
		if name, ok := s["name"].(string); ok {
			return name
		}
	}
	return ProviderName
}

func cleanText(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
