package eodhd

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// ProviderName tags data sourced from EODHD.
const ProviderName = "eodhd"

var (
	_ interfaces.QuoteProvider      = (*Client)(nil)
	_ interfaces.HistoryProvider    = (*Client)(nil)
	_ interfaces.SymbolNewsProvider = (*Client)(nil)
)

// QualifySymbol appends the default exchange to bare tickers: AAPL -> AAPL.US
func QualifySymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + "." + DefaultExchange
}

// GetQuote returns the raw real-time payload for a ticker or index
func (c *Client) GetQuote(ctx context.Context, symbol string) (map[string]any, error) {
	return c.GetRealTimeQuote(ctx, QualifySymbol(symbol))
}

// GetHistory returns roughly the last `days` calendar days of daily closes, oldest first
func (c *Client) GetHistory(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	to := c.now()
	from := to.AddDate(0, 0, -days)

	eod, err := c.GetEOD(ctx, QualifySymbol(symbol), WithDateRange(from, to), WithOrder("a"))
	if err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(eod))
	for _, d := range eod {
		closePrice := d.AdjustedClose
		if closePrice == 0 {
			closePrice = d.Close
		}
		if closePrice <= 0 {
			continue
		}
		points = append(points, models.PricePoint{
			Date:   d.DateStr,
			Close:  closePrice,
			Volume: d.Volume,
		})
	}
	return points, nil
}

// GetSymbolNews returns recent news for a ticker as normalized articles
func (c *Client) GetSymbolNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	items, err := c.GetNews(ctx, []string{QualifySymbol(symbol)}, WithLimit(limit))
	if err != nil {
		return nil, err
	}

	articles := make([]models.NewsArticle, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		date := item.DateStr
		if !item.Date.IsZero() {
			date = item.Date.UTC().Format(time.RFC3339)
		}
		articles = append(articles, models.NewsArticle{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: snippet(item.Content, 280),
			Date:    date,
			Source:  ProviderName,
		})
	}
	return articles, nil
}

// snippet strips markup from article content and truncates on a word boundary
func snippet(content string, max int) string {
	text := content
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	cut := strings.LastIndex(text[:max], " ")
	if cut <= 0 {
		cut = max
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
	}
	return text[:cut] + "..."
}
