package news

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/marketpulse/internal/models"
)

// OverviewSchema shapes the StockOverview. Per-sentiment values are used
// when the keyword tier answers.
func OverviewSchema() *models.Schema {
	return &models.Schema{
		Type:     "object",
		Order:    []string{"overview", "recommendation", "confidence", "keyFactors", "riskLevel", "timeHorizon"},
		Required: []string{"overview", "recommendation", "confidence", "keyFactors", "riskLevel", "timeHorizon"},
		Properties: map[string]*models.Schema{
			"overview": {
				Type:        "string",
				Description: "Three to four sentence overview of the stock given the news",
				BySentiment: map[string]any{
					models.SentimentPositive: "Coverage of the company is broadly favourable and points to improving momentum.",
					models.SentimentNegative: "Coverage of the company is broadly unfavourable and points to near-term pressure.",
					models.SentimentNeutral:  "Coverage of the company is mixed without a clear direction.",
				},
			},
			"recommendation": {
				Type: "string",
				Enum: []string{"BUY", "HOLD", "SELL"},
				BySentiment: map[string]any{
					models.SentimentPositive: "BUY",
					models.SentimentNegative: "SELL",
					models.SentimentNeutral:  "HOLD",
				},
			},
			"confidence": {
				Type:        "integer",
				Description: "Confidence from 0 to 100",
				BySentiment: map[string]any{
					models.SentimentPositive: 60,
					models.SentimentNegative: 60,
					models.SentimentNeutral:  40,
				},
			},
			"keyFactors": {
				Type:     "array",
				Items:    &models.Schema{Type: "string"},
				Keywords: true,
				Default:  []string{"Limited news coverage"},
			},
			"riskLevel": {
				Type: "string",
				Enum: []string{"LOW", "MEDIUM", "HIGH"},
				BySentiment: map[string]any{
					models.SentimentPositive: "MEDIUM",
					models.SentimentNegative: "HIGH",
					models.SentimentNeutral:  "MEDIUM",
				},
			},
			"timeHorizon": {
				Type:        "string",
				Description: "Horizon the view applies to, for example 1-3 months",
				Default:     "1-3 months",
			},
		},
	}
}

// overviewPrompt embeds every headline with its recency plus snippets for
// the most recent few
func (s *Service) overviewPrompt(symbol, date string, stock, macro []models.NewsArticle) string {
	now := s.now()
	var b strings.Builder

	fmt.Fprintf(&b, "You are reviewing the news for the stock %s. Today is %s.\n\n", symbol, date)

	b.WriteString("Company headlines:\n")
	if len(stock) == 0 {
		b.WriteString("(none)\n")
	}
	for i, a := range stock {
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, recency(a.Date, now, s.location), a.Title)
		if a.Source != "" {
			fmt.Fprintf(&b, " (%s)", a.Source)
		}
		b.WriteString("\n")
	}

	if details := s.mostRecent(stock, s.config.SnippetCount); len(details) > 0 {
		b.WriteString("\nDetails of the latest stories:\n")
		for _, a := range details {
			fmt.Fprintf(&b, "- %s: %s\n", a.Title, a.Snippet)
		}
	}

	if len(macro) > 0 {
		b.WriteString("\nMarket-wide headlines:\n")
		for _, a := range macro {
			fmt.Fprintf(&b, "- [%s] %s\n", recency(a.Date, now, s.location), a.Title)
		}
	}

	b.WriteString("\nRespond with a single JSON object with the fields overview, recommendation (BUY, HOLD or SELL), ")
	b.WriteString("confidence (0-100), keyFactors (list of strings), riskLevel (LOW, MEDIUM or HIGH) and timeHorizon.")
	return b.String()
}

// mostRecent returns up to n articles with snippets, newest first. Articles
// with unknown dates sort last.
func (s *Service) mostRecent(articles []models.NewsArticle, n int) []models.NewsArticle {
	if n <= 0 {
		return nil
	}
	now := s.now().In(s.location)

	type dated struct {
		article models.NewsArticle
		at      time.Time
		known   bool
	}
	var withSnippets []dated
	for _, a := range articles {
		if strings.TrimSpace(a.Snippet) == "" {
			continue
		}
		t, ok := parseArticleDate(a.Date, now)
		withSnippets = append(withSnippets, dated{article: a, at: t, known: ok})
	}

	sort.SliceStable(withSnippets, func(i, j int) bool {
		if withSnippets[i].known != withSnippets[j].known {
			return withSnippets[i].known
		}
		return withSnippets[i].at.After(withSnippets[j].at)
	})

	if len(withSnippets) > n {
		withSnippets = withSnippets[:n]
	}
	out := make([]models.NewsArticle, 0, len(withSnippets))
	for _, d := range withSnippets {
		out = append(out, d.article)
	}
	return out
}
