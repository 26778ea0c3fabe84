package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/marketpulse/internal/eodhd"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/aggregator"
	"github.com/ternarybob/marketpulse/internal/services/cache"
)

// BundleNewsLimit caps the headlines in a stock bundle
const BundleNewsLimit = 10

// StockKey is where the bundle for symbol is cached
func StockKey(symbol string) string {
	return cache.Key(cache.NamespaceStock, normalize(symbol))
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

const (
	sourceNews       = "news"
	sourceEvaluation = "evaluation"
	sourceTechnicals = "technicals"
)

// EvaluationSchema shapes the structured evaluation. The per-sentiment
// summaries are used when the keyword tier answers.
func EvaluationSchema() *models.Schema {
	return &models.Schema{
		Type:     "object",
		Order:    []string{"sentiment", "summary"},
		Required: []string{"sentiment", "summary"},
		Properties: map[string]*models.Schema{
			"sentiment": {
				Type:        "string",
				Description: "Overall tone of the recent coverage",
				Enum:        []string{models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral},
				BySentiment: map[string]any{
					models.SentimentPositive: models.SentimentPositive,
					models.SentimentNegative: models.SentimentNegative,
					models.SentimentNeutral:  models.SentimentNeutral,
				},
			},
			"summary": {
				Type:        "string",
				Description: "Two sentence summary of the coverage for an investor",
				BySentiment: map[string]any{
					models.SentimentPositive: "Recent coverage leans favourable, led by upbeat company developments.",
					models.SentimentNegative: "Recent coverage leans unfavourable, with several adverse developments reported.",
					models.SentimentNeutral:  "Recent coverage is mixed with no clear direction.",
				},
			},
		},
	}
}

func (s *Service) bundleRequest(symbol string) aggregator.Request[*models.StockBundle] {
	symbol = normalize(symbol)

	return aggregator.Request[*models.StockBundle]{
		Name: "stock",
		Sources: []models.Source{
			s.quoteFetcher(symbol),
			{
				Name: sourceNews,
				Fetch: func(ctx context.Context) (any, error) {
					return s.symbolNews(ctx, symbol)
				},
			},
			{
				Name: sourceEvaluation,
				Fetch: func(ctx context.Context) (any, error) {
					return s.evaluate(ctx, symbol)
				},
			},
			{
				Name: sourceTechnicals,
				Fetch: func(ctx context.Context) (any, error) {
					points, err := s.history(ctx, symbol, TechnicalDays)
					if err != nil {
						return nil, err
					}
					return ComputeTechnicals(points), nil
				},
			},
		},
		Merge: func(results []models.SourceResult) *models.StockBundle {
			return s.mergeBundle(symbol, results)
		},
		Cache: s.cache,
		Key:   StockKey(symbol),
	}
}

// symbolNews is shared by the news and evaluation sources of a bundle
func (s *Service) symbolNews(ctx context.Context, symbol string) ([]models.NewsArticle, error) {
	if s.providers.News == nil {
		return nil, errNoProvider
	}
	key := cache.Key(cache.NamespaceNews, eodhd.ProviderName, symbol)
	return cached(ctx, s.cache, key, func(ctx context.Context) ([]models.NewsArticle, error) {
		return s.providers.News.GetSymbolNews(ctx, symbol, BundleNewsLimit)
	})
}

func (s *Service) evaluate(ctx context.Context, symbol string) (*models.StockEvaluation, error) {
	if s.ai == nil {
		return nil, errNoProvider
	}

	key := cache.Key(cache.NamespaceAI, "eval", symbol)
	return cached(ctx, s.cache, key, func(ctx context.Context) (*models.StockEvaluation, error) {
		articles, err := s.symbolNews(ctx, symbol)
		if err != nil {
			s.logger.Debug().Str("symbol", symbol).Err(err).Msg("Evaluating without headlines")
		}

		var eval models.StockEvaluation
		resp, err := s.ai.GenerateStructured(ctx, evaluationPrompt(symbol, articles), EvaluationSchema(), &eval)
		if err != nil {
			return nil, err
		}
		eval.Source = resp.Provider
		return &eval, nil
	})
}

func evaluationPrompt(symbol string, articles []models.NewsArticle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assess the recent news coverage of the stock %s.\n", symbol)
	if len(articles) == 0 {
		b.WriteString("No recent headlines are available.\n")
	} else {
		b.WriteString("Headlines:\n")
		for _, a := range articles {
			fmt.Fprintf(&b, "- %s\n", a.Title)
		}
	}
	b.WriteString("Respond with JSON containing sentiment (positive, negative or neutral) and summary.")
	return b.String()
}

func (s *Service) mergeBundle(symbol string, results []models.SourceResult) *models.StockBundle {
	bundle := &models.StockBundle{
		Symbol:     symbol,
		News:       []models.NewsArticle{},
		NewsSource: models.SourceUnavailable,
		Technicals: models.Technicals{Source: models.SourceUnavailable},
		UpdatedAt:  s.now().UTC().Truncate(time.Second),
	}

	r, ok := aggregator.Find(results, quoteSource(symbol))
	bundle.Quote.Source = sourceTag(r, ok, eodhd.ProviderName)
	if r.OK() && ok {
		bundle.Quote.Price = aggregator.Number(r.Payload, "close", "price", "previousClose")
		bundle.Quote.Change = aggregator.Number(r.Payload, "change")
		bundle.Quote.ChangePercent = aggregator.Number(r.Payload, "change_p", "changePercent")
		bundle.Quote.Volume = aggregator.Number(r.Payload, "volume")
	}

	if r, ok := aggregator.Find(results, sourceNews); ok && r.OK() {
		if articles, ok := r.Payload.([]models.NewsArticle); ok {
			bundle.News = articles
			bundle.NewsSource = eodhd.ProviderName
		}
	}

	if r, ok := aggregator.Find(results, sourceEvaluation); ok && r.OK() {
		if eval, ok := r.Payload.(*models.StockEvaluation); ok {
			bundle.Evaluation = eval
		}
	}

	if r, ok := aggregator.Find(results, sourceTechnicals); ok && r.OK() {
		if tech, ok := r.Payload.(models.Technicals); ok {
			bundle.Technicals = tech
		}
	}

	return bundle
}
