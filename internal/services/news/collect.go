package news

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// filterRecent drops articles older than the configured age. Articles
// whose date cannot be parsed are kept.
func (s *Service) filterRecent(articles []models.NewsArticle) []models.NewsArticle {
	now := s.now().In(s.location)
	kept := make([]models.NewsArticle, 0, len(articles))
	for _, a := range articles {
		if t, ok := parseArticleDate(a.Date, now); ok && daysAgo(t, now, s.location) > s.config.MaxAgeDays {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// dedupe keeps the first article per link, or per title when there is no link
func dedupe(articles []models.NewsArticle) []models.NewsArticle {
	seen := make(map[string]bool, len(articles))
	out := make([]models.NewsArticle, 0, len(articles))
	for _, a := range articles {
		key := a.Link
		if key == "" {
			key = strings.ToLower(strings.TrimSpace(a.Title))
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// macroNews returns the day's market-wide document, fetching and storing it
// when absent. Queries run concurrently and tolerate individual failures.
// The bool is false when every query failed and the document was not stored.
func (s *Service) macroNews(ctx context.Context, logger arbor.ILogger, runID, date string) (*models.NewsDocument, bool) {
	if doc, ok := s.load(logger, "macro", func() (*models.NewsDocument, error) {
		return s.store.LoadMacro(ctx, date)
	}); ok {
		return doc, true
	}

	queries := s.config.MacroQueries
	sources := make([]models.Source, 0, len(queries))
	for _, q := range queries {
		q := q
		sources = append(sources, models.Source{
			Name: q,
			Fetch: func(ctx context.Context) (any, error) {
				return s.searcher.SearchNews(ctx, q, s.config.ArticleLimit)
			},
		})
	}

	var fetched []models.NewsArticle
	failed := 0
	for _, r := range s.agg.SettleAll(ctx, sources...) {
		articles, ok := r.Payload.([]models.NewsArticle)
		if !r.OK() || !ok {
			failed++
			continue
		}
		fetched = append(fetched, articles...)
	}
	fetched = dedupe(fetched)
	kept := s.filterRecent(fetched)

	doc := &models.NewsDocument{
		Date:      date,
		Timestamp: s.timestamp(),
		Query:     strings.Join(queries, " | "),
		Articles:  kept,
		Metadata: models.DocumentMetadata{
			ArticleCount:  len(fetched),
			FilteredCount: len(fetched) - len(kept),
			Queries:       queries,
			Provider:      s.provider,
			CorrelationID: runID,
		},
	}

	// A day where every query failed is retried on the next request
	if len(sources) > 0 && failed == len(sources) {
		logger.Warn().Int("queries", len(sources)).Msg("Every macro news query failed")
		return doc, false
	}

	if err := s.store.SaveMacro(ctx, doc); err != nil {
		logger.Error().Err(err).Str("date", date).Msg("Failed to persist macro news")
	}
	logger.Info().Int("articles", len(kept)).Int("filtered", doc.Metadata.FilteredCount).Msg("Macro news collected")
	return doc, true
}

// stockNews returns the day's document for symbol. Query variants are tried
// in order; the first with more than MinArticles recent articles wins, then
// the broad query, and failing that the largest set seen. The bool is false
// when no query succeeded and the document was not stored.
func (s *Service) stockNews(ctx context.Context, logger arbor.ILogger, runID, symbol, date string) (*models.NewsDocument, bool) {
	if doc, ok := s.load(logger, "stock", func() (*models.NewsDocument, error) {
		return s.store.LoadStock(ctx, symbol, date)
	}); ok {
		return doc, true
	}

	queries := make([]string, 0, len(s.config.SymbolVariants)+1)
	for _, v := range s.config.SymbolVariants {
		queries = append(queries, fmt.Sprintf(v, symbol))
	}
	if s.config.BroadQuery != "" {
		queries = append(queries, fmt.Sprintf(s.config.BroadQuery, symbol))
	}

	var (
		best      []models.NewsArticle
		bestQuery string
		bestTotal int
		tried     []string
		succeeded bool
	)
	for _, q := range queries {
		tried = append(tried, q)

		articles, err := s.searcher.SearchNews(ctx, q, s.config.ArticleLimit)
		if err != nil {
			logger.Warn().Err(err).Str("query", q).Msg("Stock news query failed")
			continue
		}
		succeeded = true

		articles = dedupe(articles)
		kept := s.filterRecent(articles)
		if bestQuery == "" || len(kept) > len(best) {
			best, bestQuery, bestTotal = kept, q, len(articles)
		}
		if len(kept) > s.config.MinArticles {
			break
		}
	}
	if best == nil {
		best = []models.NewsArticle{}
	}

	doc := &models.NewsDocument{
		Symbol:    symbol,
		Date:      date,
		Timestamp: s.timestamp(),
		Query:     bestQuery,
		Articles:  best,
		Metadata: models.DocumentMetadata{
			ArticleCount:  bestTotal,
			FilteredCount: bestTotal - len(best),
			Queries:       tried,
			Provider:      s.provider,
			CorrelationID: runID,
		},
	}

	if !succeeded {
		logger.Warn().Str("symbol", symbol).Msg("Every stock news query failed")
		return doc, false
	}

	if err := s.store.SaveStock(ctx, doc); err != nil {
		logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to persist stock news")
	}
	logger.Info().Str("query", bestQuery).Int("articles", len(best)).Msg("Stock news collected")
	return doc, true
}

// load reads a stored document. Only a clean hit counts; a corrupt file is
// logged and regenerated.
func (s *Service) load(logger arbor.ILogger, kind string, read func() (*models.NewsDocument, error)) (*models.NewsDocument, bool) {
	doc, err := read()
	if err == nil {
		return doc, true
	}
	if !errors.Is(err, interfaces.ErrDocumentNotFound) {
		logger.Warn().Err(err).Str("kind", kind).Msg("Stored news document unreadable, regenerating")
	}
	return nil, false
}
