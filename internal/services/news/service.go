// Package news produces one news decision per symbol per calendar day:
// validation, market and symbol news, and an AI overview, each persisted
// to a dated document so a repeat request on the same day is a pure read.
package news

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/cache"
)

// ErrInternal is the only error a caller of Process ever sees after validation
const ErrInternal = "Internal processing error"

// Dependencies are the collaborators of the pipeline. Cache may be nil.
type Dependencies struct {
	Validator  interfaces.Validator
	Searcher   interfaces.NewsSearcher
	Aggregator interfaces.Aggregator
	AI         interfaces.ResponseGenerator
	Store      interfaces.NewsStore
	Cache      interfaces.Cache

	// Provider names the searcher in document metadata
	Provider string
}

// Service implements interfaces.NewsPipeline
type Service struct {
	validator interfaces.Validator
	searcher  interfaces.NewsSearcher
	agg       interfaces.Aggregator
	ai        interfaces.ResponseGenerator
	store     interfaces.NewsStore
	cache     interfaces.Cache
	provider  string
	config    common.NewsConfig
	location  *time.Location
	logger    arbor.ILogger
	now       func() time.Time
}

var _ interfaces.NewsPipeline = (*Service)(nil)

// Option configures the Service
type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the pipeline. Dates are calendar days in loc.
func NewService(deps Dependencies, config common.NewsConfig, loc *time.Location, logger arbor.ILogger, opts ...Option) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{
		validator: deps.Validator,
		searcher:  deps.Searcher,
		agg:       deps.Aggregator,
		ai:        deps.AI,
		store:     deps.Store,
		cache:     deps.Cache,
		provider:  deps.Provider,
		config:    config,
		location:  loc,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() string {
	return s.now().In(s.location).Format("2006-01-02")
}

// timestamp is second-precision UTC so stored documents re-read identically
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// Process runs the pipeline for symbol. It never panics and never returns
// nil: failures after validation become {isValid:false, error:ErrInternal}.
func (s *Service) Process(ctx context.Context, symbol string) (decision *models.NewsDecision) {
	runID := common.NewCorrelationID()
	logger := s.logger.WithCorrelationId(runID)

	var (
		validation models.ValidationResult
		sym        = symbol
		date       string
	)
	defer func() {
		if r := recover(); r != nil {
			common.PanicError(logger, "news:"+sym, r)
			var v *models.ValidationResult
			if validation.Symbol != "" {
				v = &validation
			}
			decision = internalError(sym, date, v)
		}
	}()

	validation = s.validator.Validate(ctx, symbol)
	if !validation.IsValid {
		logger.Info().Str("symbol", validation.Symbol).Str("reason", validation.Reason).Msg("Symbol rejected")
		return &models.NewsDecision{
			IsValid:          false,
			Symbol:           validation.Symbol,
			ValidationResult: &validation,
			Error:            validation.Reason,
			Suggestions:      s.validator.Suggestions(symbol),
		}
	}

	sym = validation.Symbol
	date = s.today()
	key := cache.Key(cache.NamespaceNews, sym, date)

	if s.cache != nil {
		if cached, ok := cache.GetAs[*models.NewsDecision](s.cache, key); ok {
			return cached
		}
	}

	logger.Info().Str("symbol", sym).Str("date", date).Msg("News pipeline started")

	result, complete, err := s.run(ctx, logger, runID, sym, date, &validation)
	if err != nil {
		logger.Error().Err(err).Str("symbol", sym).Msg("News pipeline failed")
		return internalError(sym, date, &validation)
	}

	// A decision built on a search outage is served once and retried next time
	if s.cache != nil && complete {
		s.cache.Set(key, result, 0)
	}
	return result
}

func internalError(symbol, date string, validation *models.ValidationResult) *models.NewsDecision {
	return &models.NewsDecision{
		IsValid:          false,
		Symbol:           symbol,
		Date:             date,
		ValidationResult: validation,
		Error:            ErrInternal,
	}
}

// run collects the day's news and overview. complete is false when either
// news document could not be fetched; the overview is then neither stored
// nor cached so it is regenerated once search recovers.
func (s *Service) run(ctx context.Context, logger arbor.ILogger, runID, symbol, date string, validation *models.ValidationResult) (decision *models.NewsDecision, complete bool, err error) {
	macro, macroOK := s.macroNews(ctx, logger, runID, date)
	stock, stockOK := s.stockNews(ctx, logger, runID, symbol, date)
	complete = macroOK && stockOK

	decision = &models.NewsDecision{
		IsValid:          true,
		Symbol:           symbol,
		Date:             date,
		StockNews:        stock.Articles,
		MacroNews:        macro.Articles,
		ValidationResult: validation,
	}

	if doc, ok := s.load(logger, "overview", func() (*models.NewsDocument, error) {
		return s.store.LoadOverview(ctx, symbol, date)
	}); ok && doc.Overview != nil {
		logger.Debug().Str("symbol", symbol).Msg("Overview already generated today")
		decision.Overview = doc.Overview
		return decision, complete, nil
	}

	overview, err := s.generateOverview(ctx, symbol, date, stock.Articles, macro.Articles)
	if err != nil {
		return nil, false, err
	}
	decision.Overview = overview

	if !complete {
		logger.Warn().Str("symbol", symbol).Msg("Overview built on incomplete news, not persisted")
		return decision, false, nil
	}

	doc := &models.NewsDocument{
		Symbol:    symbol,
		Date:      date,
		Timestamp: overview.Timestamp,
		Query:     stock.Query,
		Summary:   overview.Overview,
		Overview:  overview,
		Articles:  []models.NewsArticle{},
		Metadata: models.DocumentMetadata{
			ArticleCount:  len(stock.Articles) + len(macro.Articles),
			Provider:      overview.Source,
			CorrelationID: runID,
		},
	}
	if err := s.store.SaveOverview(ctx, doc); err != nil {
		logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to persist overview")
	}

	logger.Info().
		Str("symbol", symbol).
		Str("recommendation", overview.Recommendation).
		Str("source", overview.Source).
		Msg("Overview generated")
	return decision, true, nil
}

func (s *Service) generateOverview(ctx context.Context, symbol, date string, stock, macro []models.NewsArticle) (*models.StockOverview, error) {
	if s.ai == nil {
		return nil, errors.New("no AI generator configured")
	}

	prompt := s.overviewPrompt(symbol, date, stock, macro)

	var overview models.StockOverview
	resp, err := s.ai.GenerateStructured(ctx, prompt, OverviewSchema(), &overview)
	if err != nil {
		return nil, err
	}

	overview.Symbol = symbol
	overview.Source = resp.Provider
	overview.Timestamp = s.timestamp()
	return &overview, nil
}
