// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 4:12:09 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/clients/fred"
	"github.com/ternarybob/marketpulse/internal/clients/serp"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/eodhd"
	"github.com/ternarybob/marketpulse/internal/handlers"
	"github.com/ternarybob/marketpulse/internal/httpclient"
	"github.com/ternarybob/marketpulse/internal/services/aggregator"
	"github.com/ternarybob/marketpulse/internal/services/cache"
	"github.com/ternarybob/marketpulse/internal/services/llm"
	"github.com/ternarybob/marketpulse/internal/services/market"
	"github.com/ternarybob/marketpulse/internal/services/news"
	"github.com/ternarybob/marketpulse/internal/services/scheduler"
	"github.com/ternarybob/marketpulse/internal/services/validation"
	"github.com/ternarybob/marketpulse/internal/storage/badger"
	"github.com/ternarybob/marketpulse/internal/storage/newsfs"
)

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	StorageManager *badger.Manager
	NewsStore      *newsfs.Store

	// Upstream clients
	EODHD *eodhd.Client
	FRED  *fred.Client
	SERP  *serp.Client

	// Core services
	Cache            *cache.Service
	Aggregator       *aggregator.Service
	AIChain          *llm.Chain
	Validator        *validation.Service
	MarketService    *market.Service
	NewsService      *news.Service
	SchedulerService *scheduler.Service

	// HTTP handlers
	StatusHandler    *handlers.StatusHandler
	MarketHandler    *handlers.MarketHandler
	NewsHandler      *handlers.NewsHandler
	SchedulerHandler *handlers.SchedulerHandler
	CacheHandler     *handlers.CacheHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := app.initStorage(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Bool("production", cfg.IsProduction()).
		Str("missing_data_policy", cfg.OnMissingEssentialData).
		Int("known_symbols", app.Validator.KnownCount()).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage opens the variables store and the dated news file store
func (a *App) initStorage() error {
	manager, err := badger.NewManager(a.Logger)
	if err != nil {
		return err
	}
	a.StorageManager = manager

	loaded := manager.LoadVariablesFromFiles(a.ctx, a.Config.Variables.Dir)
	a.Logger.Debug().Int("count", loaded).Msg("Variables loaded")

	store, err := newsfs.NewStore(filepath.Join(a.Config.Storage.DataDir, "news"), a.Logger)
	if err != nil {
		return err
	}
	a.NewsStore = store

	return nil
}

// resolveKey looks a provider key up in env, then variables, then config.
// A missing key is not an error: the provider is simply unavailable.
func (a *App) resolveKey(name, fallback string) string {
	key, err := common.ResolveAPIKey(a.ctx, a.StorageManager.KeyValueStorage(), name, fallback)
	if err != nil {
		a.Logger.Warn().Str("key", name).Msg("Provider key not configured")
		return ""
	}
	return key
}

// initServices builds the cache, upstream clients, AI chain and the
// market, news and scheduler services in dependency order
func (a *App) initServices() error {
	cfg := a.Config
	upstreamTimeout := cfg.Upstream.GetTimeout()

	// 1. Cache
	a.Cache = cache.NewService(a.Logger, cache.WithNamespaceTTLs(cfg.Cache.TTLs()))
	a.Cache.StartSweeper(a.ctx, cfg.Cache.GetSweepInterval())

	// 2. Settle-all aggregator
	a.Aggregator = aggregator.NewService(a.Logger, upstreamTimeout)

	// 3. Upstream clients
	httpClient := httpclient.NewDefaultHTTPClient(upstreamTimeout)

	a.EODHD = eodhd.NewClient(
		a.resolveKey("eodhd_api_key", cfg.EODHD.APIKey),
		eodhd.WithBaseURL(cfg.EODHD.BaseURL),
		eodhd.WithRateLimit(cfg.EODHD.RateLimit),
		eodhd.WithHTTPClient(httpClient),
		eodhd.WithLogger(a.Logger),
	)
	a.FRED = fred.NewClient(
		a.resolveKey("fred_api_key", cfg.FRED.APIKey),
		cfg.FRED.BaseURL,
		cfg.FRED.RateLimit,
		httpClient,
		a.Logger,
	)
	a.SERP = serp.NewClient(
		a.resolveKey("serp_api_key", cfg.SERP.APIKey),
		cfg.SERP.BaseURL,
		cfg.SERP.RateLimit,
		httpClient,
		a.Logger,
	)

	// 4. Symbol validator (live lookup goes through the quote client)
	validator, err := validation.NewService(a.EODHD, a.Logger)
	if err != nil {
		return err
	}
	a.Validator = validator

	// 5. AI fallback chain: Gemini, Claude, keyword heuristic
	gemini, err := llm.NewGeminiGenerator(a.ctx, &cfg.Gemini, a.resolveKey("gemini_api_key", cfg.Gemini.APIKey), a.Logger)
	if err != nil {
		return err
	}
	claude := llm.NewClaudeGenerator(&cfg.Claude, a.resolveKey("claude_api_key", cfg.Claude.APIKey), a.Logger)
	a.AIChain = llm.NewChain(a.Logger, gemini, claude, llm.NewHeuristicGenerator())

	// 6. Market aggregates
	a.MarketService = market.NewService(
		a.Aggregator,
		a.Cache,
		market.Providers{
			Quotes:   a.EODHD,
			History:  a.EODHD,
			News:     a.EODHD,
			Economic: a.FRED,
		},
		a.AIChain,
		cfg.FailOnMissingEssentialData(),
		a.Logger,
	)

	// 7. News pipeline
	a.NewsService = news.NewService(
		news.Dependencies{
			Validator:  a.Validator,
			Searcher:   a.SERP,
			Aggregator: a.Aggregator,
			AI:         a.AIChain,
			Store:      a.NewsStore,
			Cache:      a.Cache,
			Provider:   serp.ProviderName,
		},
		cfg.News,
		cfg.Market.Location(),
		a.Logger,
	)

	// 8. Refresh scheduler, started by the serve command
	a.SchedulerService = scheduler.NewService(a.MarketService, a.Aggregator, cfg, a.Logger)

	return nil
}

func (a *App) initHandlers() {
	a.StatusHandler = handlers.NewStatusHandler(a.AIChain)
	a.MarketHandler = handlers.NewMarketHandler(a.MarketService, a.MarketService, a.Validator, a.Logger)
	a.NewsHandler = handlers.NewNewsHandler(a.NewsService, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService, a.Logger)
	a.CacheHandler = handlers.NewCacheHandler(a.Cache, a.Logger)
}

// Close stops background work and releases storage
func (a *App) Close() error {
	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}

	if a.cancelCtx != nil {
		a.cancelCtx()
	}

	if a.Cache != nil {
		a.Cache.Close()
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
