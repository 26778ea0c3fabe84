package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

const (
	JobEconomic = "economic"
	JobMarket   = "market"

	// jobTimeout bounds a single scheduled refresh
	jobTimeout = 2 * time.Minute
)

// jobEntry represents a registered refresh job
type jobEntry struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
	gated    bool // only runs inside trading hours
	cronID   cron.EntryID
}

// Service keeps the economic and market aggregates warm
type Service struct {
	market       interfaces.MarketData
	aggregator   interfaces.Aggregator
	marketHours  common.MarketConfig
	isProduction bool
	logger       arbor.ILogger
	now          func() time.Time

	mu      sync.Mutex // Protects cron and running
	cron    *cron.Cron
	running bool
	jobs    []*jobEntry
}

var _ interfaces.RefreshScheduler = (*Service)(nil)

// NewService creates the refresh scheduler
func NewService(market interfaces.MarketData, aggregator interfaces.Aggregator, config *common.Config, logger arbor.ILogger) *Service {
	s := &Service{
		market:       market,
		aggregator:   aggregator,
		marketHours:  config.Market,
		isProduction: config.IsProduction(),
		logger:       logger,
		now:          time.Now,
	}
	s.jobs = []*jobEntry{
		{name: JobEconomic, interval: config.Scheduler.GetEconomicInterval(), run: market.RefreshEconomicIndicators},
		{name: JobMarket, interval: config.Scheduler.GetMarketInterval(), run: market.RefreshMarketIndices, gated: true},
	}
	return s
}

// Start registers both jobs and warms the caches in the background.
// Outside production it only logs.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isProduction {
		s.logger.Info().Msg("Scheduler disabled outside production")
		return
	}
	if s.running {
		return
	}

	s.cron = cron.New()
	for _, job := range s.jobs {
		job := job
		cronID, err := s.cron.AddFunc(fmt.Sprintf("@every %s", job.interval), func() {
			s.executeJob(job, true)
		})
		if err != nil {
			s.logger.Error().Err(err).Str("job_name", job.name).Msg("Failed to register job")
			continue
		}
		job.cronID = cronID
		s.logger.Info().
			Str("job_name", job.name).
			Dur("interval", job.interval).
			Msg("Job registered")
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().Msg("Scheduler started")

	// Warm-up is best effort, not awaited, and ignores trading hours
	for _, job := range s.jobs {
		job := job
		common.SafeGo(s.logger, "warmup:"+job.name, func() {
			s.executeJob(job, false)
		})
	}
}

// Stop halts both jobs. Safe to call when already stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	s.cron.Stop()
	s.logger.Info().Msg("Scheduler stopped")
}

// IsRunning returns true if scheduler is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// executeJob runs a scheduled tick. A tick that fires after Stop, or a
// gated job outside trading hours, is skipped.
func (s *Service) executeJob(job *jobEntry, applyGate bool) {
	defer common.LogPanic(s.logger, "job:"+job.name)

	if !s.IsRunning() {
		return
	}
	if applyGate && job.gated && !s.IsTradingHours(s.now()) {
		s.logger.Debug().Str("job_name", job.name).Msg("Outside trading hours, skipping")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job.run(ctx); err != nil {
		s.logger.Warn().Err(err).Str("job_name", job.name).Dur("duration", time.Since(start)).Msg("Scheduled refresh failed")
		return
	}
	s.logger.Debug().Str("job_name", job.name).Dur("duration", time.Since(start)).Msg("Scheduled refresh completed")
}

// ForceUpdate runs both jobs once and waits for them, ignoring trading
// hours and the running state. Per-job failures are reported, not returned.
func (s *Service) ForceUpdate(ctx context.Context) models.ForceUpdateResult {
	sources := make([]models.Source, 0, len(s.jobs))
	for _, job := range s.jobs {
		job := job
		sources = append(sources, models.Source{
			Name: job.name,
			Fetch: func(ctx context.Context) (any, error) {
				return nil, job.run(ctx)
			},
		})
	}

	results := s.aggregator.SettleAll(ctx, sources...)

	outcomes := make([]models.JobOutcome, 0, len(results))
	for _, r := range results {
		outcome := models.JobOutcome{
			Job:      r.Name,
			Success:  r.OK(),
			Duration: r.Duration.Round(time.Millisecond).String(),
		}
		if r.Err != nil {
			outcome.Error = r.Err.Error()
		}
		outcomes = append(outcomes, outcome)
	}

	s.logger.Info().Int("jobs", len(outcomes)).Msg("Forced update completed")

	return models.ForceUpdateResult{
		CompletedAt: s.now().UTC(),
		Jobs:        outcomes,
	}
}

// Status reports the live state. Next updates are now + interval and are
// only set while running.
func (s *Service) Status() models.SchedulerStatus {
	now := s.now()
	status := models.SchedulerStatus{
		IsRunning:      s.IsRunning(),
		IsProduction:   s.isProduction,
		IsTradingHours: s.IsTradingHours(now),
	}
	if !status.IsRunning {
		return status
	}

	for _, job := range s.jobs {
		next := now.Add(job.interval)
		switch job.name {
		case JobEconomic:
			status.NextEconomicUpdate = &next
		case JobMarket:
			status.NextMarketUpdate = &next
		}
	}
	return status
}

// IsTradingHours reports whether t falls on a weekday between the open and
// close hours of the configured exchange, both hours inclusive.
func (s *Service) IsTradingHours(t time.Time) bool {
	return IsTradingHours(t, s.marketHours)
}

// IsTradingHours is the predicate behind the market job gate
func IsTradingHours(t time.Time, market common.MarketConfig) bool {
	local := t.In(market.Location())
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hour := local.Hour()
	return hour >= market.OpenHour && hour <= market.CloseHour
}
