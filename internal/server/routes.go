package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.app.StatusHandler.HealthHandler)

		// Aggregates
		r.Get("/economic", s.app.MarketHandler.EconomicHandler)
		r.Get("/indices", s.app.MarketHandler.IndicesHandler)
		r.Post("/sentiment", s.app.MarketHandler.SentimentHandler)

		r.Route("/stocks/{symbol}", func(r chi.Router) {
			r.Get("/", s.app.MarketHandler.StockHandler)
			r.Get("/validate", s.app.MarketHandler.ValidateHandler)
			r.Get("/news", s.app.NewsHandler.NewsHandler)
		})

		// Scheduler
		r.Get("/scheduler/status", s.app.SchedulerHandler.StatusHandler)
		r.Post("/scheduler/force", s.app.SchedulerHandler.ForceUpdateHandler)

		// Cache administration
		r.Get("/cache/stats", s.app.CacheHandler.StatsHandler)
		r.Delete("/cache", s.app.CacheHandler.ClearHandler)
		r.Delete("/cache/{key}", s.app.CacheHandler.DeleteHandler)
	})
}
