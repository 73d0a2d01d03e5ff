// Package httpserver exposes the control-plane HTTP API: metrics, health
// probes, and the dashboard endpoints for portfolio, markets, and settings.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/polytrade/polybot/internal/bot"
	"github.com/polytrade/polybot/internal/ledger"
	"github.com/polytrade/polybot/pkg/healthprobe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server provides HTTP endpoints for metrics, health checks, and the bot API.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	Bot           *bot.Bot
	Ledger        *ledger.Ledger
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Routes
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	// Bot API endpoints (if components provided)
	if cfg.Bot != nil && cfg.Ledger != nil {
		h := NewBotHandler(cfg.Bot, cfg.Ledger, cfg.Logger)
		r.Route("/api", func(r chi.Router) {
			r.Get("/portfolio", h.HandlePortfolio)
			r.Get("/markets", h.HandleMarkets)
			r.Get("/settings", h.HandleGetSettings)
			r.Patch("/settings", h.HandleUpdateSettings)
			r.Post("/positions/{marketID}/{outcome}/close", h.HandleClosePosition)
			r.Post("/positions/{marketID}/{outcome}/redeem", h.HandleRedeemMarket)
			r.Post("/reset/positions", h.HandleResetPositions)
			r.Post("/reset/daily-pnl", h.HandleResetDailyPnL)
		})
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}

// Handler returns the underlying handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
