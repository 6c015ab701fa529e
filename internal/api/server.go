package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/moat/backend/internal/analyzer"
	"github.com/wonny/moat/backend/internal/api/handlers"
	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/internal/overrides"
	"github.com/wonny/moat/backend/pkg/config"
	"github.com/wonny/moat/backend/pkg/logger"
	"github.com/wonny/moat/backend/pkg/metrics"
	"github.com/wonny/moat/backend/pkg/redis"
)

// Server represents the HTTP API server
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer  *http.Server
	hub         *Hub
	unsubscribe func()
	logger      *logger.Logger
	config      *config.Config
}

// New creates a new API server. The hub is subscribed to override changes.
func New(cfg *config.Config, log *logger.Logger, a *analyzer.Analyzer, store *overrides.Store, m *metrics.Metrics, limiter *redis.RateLimiter) *Server {
	hub := NewHub(func(ctx context.Context) Message {
		set := a.Overrides(ctx)
		return OverridesMessage(set, a.Engine().ComputeSectors(set))
	}, log, m)

	unsubscribe := store.Subscribe(func(set contracts.OverrideSet) {
		hub.Broadcast(OverridesMessage(set, a.Engine().ComputeSectors(set)))
	})

	router := NewRouter(RouterDeps{
		Valuation:   handlers.NewValuationHandler(a, log),
		Overrides:   handlers.NewOverridesHandler(store, log),
		Hub:         hub,
		Metrics:     m,
		RateLimiter: limiter,
		Logger:      log,
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		hub:         hub,
		unsubscribe: unsubscribe,
		logger:      log,
		config:      cfg,
	}
}

// Handler exposes the router (tests)
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"port": s.config.Port,
		"env":  s.config.Env,
	}).Info("Starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	s.unsubscribe()
	s.hub.Close()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
