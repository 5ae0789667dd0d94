// Package server provides the HTTP server and routing for papertrade.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/stavrod/papertrade/internal/config"
	"github.com/stavrod/papertrade/internal/di"
	accountshandlers "github.com/stavrod/papertrade/internal/modules/accounts/handlers"
	marketdatahandlers "github.com/stavrod/papertrade/internal/modules/marketdata/handlers"
	portfoliohandlers "github.com/stavrod/papertrade/internal/modules/portfolio/handlers"
	tradinghandlers "github.com/stavrod/papertrade/internal/modules/trading/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	cfg       *config.Config
	container *di.Container
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleLiveness)

	systemHandlers := NewSystemHandlers(s.log)
	eventsStream := NewEventsStreamHandler(s.container.Bus, s.log)
	priceStream := NewPriceStreamHandler(s.container.Feed, s.log)

	s.router.Route("/api", func(r chi.Router) {
		// Streaming endpoints skip the request timeout: they hold the
		// connection open for the session.
		r.Get("/events/stream", eventsStream.ServeHTTP)
		r.Get("/stream/ws", priceStream.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/system/health", systemHandlers.HandleHealth)

			marketdatahandlers.NewHandler(s.container.Feed, s.log).RegisterRoutes(r)
			portfoliohandlers.NewHandler(s.container.PortfolioService, s.log).RegisterRoutes(r)
			tradinghandlers.NewHandler(s.container.TradingService, s.log).RegisterRoutes(r)
			accountshandlers.NewHandler(s.container.AccountsService, s.log).RegisterRoutes(r)
		})
	})
}

// handleLiveness is the bare liveness probe
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
