// Package server exposes the analytics API over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mihirgan06/Arbiter/internal/domain"
	"github.com/mihirgan06/Arbiter/internal/server/handler"
	"github.com/mihirgan06/Arbiter/internal/server/middleware"
	"github.com/mihirgan06/Arbiter/internal/server/ws"
)

// Per-client API budget enforced when a rate limiter is wired in.
const (
	apiRateLimit  = 30
	apiRateWindow = time.Second
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health        *handler.HealthHandler
	Books         *handler.BookHandler
	Execution     *handler.ExecutionHandler
	Compare       *handler.CompareHandler
	Discrepancies *handler.DiscrepancyHandler
	Archives      *handler.ArchiveHandler
}

// Server is the headless HTTP + WebSocket API server for the analytics
// service.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (CORS, logging, rate limiting, auth) and attaches
// the WebSocket hub. limiter may be nil to disable API rate limiting.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Book fetch + analysis.
	mux.HandleFunc("GET /api/books/{venue}/{id}", handlers.Books.GetBook)
	mux.HandleFunc("GET /api/books/{venue}/{id}/maxsize", handlers.Books.MaxSize)

	// Execution simulation and payoff.
	mux.HandleFunc("POST /api/execution/price", handlers.Execution.PriceExecution)
	mux.HandleFunc("POST /api/execution/payoff", handlers.Execution.Payoff)
	mux.HandleFunc("GET /api/kelly", handlers.Execution.Kelly)

	// Cross-market comparison.
	mux.HandleFunc("POST /api/compare", handlers.Compare.Compare)
	mux.HandleFunc("POST /api/compare/exhaustion", handlers.Compare.Exhaustion)
	mux.HandleFunc("GET /api/compare/history", handlers.Compare.History)
	mux.HandleFunc("GET /api/compare/history/{id}", handlers.Compare.Get)
	mux.HandleFunc("GET /api/markets/{venue}/{id}/efficiency", handlers.Compare.Efficiency)

	// Discrepancy history and on-demand scanning.
	mux.HandleFunc("GET /api/discrepancies", handlers.Discrepancies.ListRecent)
	mux.HandleFunc("POST /api/discrepancies/scan", handlers.Discrepancies.TriggerScan)

	// Archived history browsing.
	mux.HandleFunc("GET /api/archives", handlers.Archives.List)
	mux.HandleFunc("GET /api/archives/{path...}", handlers.Archives.Download)

	// WebSocket signal feed.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil {
		h = middleware.RateLimit(limiter, apiRateLimit, apiRateWindow)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
