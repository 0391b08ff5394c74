package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/simaogato/portfolio-backend/internal/domain"
	"github.com/simaogato/portfolio-backend/internal/usecase/returns"
	"github.com/simaogato/portfolio-backend/internal/usecase/transaction"
)

// PortfolioCreator creates portfolios
type PortfolioCreator interface {
	CreatePortfolio(ctx context.Context, name string) (*domain.Portfolio, error)
}

// ReturnsProvider computes daily portfolio returns
type ReturnsProvider interface {
	GetPortfolioReturns(ctx context.Context, portfolioID uuid.UUID, days int) (*returns.PortfolioReturns, error)
}

// TransactionRecorder records, updates and deletes transactions
type TransactionRecorder interface {
	BulkUpload(ctx context.Context, portfolioID uuid.UUID, inputs []transaction.TransactionInput) (*transaction.UploadResult, error)
	UpdateTransaction(ctx context.Context, portfolioID, transactionID uuid.UUID, update domain.TransactionUpdate) (*transaction.UpdateResult, error)
	DeleteTransaction(ctx context.Context, portfolioID, transactionID uuid.UUID) error
}

// Config holds server configuration
type Config struct {
	Port         int
	Log          zerolog.Logger
	Portfolios   PortfolioCreator
	Returns      ReturnsProvider
	Transactions TransactionRecorder
	// DefaultDays is the window length used when a returns request has no days parameter
	DefaultDays int
}

// Server represents the HTTP server
type Server struct {
	router       *chi.Mux
	server       *http.Server
	log          zerolog.Logger
	port         int
	portfolios   PortfolioCreator
	returns      ReturnsProvider
	transactions TransactionRecorder
	defaultDays  int
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		log:          cfg.Log.With().Str("component", "http").Logger(),
		port:         cfg.Port,
		portfolios:   cfg.Portfolios,
		returns:      cfg.Returns,
		transactions: cfg.Transactions,
		defaultDays:  cfg.DefaultDays,
	}
	if s.defaultDays <= 0 {
		s.defaultDays = returns.DefaultDays
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(30 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api/portfolios", func(r chi.Router) {
		r.Post("/", s.handleCreatePortfolio)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/returns", s.handleGetReturns)

			r.Post("/transactions", s.handleBulkUpload)
			r.Put("/transactions/{transactionId}", s.handleUpdateTransaction)
			r.Delete("/transactions/{transactionId}", s.handleDeleteTransaction)
		})
	})
}

// Handler returns the routed handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
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
