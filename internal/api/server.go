package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/reelarr/internal/api/handlers"
	"github.com/amaumene/reelarr/internal/api/middleware"
	"github.com/amaumene/reelarr/internal/config"
	"github.com/amaumene/reelarr/internal/controllers"
	"github.com/amaumene/reelarr/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server     *http.Server
	db         *models.Database
	progress   *controllers.ProgressStore
	seasonCtrl *controllers.SeasonController
	sessions   handlers.SessionCounter
	gatherer   prometheus.Gatherer
	logger     *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.Config,
	db *models.Database,
	progress *controllers.ProgressStore,
	seasonCtrl *controllers.SeasonController,
	sessions handlers.SessionCounter,
	gatherer prometheus.Gatherer,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		db:         db,
		progress:   progress,
		seasonCtrl: seasonCtrl,
		sessions:   sessions,
		gatherer:   gatherer,
		logger:     logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     middleware.Logging(mux, logger),
		ReadTimeout: 15 * time.Second,
		// season scans run inside the request
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.Handle("/health", handlers.NewHealthHandler(s.logger))
	mux.Handle("/status", handlers.NewStatusHandler(s.db, s.sessions, s.logger))
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	progressHandler := handlers.NewProgressHandler(s.progress, s.logger)
	mux.Handle("/api/progress/", http.StripPrefix("/api/progress/", progressHandler))

	seasonHandler := handlers.NewSeasonHandler(s.seasonCtrl, s.logger)
	mux.HandleFunc("/api/seasons/scan", seasonHandler.Scan)
	mux.HandleFunc("/api/seasons/download", seasonHandler.Download)
}

// Handler returns the root handler, for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
