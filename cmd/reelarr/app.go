package main

import (
	"fmt"
	"path/filepath"

	"github.com/amaumene/reelarr/internal/config"
	"github.com/amaumene/reelarr/internal/controllers"
	"github.com/amaumene/reelarr/internal/metrics"
	"github.com/amaumene/reelarr/internal/models"
	"github.com/amaumene/reelarr/internal/services/aggregator"
	"github.com/amaumene/reelarr/internal/services/downloadmanager"
	"github.com/amaumene/reelarr/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// app holds the components shared by every command
type app struct {
	cfg        *config.Config
	logger     *logrus.Logger
	db         *models.Database
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	progress   *controllers.ProgressStore
	seasonCtrl *controllers.SeasonController
}

func newApp() (*app, error) {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info("Database initialized")

	// 4. Load provider policy
	exclude := cfg.ProviderExclude
	extra, err := utils.LoadProviderList(cfg.ProviderExcludeFile)
	if err != nil {
		logger.WithError(err).Warn("Failed to load provider exclude file, using configured list only")
	} else if len(extra) > 0 {
		exclude = append(append([]string{}, exclude...), extra...)
		logger.WithField("count", len(extra)).Info("Provider exclude file loaded")
	}
	policy := utils.NewProviderPolicy(exclude, cfg.ProviderPriority)

	// 5. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// 6. Initialize services
	aggregatorClient, err := aggregator.NewClient(cfg, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize aggregator client: %w", err)
	}
	downloadClient, err := downloadmanager.NewClient(cfg, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize download manager client: %w", err)
	}
	logger.Info("Clients initialized")

	// 7. Initialize controllers
	scanner := controllers.NewEpisodeScanner(aggregatorClient, policy, cfg.SubtitleProxyTemplate, cfg.ScanCacheTTL, logger, m)
	batch := controllers.NewBatchScanner(scanner, cfg.BatchScanDelay, logger, m)
	downloads := controllers.NewDownloadController(downloadClient, db, cfg.SubmitDelay, logger, m)

	return &app{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		registry:   registry,
		metrics:    m,
		progress:   controllers.NewProgressStore(db, logger, m),
		seasonCtrl: controllers.NewSeasonController(batch, downloads, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close database")
	}
}
