package downloadmanager

import (
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/reelarr/internal/config"
	"github.com/sirupsen/logrus"
)

// Client talks to the external download manager.
// It only emits jobs; transfer state is never polled back.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries uint64
	logger     *logrus.Logger
}

// NewClient creates a new download manager client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.DownloadManagerURL == "" {
		return nil, fmt.Errorf("download manager URL is required")
	}

	return &Client{
		baseURL:    cfg.DownloadManagerURL,
		apiKey:     cfg.DownloadManagerAPIKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		maxRetries: 3,
		logger:     logger,
	}, nil
}
