package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Aggregation endpoint
	AggregatorURL     string
	AggregatorTimeout time.Duration

	// Download manager
	DownloadManagerURL    string
	DownloadManagerAPIKey string

	// Captions are rewritten through this template ({url} placeholder)
	SubtitleProxyTemplate string

	// Provider policy (externalized allow/deny lists)
	ProviderPriority []string
	ProviderExclude  []string

	// Playback
	ResumeThreshold  time.Duration // Stored position must exceed this to resume (default: 10s)
	ResumeRewind     time.Duration // Resume this much earlier than the stored mark (default: 5s)
	ProgressFlush    time.Duration // Periodic progress flush while playing (default: 10s)
	SwitchSettle     time.Duration // Hidden instance settle delay during quality switch (default: 200ms)
	NextEpisodeCount time.Duration // Auto-advance countdown (default: 10s)
	JobRetention     time.Duration // Job ledger retention (default: 30 days)

	// Batch
	BatchScanDelay time.Duration // Delay between episode scans (default: 200ms)
	SubmitDelay    time.Duration // Delay between job submissions (default: 100ms)
	ScanCacheTTL   time.Duration // 0 disables the scan cache

	// Server
	ServerPort string

	// Paths
	DatabaseFile        string // $CONFIG_DIR/reelarr.db
	ProviderExcludeFile string // $CONFIG_DIR/providers_exclude.txt

	// Logging
	LogLevel  string
	LogFormat string
}

// Default provider policy. Override with PROVIDER_PRIORITY / PROVIDER_EXCLUDE.
var (
	DefaultProviderPriority = []string{"MovieBox", "Lulu"}
	DefaultProviderExclude  = []string{"Streamtape", "Uqload"}
)

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	setDefaults()

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "reelarr")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := fromViper()
	config.DatabaseFile = filepath.Join(configDir, "reelarr.db")
	config.ProviderExcludeFile = filepath.Join(configDir, "providers_exclude.txt")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("AGGREGATOR_TIMEOUT_SECONDS", 30)
	viper.SetDefault("PROVIDER_PRIORITY", strings.Join(DefaultProviderPriority, ","))
	viper.SetDefault("PROVIDER_EXCLUDE", strings.Join(DefaultProviderExclude, ","))
	viper.SetDefault("RESUME_THRESHOLD_SECONDS", 10)
	viper.SetDefault("RESUME_REWIND_SECONDS", 5)
	viper.SetDefault("PROGRESS_FLUSH_SECONDS", 10)
	viper.SetDefault("SWITCH_SETTLE_MS", 200)
	viper.SetDefault("NEXT_EPISODE_COUNTDOWN_SECONDS", 10)
	viper.SetDefault("JOB_RETENTION_DAYS", 30)
	viper.SetDefault("BATCH_SCAN_DELAY_MS", 200)
	viper.SetDefault("SUBMIT_DELAY_MS", 100)
	viper.SetDefault("SCAN_CACHE_TTL_SECONDS", 120)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
}

func fromViper() *Config {
	return &Config{
		AggregatorURL:     strings.TrimRight(viper.GetString("AGGREGATOR_URL"), "/"),
		AggregatorTimeout: time.Duration(viper.GetInt("AGGREGATOR_TIMEOUT_SECONDS")) * time.Second,

		DownloadManagerURL:    strings.TrimRight(viper.GetString("DOWNLOAD_MANAGER_URL"), "/"),
		DownloadManagerAPIKey: viper.GetString("DOWNLOAD_MANAGER_API_KEY"),

		SubtitleProxyTemplate: viper.GetString("SUBTITLE_PROXY_TEMPLATE"),

		ProviderPriority: SplitList(viper.GetString("PROVIDER_PRIORITY")),
		ProviderExclude:  SplitList(viper.GetString("PROVIDER_EXCLUDE")),

		ResumeThreshold:  time.Duration(viper.GetInt("RESUME_THRESHOLD_SECONDS")) * time.Second,
		ResumeRewind:     time.Duration(viper.GetInt("RESUME_REWIND_SECONDS")) * time.Second,
		ProgressFlush:    time.Duration(viper.GetInt("PROGRESS_FLUSH_SECONDS")) * time.Second,
		SwitchSettle:     time.Duration(viper.GetInt("SWITCH_SETTLE_MS")) * time.Millisecond,
		NextEpisodeCount: time.Duration(viper.GetInt("NEXT_EPISODE_COUNTDOWN_SECONDS")) * time.Second,
		JobRetention:     time.Duration(viper.GetInt("JOB_RETENTION_DAYS")) * 24 * time.Hour,

		BatchScanDelay: time.Duration(viper.GetInt("BATCH_SCAN_DELAY_MS")) * time.Millisecond,
		SubmitDelay:    time.Duration(viper.GetInt("SUBMIT_DELAY_MS")) * time.Millisecond,
		ScanCacheTTL:   time.Duration(viper.GetInt("SCAN_CACHE_TTL_SECONDS")) * time.Second,

		ServerPort: viper.GetString("SERVER_PORT"),
		LogLevel:   viper.GetString("LOG_LEVEL"),
		LogFormat:  viper.GetString("LOG_FORMAT"),
	}
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.AggregatorURL == "" {
		return fmt.Errorf("AGGREGATOR_URL is required")
	}
	if c.DownloadManagerURL == "" {
		return fmt.Errorf("DOWNLOAD_MANAGER_URL is required")
	}
	if c.SwitchSettle < 0 || c.BatchScanDelay < 0 || c.SubmitDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	return nil
}

// SplitList splits a comma separated list, dropping blanks
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
