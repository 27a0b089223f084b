package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth for this service
	WordspiraAPIKey string

	// Spira connection defaults; requests may carry their own credentials.
	SpiraURL               string
	SpiraUsername          string
	SpiraAPIKey            string
	SpiraProjectID         int
	SpiraRequirementTypeID int
	SpiraTimeout           time.Duration

	// Per-document style mappings
	SettingsDir string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL            time.Duration
	ErrorDismissAfter time.Duration
	StatsWindow       time.Duration

	// Test case tables
	TestHeaderRows int
	TestMultiTable bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		WordspiraAPIKey: os.Getenv("WORDSPIRA_API_KEY"),

		SpiraURL:               os.Getenv("SPIRA_URL"),
		SpiraUsername:          os.Getenv("SPIRA_USERNAME"),
		SpiraAPIKey:            os.Getenv("SPIRA_API_KEY"),
		SpiraProjectID:         envInt("SPIRA_PROJECT_ID", 0),
		SpiraRequirementTypeID: envInt("SPIRA_REQUIREMENT_TYPE_ID", 2),
		SpiraTimeout:           envDuration("SPIRA_TIMEOUT", 30*time.Second),

		SettingsDir: envOr("SETTINGS_DIR", "./settings"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL:            envDuration("JOB_TTL", 1*time.Hour),
		ErrorDismissAfter: envDuration("ERROR_DISMISS_AFTER", 5*time.Second),
		StatsWindow:       envDuration("STATS_WINDOW", 1*time.Hour),

		TestHeaderRows: envInt("TEST_HEADER_ROWS", 1),
		TestMultiTable: envBool("TEST_MULTI_TABLE", false),
	}

	if cfg.SpiraRequirementTypeID <= 0 {
		cfg.SpiraRequirementTypeID = 2
	}
	if cfg.SpiraTimeout <= 0 {
		cfg.SpiraTimeout = 30 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.ErrorDismissAfter < 0 {
		cfg.ErrorDismissAfter = 5 * time.Second
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}
	if cfg.TestHeaderRows <= 0 {
		cfg.TestHeaderRows = 1
	}

	return cfg
}

// Validate checks the settings the HTTP service cannot run without.
func (c Config) Validate() error {
	if c.WordspiraAPIKey == "" {
		return fmt.Errorf("WORDSPIRA_API_KEY is required")
	}
	return c.ValidateSpira(false)
}

// ValidateSpira checks the Spira defaults. With required set, the URL and
// credentials must all be present.
func (c Config) ValidateSpira(required bool) error {
	if c.SpiraURL == "" {
		if required {
			return fmt.Errorf("SPIRA_URL is required")
		}
		return nil
	}
	u, err := url.Parse(c.SpiraURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SPIRA_URL %q is not an absolute URL", c.SpiraURL)
	}
	if required && (c.SpiraUsername == "" || c.SpiraAPIKey == "") {
		return fmt.Errorf("SPIRA_USERNAME and SPIRA_API_KEY are required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
