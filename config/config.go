package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultTableURL = "https://demanda.ree.es/visiona/peninsula/nacionalau/tablas/%s/%d"
	defaultFeedURL  = "https://www.omie.es/es/file-download?parents%%5B0%%5D=marginalpdbc&filename=marginalpdbc_%s.1"
)

// Config holds all application-level configuration
type Config struct {
	// Sources
	TableURLTemplate string // %s = yyyy-mm-dd, %d = category url type
	FeedURLTemplate  string // %s = yyyymmdd

	// Scraper
	RenderTimeout  time.Duration
	FeedTimeout    time.Duration
	MaxConcurrency int
	RateLimitDelay int // milliseconds between day fetches
	MaxRetries     int
	RetryBackoff   time.Duration
	ChromePath     string

	// Output
	CSVDelimiter string // overrides the per-category delimiter when set
	OutputDir    string

	// Snapshot store
	DatabaseDriver string // "postgres", "sqlite" or empty to disable
	DatabaseURL    string
	SnapshotTTL    time.Duration

	// Server
	Port     int
	LogLevel string
}

// Load reads configuration from environment variables (optionally .env) or falls back to defaults
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	cfg := &Config{
		TableURLTemplate: getEnv("REE_TABLE_URL", defaultTableURL),
		FeedURLTemplate:  getEnv("OMIE_FEED_URL", defaultFeedURL),
		MaxConcurrency:   getEnvInt("MAX_CONCURRENCY", 1),
		RateLimitDelay:   getEnvInt("RATE_LIMIT_DELAY_MS", 500),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),
		ChromePath:       getEnv("CHROME_PATH", ""),
		CSVDelimiter:     getEnv("CSV_DELIMITER", ""),
		OutputDir:        getEnv("OUTPUT_DIR", "output"),
		DatabaseDriver:   strings.ToLower(getEnv("DATABASE_DRIVER", "")),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		Port:             getEnvInt("PORT", 8080),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.RenderTimeout, err = getEnvDuration("RENDER_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.FeedTimeout, err = getEnvDuration("FEED_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryBackoff, err = getEnvDuration("RETRY_BACKOFF", time.Second); err != nil {
		return nil, err
	}
	if cfg.SnapshotTTL, err = getEnvDuration("SNAPSHOT_TTL", 2*time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no safe fallback
func (c *Config) Validate() error {
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("MAX_CONCURRENCY must be at least 1, got %d", c.MaxConcurrency)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1, got %d", c.MaxRetries)
	}
	if c.RenderTimeout <= 0 {
		return fmt.Errorf("RENDER_TIMEOUT must be positive")
	}
	if len([]rune(c.CSVDelimiter)) > 1 {
		return fmt.Errorf("CSV_DELIMITER must be a single character, got %q", c.CSVDelimiter)
	}
	switch c.DatabaseDriver {
	case "":
	case "postgres", "sqlite":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=%s", c.DatabaseDriver)
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (postgres, sqlite)", c.DatabaseDriver)
	}
	return nil
}

// ListenAddr returns the host:port string for the HTTP server
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Delimiter returns the configured override or the given category default
func (c *Config) Delimiter(categoryDefault rune) rune {
	if c.CSVDelimiter != "" {
		return []rune(c.CSVDelimiter)[0]
	}
	return categoryDefault
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
