package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable name, e.g. DOCUFLOW_PORT.
// Nested groups add their field name: DOCUFLOW_FX_BASE_URL, DOCUFLOW_RETRY_ATTEMPTS.
const EnvPrefix = "DOCUFLOW"

// Config holds all runtime settings. Every field can be set from the
// environment; defaults match the production behaviour of the engine.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	GeminiModel string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	GCPProject  string `envconfig:"GCP_PROJECT"`

	ReportingCurrency string `envconfig:"REPORTING_CURRENCY" default:"AED"`

	FX    FXConfig
	Retry RetryConfig
	Batch BatchConfig
	Rules RulesConfig
	Jobs  JobsConfig

	// Optional: archive unrepairable model output to BigQuery.
	ArchiveDataset string `envconfig:"ARCHIVE_DATASET"`
}

// FXConfig configures the exchange rate provider and its cache.
type FXConfig struct {
	BaseURL   string        `envconfig:"BASE_URL" default:"https://v6.exchangerate-api.com/v6"`
	APIKey    string        `envconfig:"API_KEY"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"10s"`
	RedisAddr string        `envconfig:"REDIS_ADDR"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"12h"`
}

// RetryConfig configures the resilient call wrapper around extraction calls.
type RetryConfig struct {
	Attempts  int           `envconfig:"ATTEMPTS" default:"7"`
	BaseDelay time.Duration `envconfig:"BASE_DELAY" default:"15s"`
	MaxJitter time.Duration `envconfig:"MAX_JITTER" default:"2s"`
}

// BatchConfig configures how multi-page documents are scheduled.
type BatchConfig struct {
	PageDelay   time.Duration `envconfig:"PAGE_DELAY" default:"2s"`
	Concurrency int           `envconfig:"CONCURRENCY" default:"3"`
}

// RulesConfig holds the empirical thresholds of the heuristics.
type RulesConfig struct {
	SwapRejectionBias    float64  `envconfig:"SWAP_REJECTION_BIAS" default:"0.5"`
	NameOverlapThreshold float64  `envconfig:"NAME_OVERLAP_THRESHOLD" default:"0.6"`
	PlaceholderDates     []string `envconfig:"PLACEHOLDER_DATES" default:"-,N/A,..,."`
	CategoryRulesFile    string   `envconfig:"CATEGORY_RULES_FILE"`
}

// JobsConfig sizes the in-memory job queue.
type JobsConfig struct {
	BufferSize int `envconfig:"BUFFER_SIZE" default:"100"`
	Workers    int `envconfig:"WORKERS" default:"5"`
	MaxRetries int `envconfig:"MAX_RETRIES" default:"3"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	c.ReportingCurrency = strings.ToUpper(strings.TrimSpace(c.ReportingCurrency))
	if len(c.ReportingCurrency) != 3 {
		return fmt.Errorf("config: reporting currency %q is not an ISO code", c.ReportingCurrency)
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("config: retry attempts must be positive, got %d", c.Retry.Attempts)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("config: batch concurrency must be positive, got %d", c.Batch.Concurrency)
	}
	if c.Rules.NameOverlapThreshold <= 0 || c.Rules.NameOverlapThreshold > 1 {
		return fmt.Errorf("config: name overlap threshold must be in (0,1], got %v", c.Rules.NameOverlapThreshold)
	}
	if c.Rules.SwapRejectionBias < 0 {
		return fmt.Errorf("config: swap rejection bias must not be negative, got %v", c.Rules.SwapRejectionBias)
	}
	if c.ArchiveDataset != "" && c.GCPProject == "" {
		return fmt.Errorf("config: archive dataset %q needs a GCP project", c.ArchiveDataset)
	}
	return nil
}
