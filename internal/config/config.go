// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables with the KOLADA_ prefix (runtime override)
//  2. Config file (~/.kolada-mcp/config.yaml or ./config.yaml)
//  3. Default values
//
// Error handling uses sentinel errors so callers can check with errors.Is()
// and wrap with fmt.Errorf("%w: details", ErrXxx).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidBaseURL indicates the Kolada API base URL is invalid.
	ErrInvalidBaseURL = errors.New("invalid kolada base URL")

	// ErrInvalidPageSize indicates the upstream page size is out of range.
	ErrInvalidPageSize = errors.New("invalid page size")

	// ErrInvalidRetries indicates the retry count is out of range.
	ErrInvalidRetries = errors.New("invalid max retries")

	// ErrInvalidCacheTTL indicates the observation cache TTL is invalid.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL")

	// ErrInvalidDimension indicates the embedding dimension is invalid.
	ErrInvalidDimension = errors.New("invalid embedding dimension")

	// ErrMissingIndexPath indicates no embedding index artifact path is set.
	ErrMissingIndexPath = errors.New("missing index path")

	// ErrMissingEmbedderModel indicates no embedder model is configured.
	ErrMissingEmbedderModel = errors.New("missing embedder model")
)

// Defaults for the Kolada upstream API and the embedding stack.
const (
	// DefaultBaseURL is the public Kolada v2 API endpoint.
	DefaultBaseURL = "https://api.kolada.se/v2"

	// DefaultPageSize matches the largest page the Kolada API serves.
	DefaultPageSize = 5000

	// DefaultEmbedderModel is the Gemini embedder used for KPI search.
	// Output is truncated to DefaultEmbeddingDimension via Matryoshka
	// representation learning.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultEmbeddingDimension is the vector width of the shipped index.
	DefaultEmbeddingDimension = 768

	// DefaultIndexPath is the embedding index artifact location.
	DefaultIndexPath = "kpi_embeddings.db"
)

// Config stores application configuration.
type Config struct {
	// Kolada upstream API
	KoladaBaseURL  string        `mapstructure:"kolada_base_url"`
	KoladaPageSize int           `mapstructure:"kolada_page_size"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	RateLimit      float64       `mapstructure:"rate_limit"` // requests per second, 0 = unlimited

	// Observation cache
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// Embedding index
	IndexPath          string `mapstructure:"index_path"`
	EmbedderModel      string `mapstructure:"embedder_model"`
	EmbeddingDimension int    `mapstructure:"embedding_dimension"`

	// Serve mode
	ServeAddr string `mapstructure:"serve_addr"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load reads configuration from file, environment, and defaults.
// A missing config file is not an error; defaults apply.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".kolada-mcp"))
	}
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("KOLADA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("kolada_base_url", DefaultBaseURL)
	v.SetDefault("kolada_page_size", DefaultPageSize)
	v.SetDefault("http_timeout", 30*time.Second)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_base_delay", time.Second)
	v.SetDefault("rate_limit", 10.0)

	v.SetDefault("cache_ttl", 15*time.Minute)

	v.SetDefault("index_path", DefaultIndexPath)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("embedding_dimension", DefaultEmbeddingDimension)

	v.SetDefault("serve_addr", "127.0.0.1:8001")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// Validate checks the configuration for values that would break startup.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.KoladaBaseURL, "http://") && !strings.HasPrefix(c.KoladaBaseURL, "https://") {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.KoladaBaseURL)
	}
	if c.KoladaPageSize <= 0 || c.KoladaPageSize > 10000 {
		return fmt.Errorf("%w: %d (must be 1..10000)", ErrInvalidPageSize, c.KoladaPageSize)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("%w: %d (must be 0..10)", ErrInvalidRetries, c.MaxRetries)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCacheTTL, c.CacheTTL)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDimension, c.EmbeddingDimension)
	}
	if c.IndexPath == "" {
		return ErrMissingIndexPath
	}
	if c.EmbedderModel == "" {
		return ErrMissingEmbedderModel
	}
	return nil
}
