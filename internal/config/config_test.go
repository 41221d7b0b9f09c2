package config

import (
	"errors"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		KoladaBaseURL:      DefaultBaseURL,
		KoladaPageSize:     DefaultPageSize,
		HTTPTimeout:        30 * time.Second,
		MaxRetries:         3,
		RetryBaseDelay:     time.Second,
		RateLimit:          10,
		CacheTTL:           15 * time.Minute,
		IndexPath:          DefaultIndexPath,
		EmbedderModel:      DefaultEmbedderModel,
		EmbeddingDimension: DefaultEmbeddingDimension,
		LogLevel:           "info",
	}
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() on valid config: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "bad base URL scheme",
			mutate:  func(c *Config) { c.KoladaBaseURL = "ftp://api.kolada.se" },
			wantErr: ErrInvalidBaseURL,
		},
		{
			name:    "empty base URL",
			mutate:  func(c *Config) { c.KoladaBaseURL = "" },
			wantErr: ErrInvalidBaseURL,
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.KoladaPageSize = 0 },
			wantErr: ErrInvalidPageSize,
		},
		{
			name:    "oversized page size",
			mutate:  func(c *Config) { c.KoladaPageSize = 100000 },
			wantErr: ErrInvalidPageSize,
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.MaxRetries = -1 },
			wantErr: ErrInvalidRetries,
		},
		{
			name:    "zero cache TTL",
			mutate:  func(c *Config) { c.CacheTTL = 0 },
			wantErr: ErrInvalidCacheTTL,
		},
		{
			name:    "zero dimension",
			mutate:  func(c *Config) { c.EmbeddingDimension = 0 },
			wantErr: ErrInvalidDimension,
		},
		{
			name:    "missing index path",
			mutate:  func(c *Config) { c.IndexPath = "" },
			wantErr: ErrMissingIndexPath,
		},
		{
			name:    "missing embedder model",
			mutate:  func(c *Config) { c.EmbedderModel = "" },
			wantErr: ErrMissingEmbedderModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	// Load falls back to defaults when no config file is present.
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}

	if cfg.KoladaBaseURL != DefaultBaseURL {
		t.Errorf("KoladaBaseURL = %q, want %q", cfg.KoladaBaseURL, DefaultBaseURL)
	}
	if cfg.KoladaPageSize != DefaultPageSize {
		t.Errorf("KoladaPageSize = %d, want %d", cfg.KoladaPageSize, DefaultPageSize)
	}
	if cfg.EmbeddingDimension != DefaultEmbeddingDimension {
		t.Errorf("EmbeddingDimension = %d, want %d", cfg.EmbeddingDimension, DefaultEmbeddingDimension)
	}
	if cfg.CacheTTL != 15*time.Minute {
		t.Errorf("CacheTTL = %s, want 15m", cfg.CacheTTL)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KOLADA_KOLADA_PAGE_SIZE", "100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.KoladaPageSize != 100 {
		t.Errorf("KoladaPageSize = %d, want 100 (env override)", cfg.KoladaPageSize)
	}
}
