// Package config provides environment-based configuration for the server
// and CLI commands.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cast"

	"github.com/avelar/sitegauge/internal/artifacts"
)

// Config holds every runtime setting. All fields come from the
// environment; missing values use defaults. DatabaseURL is optional:
// without it the server runs in local-fallback-only mode.
type Config struct {
	// Server
	Port    string
	LogMode string // "dev" or "prod"
	LogFile string

	// Storage
	DatabaseURL    string
	FallbackDBPath string
	ArtifactsDir   string
	S3             artifacts.S3Config

	// Auditing
	PageSpeedAPIKey string
	LighthouseBin   string
	AuditDelay      time.Duration
}

// FromEnv builds a Config from the process environment. The caller is
// expected to have loaded any .env file first.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:            envOr("PORT", "8080"),
		LogMode:         envOr("LOG_MODE", "prod"),
		LogFile:         os.Getenv("LOG_FILE"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		FallbackDBPath:  envOr("FALLBACK_DB_PATH", "data/fallback.db"),
		ArtifactsDir:    envOr("ARTIFACTS_DIR", "data/artifacts"),
		PageSpeedAPIKey: os.Getenv("PAGESPEED_API_KEY"),
		LighthouseBin:   os.Getenv("LIGHTHOUSE_BIN"),
		S3: artifacts.S3Config{
			ServiceURL: os.Getenv("S3_SERVICE_URL"),
			AccessKey:  os.Getenv("S3_ACCESS_KEY"),
			SecretKey:  os.Getenv("S3_SECRET_KEY"),
			Bucket:     os.Getenv("S3_BUCKET"),
		},
	}

	delayMS, err := cast.ToIntE(envOr("AUDIT_DELAY_MS", "1000"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse AUDIT_DELAY_MS: %w", err)
	}
	cfg.AuditDelay = time.Duration(delayMS) * time.Millisecond

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field consistency.
func (c *Config) Validate() error {
	if c.LogMode != "dev" && c.LogMode != "prod" {
		return fmt.Errorf("config error: LOG_MODE must be \"dev\" or \"prod\", got %q", c.LogMode)
	}
	if c.AuditDelay < 0 {
		return fmt.Errorf("config error: AUDIT_DELAY_MS must be non-negative")
	}
	if c.FallbackDBPath == "" {
		return fmt.Errorf("config error: FALLBACK_DB_PATH must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
