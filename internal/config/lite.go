// Package config provides configuration management for the servers.
// This file contains the lightweight configuration for the standalone tool server.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/oncology-insights-server/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no external databases and uses sensible defaults.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for the SQLite audit database and exports

	// Cache settings
	CacheMaxItems int           // Maximum cBioPortal responses held in memory
	CacheTTL      time.Duration // Lifetime of a cached cBioPortal response

	// cBioPortal settings
	CBioPortalURL       string
	CBioPortalRateLimit int // requests per second

	// Transport settings
	Transport string // Transport type: stdio, http
	HTTPPort  int    // HTTP port (if transport is http)

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".oncology-insights")

	return &LiteConfig{
		DataDir:             dataDir,
		CacheMaxItems:       500,
		CacheTTL:            time.Hour,
		CBioPortalURL:       "https://www.cbioportal.org/api",
		CBioPortalRateLimit: 5,
		Transport:           "stdio",
		HTTPPort:            8081,
		LogLevel:            "info",
		LogFormat:           "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("ONCO_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Cache settings
	if v := os.Getenv("ONCO_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("ONCO_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}

	if v := os.Getenv("ONCO_CBIOPORTAL_URL"); v != "" {
		cfg.CBioPortalURL = v
	}
	if v := os.Getenv("ONCO_CBIOPORTAL_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CBioPortalRateLimit = n
		}
	}

	// Transport
	if v := os.Getenv("ONCO_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("ONCO_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	// Logging
	if v := os.Getenv("ONCO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ONCO_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// AuditDBPath returns the path to the prediction audit SQLite database.
func (c *LiteConfig) AuditDBPath() string {
	return filepath.Join(c.DataDir, "predictions.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}

// CBioPortal returns the upstream client settings of the standalone server
func (c *LiteConfig) CBioPortal() domain.CBioPortalConfig {
	return domain.CBioPortalConfig{
		BaseURL:          c.CBioPortalURL,
		Timeout:          30 * time.Second,
		RateLimit:        c.CBioPortalRateLimit,
		CacheTTL:         c.CacheTTL,
		BreakerTimeout:   time.Minute,
		BreakerThreshold: 5,
	}
}

// Logging returns the logger settings. The standalone server always logs to
// stderr since stdout carries the protocol stream.
func (c *LiteConfig) Logging() domain.LoggingConfig {
	return domain.LoggingConfig{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: "stderr",
	}
}
