package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "https://www.cbioportal.org/api", cfg.CBioPortalURL)
	assert.Equal(t, "stdio", cfg.Transport)
	assert.Equal(t, 8081, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, 5, cfg.CBioPortalRateLimit)
	assert.Equal(t, "stdio", cfg.Transport)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("ONCO_DATA_DIR", "/tmp/test-onco")
	t.Setenv("ONCO_CACHE_MAX_ITEMS", "50")
	t.Setenv("ONCO_CACHE_TTL", "10m")
	t.Setenv("ONCO_CBIOPORTAL_URL", "http://localhost:9999/api")
	t.Setenv("ONCO_CBIOPORTAL_RATE_LIMIT", "2")
	t.Setenv("ONCO_TRANSPORT", "http")
	t.Setenv("ONCO_HTTP_PORT", "9090")
	t.Setenv("ONCO_LOG_LEVEL", "debug")

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-onco", cfg.DataDir)
	assert.Equal(t, 50, cfg.CacheMaxItems)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "http://localhost:9999/api", cfg.CBioPortalURL)
	assert.Equal(t, 2, cfg.CBioPortalRateLimit)
	assert.Equal(t, "http", cfg.Transport)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadLiteConfig_IgnoresMalformedNumbers(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ONCO_CACHE_MAX_ITEMS", "many")
	t.Setenv("ONCO_HTTP_PORT", "-1")

	cfg := LoadLiteConfig()

	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, 8081, cfg.HTTPPort)
}

func TestLiteConfig_Paths(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.oncology-insights"}

	assert.Equal(t, "/home/user/.oncology-insights/predictions.db", cfg.AuditDBPath())
	assert.Equal(t, "/home/user/.oncology-insights/exports", cfg.ExportDir())
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	cfg := &LiteConfig{DataDir: filepath.Join(t.TempDir(), "onco")}

	err := cfg.EnsureDataDir()
	require.NoError(t, err)

	_, err = os.Stat(cfg.DataDir)
	assert.NoError(t, err)

	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"ONCO_DATA_DIR",
		"ONCO_CACHE_MAX_ITEMS",
		"ONCO_CACHE_TTL",
		"ONCO_CBIOPORTAL_URL",
		"ONCO_CBIOPORTAL_RATE_LIMIT",
		"ONCO_TRANSPORT",
		"ONCO_HTTP_PORT",
		"ONCO_LOG_LEVEL",
		"ONCO_LOG_FORMAT",
	}
	for _, v := range vars {
		// t.Setenv restores the previous value after the test
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestLiteConfig_Derived(t *testing.T) {
	cfg := DefaultLiteConfig()
	cfg.CBioPortalURL = "http://portal.test/api"
	cfg.CBioPortalRateLimit = 3

	cb := cfg.CBioPortal()
	assert.Equal(t, "http://portal.test/api", cb.BaseURL)
	assert.Equal(t, 3, cb.RateLimit)
	assert.Equal(t, cfg.CacheTTL, cb.CacheTTL)
	assert.NotZero(t, cb.BreakerThreshold)

	logCfg := cfg.Logging()
	assert.Equal(t, "stderr", logCfg.Output)
	assert.Equal(t, cfg.LogLevel, logCfg.Level)
}
