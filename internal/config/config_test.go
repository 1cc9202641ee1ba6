package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"DATABASE_URL", "STORE_TIMEOUT_SECONDS", "EXTERNAL_URL", "RENDER_EXTERNAL_URL", "APP_ENV",
	"PORT", "KEEPALIVE_INTERVAL_MINUTES", "IMPORT_MODE", "IMPORT_DELAY_MS", "IMPORT_ERROR_DELAY_MS",
	"CATALOG_FILE", "OVERPASS_URL", "OVERPASS_TIMEOUT_SECONDS", "OVERPASS_COOLDOWN_SECONDS",
	"OVERPASS_TLS_FINGERPRINT", "OVERPASS_PROXY_URL", "LOG_LEVEL", "LOG_FORMAT",
	"OVERPASS_MIN_INTERVAL_MS", "IMPORT_MAX_UNIT_RETRIES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/poi")

	cfg := Default()
	cfg.LoadFromEnv()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, ":3001", cfg.Addr())
	assert.Equal(t, 3000*time.Millisecond, cfg.Delay)
	assert.Equal(t, 10*time.Second, cfg.ErrorDelay)
	assert.Equal(t, ModeContinuous, cfg.Mode)
	assert.Equal(t, 50*time.Second, cfg.Overpass.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Overpass.Cooldown)
	assert.Equal(t, 3000*time.Millisecond, cfg.Overpass.MinInterval)
	assert.Equal(t, 3, cfg.UnitRetries)
	assert.Equal(t, 14*time.Minute, cfg.KeepAliveInterval)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.False(t, cfg.KeepAliveEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "sqlite:///tmp/poi.db")
	t.Setenv("PORT", "8080")
	t.Setenv("IMPORT_DELAY_MS", "250")
	t.Setenv("IMPORT_ERROR_DELAY_MS", "0")
	t.Setenv("OVERPASS_TIMEOUT_SECONDS", "20")
	t.Setenv("APP_ENV", "production")
	t.Setenv("RENDER_EXTERNAL_URL", "https://poi.example.com/")
	t.Setenv("KEEPALIVE_INTERVAL_MINUTES", "5")

	cfg := Default()
	cfg.LoadFromEnv()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Delay)
	assert.Equal(t, time.Duration(0), cfg.ErrorDelay)
	assert.Equal(t, 20*time.Second, cfg.Overpass.Timeout)
	assert.Equal(t, "https://poi.example.com", cfg.ExternalURL)
	assert.Equal(t, 5*time.Minute, cfg.KeepAliveInterval)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.KeepAliveEnabled())
	assert.Empty(t, cfg.KeepAliveDisabledReason())
}

func TestExternalURLPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXTERNAL_URL", "https://primary.example.com")
	t.Setenv("RENDER_EXTERNAL_URL", "https://fallback.example.com")

	cfg := Default()
	cfg.LoadFromEnv()
	assert.Equal(t, "https://primary.example.com", cfg.ExternalURL)
}

func TestInvalidNumbersKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("IMPORT_DELAY_MS", "soon")
	t.Setenv("OVERPASS_COOLDOWN_SECONDS", "-4")
	t.Setenv("KEEPALIVE_INTERVAL_MINUTES", "x")

	cfg := Default()
	cfg.LoadFromEnv()

	assert.Equal(t, 3000*time.Millisecond, cfg.Delay)
	assert.Equal(t, 60*time.Second, cfg.Overpass.Cooldown)
	assert.Equal(t, 14*time.Minute, cfg.KeepAliveInterval)
}

func TestMissingDatabaseURL(t *testing.T) {
	clearEnv(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = Load()
	assert.ErrorIs(t, err, ErrMissingDatabaseURL)
}

func TestValidateAggregates(t *testing.T) {
	cfg := Default()
	cfg.DatabaseURL = "postgres://localhost/poi"
	cfg.Mode = "batch"
	cfg.Port = "http"
	cfg.ExternalURL = "poi.example.com"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMPORT_MODE")
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "EXTERNAL_URL")
}

func TestKeepAliveDisabledReason(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "not running in production", cfg.KeepAliveDisabledReason())

	cfg.Env = EnvProduction
	assert.Equal(t, "EXTERNAL_URL is not set", cfg.KeepAliveDisabledReason())
	assert.False(t, cfg.KeepAliveEnabled())
}

func TestMinIntervalFollowsDelay(t *testing.T) {
	clearEnv(t)
	t.Setenv("IMPORT_DELAY_MS", "500")

	cfg := Default()
	cfg.LoadFromEnv()
	assert.Equal(t, 500*time.Millisecond, cfg.Overpass.MinInterval)

	t.Setenv("OVERPASS_MIN_INTERVAL_MS", "1200")
	t.Setenv("IMPORT_MAX_UNIT_RETRIES", "5")
	cfg = Default()
	cfg.LoadFromEnv()
	assert.Equal(t, 1200*time.Millisecond, cfg.Overpass.MinInterval)
	assert.Equal(t, 5, cfg.UnitRetries)

	t.Setenv("OVERPASS_MIN_INTERVAL_MS", "0")
	cfg = Default()
	cfg.LoadFromEnv()
	assert.Zero(t, cfg.Overpass.MinInterval)
}
