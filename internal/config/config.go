package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingDatabaseURL is returned when no store connection string is set.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

const (
	ModeContinuous = "continuous"
	EnvProduction  = "production"
)

type Config struct {
	DatabaseURL  string
	StoreTimeout time.Duration

	ExternalURL       string
	Env               string
	Port              string
	KeepAliveInterval time.Duration

	Mode        string
	Delay       time.Duration
	ErrorDelay  time.Duration
	UnitRetries int

	CatalogFile string

	Overpass OverpassConfig
	Logging  LoggingConfig
}

type OverpassConfig struct {
	URL      string
	Timeout  time.Duration
	Cooldown time.Duration
	// MinInterval is the floor between two outbound queries. Zero disables it.
	MinInterval    time.Duration
	TLSFingerprint string
	ProxyURL       string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Default() *Config {
	return &Config{
		StoreTimeout:      10 * time.Second,
		Env:               "development",
		Port:              "3001",
		KeepAliveInterval: 14 * time.Minute,
		Mode:              ModeContinuous,
		Delay:             3000 * time.Millisecond,
		ErrorDelay:        10 * time.Second,
		UnitRetries:       3,
		Overpass: OverpassConfig{
			URL:         "https://overpass-api.de/api/interpreter",
			Timeout:     50 * time.Second,
			Cooldown:    60 * time.Second,
			MinInterval: 3000 * time.Millisecond,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadDotEnv loads ./.env into the environment when present. Variables that
// are already set win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	LoadDotEnv()

	cfg := Default()
	cfg.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv overrides defaults with environment values. Unparseable numbers
// keep their defaults.
func (c *Config) LoadFromEnv() {
	c.DatabaseURL = envString("DATABASE_URL", c.DatabaseURL)
	c.StoreTimeout = envSeconds("STORE_TIMEOUT_SECONDS", c.StoreTimeout)

	c.ExternalURL = strings.TrimRight(envString("EXTERNAL_URL", envString("RENDER_EXTERNAL_URL", c.ExternalURL)), "/")
	c.Env = envString("APP_ENV", c.Env)
	c.Port = envString("PORT", c.Port)
	if n := envInt("KEEPALIVE_INTERVAL_MINUTES", 0); n > 0 {
		c.KeepAliveInterval = time.Duration(n) * time.Minute
	}

	c.Mode = envString("IMPORT_MODE", c.Mode)
	c.Delay = envMillis("IMPORT_DELAY_MS", c.Delay)
	c.ErrorDelay = envMillis("IMPORT_ERROR_DELAY_MS", c.ErrorDelay)
	if n := envInt("IMPORT_MAX_UNIT_RETRIES", 0); n > 0 {
		c.UnitRetries = n
	}

	c.CatalogFile = envString("CATALOG_FILE", c.CatalogFile)

	c.Overpass.URL = envString("OVERPASS_URL", c.Overpass.URL)
	c.Overpass.Timeout = envSeconds("OVERPASS_TIMEOUT_SECONDS", c.Overpass.Timeout)
	c.Overpass.Cooldown = envSeconds("OVERPASS_COOLDOWN_SECONDS", c.Overpass.Cooldown)
	// the query floor follows the pacing delay unless set on its own
	c.Overpass.MinInterval = envMillis("OVERPASS_MIN_INTERVAL_MS", c.Delay)
	c.Overpass.TLSFingerprint = envString("OVERPASS_TLS_FINGERPRINT", c.Overpass.TLSFingerprint)
	c.Overpass.ProxyURL = envString("OVERPASS_PROXY_URL", c.Overpass.ProxyURL)

	c.Logging.Level = envString("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = envString("LOG_FORMAT", c.Logging.Format)
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
		if !c.IsProduction() {
			c.Logging.Format = "console"
		}
	}
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}

	var errs []error
	if c.Mode != ModeContinuous {
		errs = append(errs, fmt.Errorf("IMPORT_MODE %q is not supported, only %q", c.Mode, ModeContinuous))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT %q is not a number", c.Port))
	}
	if c.ExternalURL != "" && !strings.HasPrefix(c.ExternalURL, "http://") && !strings.HasPrefix(c.ExternalURL, "https://") {
		errs = append(errs, fmt.Errorf("EXTERNAL_URL %q must be an http(s) URL", c.ExternalURL))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// KeepAliveEnabled reports whether the self-ping should run.
func (c *Config) KeepAliveEnabled() bool {
	return c.IsProduction() && c.ExternalURL != ""
}

// KeepAliveDisabledReason explains a disabled self-ping for the startup log.
func (c *Config) KeepAliveDisabledReason() string {
	switch {
	case !c.IsProduction():
		return "not running in production"
	case c.ExternalURL == "":
		return "EXTERNAL_URL is not set"
	default:
		return ""
	}
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envMillis(key string, def time.Duration) time.Duration {
	n := envInt(key, -1)
	if n < 0 {
		return def
	}
	return time.Duration(n) * time.Millisecond
}

func envSeconds(key string, def time.Duration) time.Duration {
	n := envInt(key, 0)
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
