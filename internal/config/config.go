package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CatalogBaseURL     string
	CustomerBaseURL    string
	SalesBaseURL       string
	SettingsBaseURL    string
	WarehouseID        string
	LedgerCurrency     string
	CORSAllowedOrigins []string
	RateCacheTTL       time.Duration
	SavedCartTTL       time.Duration
	UpstreamTimeout    time.Duration
	SubmitTimeout      time.Duration

	LogFormat            string
	LogLevel             string
	MetricsBuckets       string
	TracingEnabled       bool
	TracingEndpoint      string
	TracingSamplingRatio float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8090"),
		RedisURL:           k.String("REDIS_URL"),
		CatalogBaseURL:     k.String("CATALOG_BASE_URL"),
		CustomerBaseURL:    k.String("CUSTOMER_BASE_URL"),
		SalesBaseURL:       k.String("SALES_BASE_URL"),
		SettingsBaseURL:    k.String("SETTINGS_BASE_URL"),
		WarehouseID:        k.String("WAREHOUSE_ID"),
		LedgerCurrency:     valueOrDefault(k.String("LEDGER_CURRENCY"), "UZS"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		RateCacheTTL:       parseDuration(k.String("RATE_CACHE_TTL"), "1m"),
		SavedCartTTL:       parseDuration(k.String("SAVED_CART_TTL"), "72h"),
		UpstreamTimeout:    parseDuration(k.String("UPSTREAM_TIMEOUT"), "5s"),
		SubmitTimeout:      parseDuration(k.String("SUBMIT_TIMEOUT"), "15s"),

		LogFormat:            valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:             valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsBuckets:       k.String("METRICS_BUCKETS_MS"),
		TracingEnabled:       strings.EqualFold(k.String("TRACING_ENABLED"), "true"),
		TracingEndpoint:      k.String("TRACING_ENDPOINT"),
		TracingSamplingRatio: parseFloat(k.String("TRACING_SAMPLING_RATIO"), 1),
	}

	if cfg.CatalogBaseURL == "" {
		return nil, errors.New("CATALOG_BASE_URL is required")
	}
	if cfg.CustomerBaseURL == "" {
		return nil, errors.New("CUSTOMER_BASE_URL is required")
	}
	if cfg.SalesBaseURL == "" {
		return nil, errors.New("SALES_BASE_URL is required")
	}
	if cfg.SettingsBaseURL == "" {
		return nil, errors.New("SETTINGS_BASE_URL is required")
	}
	if cfg.WarehouseID == "" {
		return nil, errors.New("WAREHOUSE_ID is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8090"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
