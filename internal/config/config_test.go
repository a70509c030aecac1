package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"CATALOG_BASE_URL":  "http://catalog.local",
		"CUSTOMER_BASE_URL": "http://customers.local",
		"SALES_BASE_URL":    "http://sales.local",
		"SETTINGS_BASE_URL": "http://settings.local",
		"WAREHOUSE_ID":      "wh-main",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8090", cfg.HTTPAddr())
	require.Equal(t, "UZS", cfg.LedgerCurrency)
	require.Equal(t, time.Minute, cfg.RateCacheTTL)
	require.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
}

func TestLoadRequiresCollaborators(t *testing.T) {
	env := baseEnv()
	env["SALES_BASE_URL"] = ""
	_, err := config.LoadForTests(env)
	require.Error(t, err)
	require.Contains(t, err.Error(), "SALES_BASE_URL")
}

func TestLoadParsesOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9091"
	env["RATE_CACHE_TTL"] = "30s"
	env["CORS_ALLOWED_ORIGINS"] = "http://pos.local, http://backoffice.local"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9091", cfg.HTTPAddr())
	require.Equal(t, 30*time.Second, cfg.RateCacheTTL)
	require.Equal(t, []string{"http://pos.local", "http://backoffice.local"}, cfg.CORSAllowedOrigins)
}

func TestLoadFallsBackOnBadDuration(t *testing.T) {
	env := baseEnv()
	env["RATE_CACHE_TTL"] = "not-a-duration"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, time.Minute, cfg.RateCacheTTL)
}
