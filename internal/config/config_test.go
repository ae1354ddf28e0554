package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpwell/funnel-pricing/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"APP_ENV":           "",
		"PORT":              "",
		"DATABASE_URL":      "",
		"REDIS_URL":         "",
		"TAX_BPS":           "",
		"POINTS_PER_DOLLAR": "",
		"RATE_LIMIT_WINDOW": "",
		"RATE_LIMIT_MAX":    "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Empty(t, cfg.DatabaseURL)
	require.Empty(t, cfg.OrderEngineBaseURL, "no order engine means the in-memory fallback")
	require.Equal(t, 0, cfg.TaxBps)
	require.Equal(t, 10, cfg.PointsPerDollar)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
	require.Equal(t, 120, cfg.RateLimitMax)
	require.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"PORT":                  "9090",
		"TAX_BPS":               "825",
		"POINTS_PER_DOLLAR":     "20",
		"ORDER_ENGINE_BASE_URL": "https://orders.internal",
		"CORS_ALLOWED_ORIGINS":  "https://a.example, https://b.example",
		"OFFER_CACHE_TTL":       "30s",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 825, cfg.TaxBps)
	require.Equal(t, 20, cfg.PointsPerDollar)
	require.Equal(t, "https://orders.internal", cfg.OrderEngineBaseURL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 30*time.Second, cfg.OfferCacheTTL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{"TAX_BPS": "20000"})
	require.Error(t, err)

	_, err = config.LoadForTests(map[string]string{"TAX_BPS": "", "POINTS_PER_DOLLAR": "-1"})
	require.Error(t, err)
}
