package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoading(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "development", config.Environment)
		assert.Equal(t, 8080, config.Port)
		assert.Equal(t, "info", config.LogLevel)
		assert.Equal(t, 20, config.Database.MaxOpenConns)
		assert.Equal(t, 300, config.Cache.TTL)
		assert.Equal(t, 60, config.Tenants.CacheTTL)
		assert.Equal(t, 50, config.Analytics.MaxOrderLines)
		assert.Equal(t, 6, config.Analytics.RiskWindowMonths)
	})

	t.Run("env var precedence", func(t *testing.T) {
		os.Setenv("SALESCOPE_PORT", "7777")
		os.Setenv("SALESCOPE_LOG_LEVEL", "warn")
		defer func() {
			os.Unsetenv("SALESCOPE_PORT")
			os.Unsetenv("SALESCOPE_LOG_LEVEL")
		}()

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 7777, config.Port)
		assert.Equal(t, "warn", config.LogLevel)
	})
}

func TestConfigValidation(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:     8080,
			Database: DatabaseConfig{DSN: "postgres://localhost/salescope"},
			Cache:    CacheConfig{TTL: 300},
			Tenants:  TenantConfig{CacheTTL: 60},
			Analytics: AnalyticsConfig{
				MinSupport:       0.01,
				MinConfidence:    0.2,
				MaxOrderLines:    50,
				RiskWindowMonths: 6,
			},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, validateConfig(base()))
	})

	t.Run("missing dsn rejected", func(t *testing.T) {
		c := base()
		c.Database.DSN = ""
		assert.Error(t, validateConfig(c))
	})

	t.Run("bad port rejected", func(t *testing.T) {
		c := base()
		c.Port = 0
		assert.Error(t, validateConfig(c))
	})

	t.Run("support outside unit interval rejected", func(t *testing.T) {
		c := base()
		c.Analytics.MinSupport = 1.5
		assert.Error(t, validateConfig(c))
	})

	t.Run("rate limit needs positive budget when enabled", func(t *testing.T) {
		c := base()
		c.RateLimit = RateLimitConfig{Enabled: true, RequestsPerMinute: 0}
		assert.Error(t, validateConfig(c))
	})
}
