package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from various sources with priority order:
// 1. Environment variables
// 2. Configuration file (config.yaml)
// 3. Default values
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/salescope/")
	v.AddConfigPath("./configs/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("SALESCOPE")

	setDefaults(v)

	// Config file is optional; env vars and defaults cover a full setup.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	v.SetDefault("database.dsn", "postgres://localhost:5432/salescope?sslmode=disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("cache.addr", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 300) // 5 minutes

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 3600)

	v.SetDefault("tenants.cache_ttl", 60)

	v.SetDefault("analytics.min_support", 0.01)
	v.SetDefault("analytics.min_confidence", 0.2)
	v.SetDefault("analytics.max_order_lines", 50)
	v.SetDefault("analytics.risk_window_months", 6)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 120)
}

func validateConfig(config *Config) error {
	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d", config.Port)
	}
	if config.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if config.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if config.Tenants.CacheTTL <= 0 {
		return fmt.Errorf("tenants.cache_ttl must be positive")
	}
	if config.Analytics.MinSupport < 0 || config.Analytics.MinSupport > 1 {
		return fmt.Errorf("analytics.min_support must be within [0, 1]")
	}
	if config.Analytics.MinConfidence < 0 || config.Analytics.MinConfidence > 1 {
		return fmt.Errorf("analytics.min_confidence must be within [0, 1]")
	}
	if config.Analytics.MaxOrderLines <= 0 {
		return fmt.Errorf("analytics.max_order_lines must be positive")
	}
	if config.Analytics.RiskWindowMonths <= 0 {
		return fmt.Errorf("analytics.risk_window_months must be positive")
	}
	if config.RateLimit.Enabled && config.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive when enabled")
	}
	return nil
}
