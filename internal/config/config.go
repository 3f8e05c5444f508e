package config

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Port        int    `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	CORS      CORSConfig      `mapstructure:"cors" yaml:"cors"`
	Tenants   TenantConfig    `mapstructure:"tenants" yaml:"tenants"`
	Analytics AnalyticsConfig `mapstructure:"analytics" yaml:"analytics"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// DatabaseConfig describes the shared Postgres pool. Every tenant lives in
// its own schema inside this one store.
type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

// CacheConfig configures the Redis-backed result cache. When Addr is empty
// the server falls back to the in-process cache.
type CacheConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	TTL      int    `mapstructure:"ttl" yaml:"ttl"` // seconds
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

// TenantConfig tunes the tenant directory lookup cache.
type TenantConfig struct {
	CacheTTL int `mapstructure:"cache_ttl" yaml:"cache_ttl"` // seconds
}

// AnalyticsConfig carries the aggregation knobs shared by all tenants.
type AnalyticsConfig struct {
	MinSupport       float64 `mapstructure:"min_support" yaml:"min_support"`
	MinConfidence    float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
	MaxOrderLines    int     `mapstructure:"max_order_lines" yaml:"max_order_lines"`
	RiskWindowMonths int     `mapstructure:"risk_window_months" yaml:"risk_window_months"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}
