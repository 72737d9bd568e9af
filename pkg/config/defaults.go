package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultAddress         = "127.0.0.1:4000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// CORS defaults
	DefaultCORSEnabled       = true
	DefaultCORSAllowedOrigin = "*"
	DefaultCORSMaxAge        = 1728000 // 20 days

	// Upstream defaults
	DefaultUpstreamTimeout      = 30 * time.Second
	DefaultUpstreamMaxRedirects = 10

	// Cache defaults
	DefaultCacheEnabled       = true
	DefaultCacheMaxCapacity   = 1000
	DefaultCacheMaxMemory     = int64(104857600) // 100MB
	DefaultCacheTimeToLive    = time.Hour
	DefaultCachePurgeSchedule = "@every 5m"

	// Rate limit defaults
	DefaultRateLimitEnabled           = true
	DefaultRateLimitRequestsPerMinute = 60
	DefaultRateLimitSweepSchedule     = "@every 1m"
	DefaultRateLimitIdleAfter         = 5 * time.Minute
	DefaultStatsBackend               = "none"
	DefaultRedisAddress               = "127.0.0.1:6379"
	DefaultRedisPrefix                = "ghproxy:ratelimit:stats"
	DefaultRedisTTL                   = 24 * time.Hour

	// jsDelivr defaults
	DefaultJSDelivrMirrorHost = "gcore.jsdelivr.net"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultPrometheusPath     = "/metrics"
	DefaultMetricsNamespace   = "ghproxy"
	DefaultMetricsSubsystem   = "relay"
	DefaultHealthEnabled      = true
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/ready"
	DefaultVersionPath        = "/version"
	DefaultHealthCheckTimeout = 5 * time.Second
)

// DefaultCORSAllowedMethods is the method list sent in preflight responses.
var DefaultCORSAllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "TRACE", "DELETE", "HEAD", "OPTIONS"}

// NewDefaultConfig returns a configuration with every field set to its
// default, including the boolean sections that default to enabled.
// YAML files are decoded on top of it, so absent keys keep these values.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			CORS: CORSConfig{Enabled: DefaultCORSEnabled},
		},
		Upstream: UpstreamConfig{
			MaxRedirects: DefaultUpstreamMaxRedirects,
		},
		Cache: CacheConfig{
			Enabled:       DefaultCacheEnabled,
			PurgeSchedule: DefaultCachePurgeSchedule,
		},
		RateLimit: RateLimitConfig{
			Enabled:       DefaultRateLimitEnabled,
			SweepSchedule: DefaultRateLimitSweepSchedule,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Health:  HealthConfig{Enabled: DefaultHealthEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
//
// Booleans, schedules and upstream.max_redirects cannot be told apart from
// an explicit false, empty or zero here; NewDefaultConfig sets them and is
// used as the decoding base.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.CORS.AllowedOrigin == "" {
		cfg.Server.CORS.AllowedOrigin = DefaultCORSAllowedOrigin
	}
	if len(cfg.Server.CORS.AllowedMethods) == 0 {
		cfg.Server.CORS.AllowedMethods = append([]string(nil), DefaultCORSAllowedMethods...)
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}

	// Upstream defaults
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if cfg.Upstream.RequestsPerSecond > 0 && cfg.Upstream.Burst == 0 {
		cfg.Upstream.Burst = 1
	}

	// Cache defaults
	if cfg.Cache.MaxCapacity == 0 {
		cfg.Cache.MaxCapacity = DefaultCacheMaxCapacity
	}
	if cfg.Cache.MaxMemory == 0 {
		cfg.Cache.MaxMemory = DefaultCacheMaxMemory
	}
	if cfg.Cache.TimeToLive == 0 {
		cfg.Cache.TimeToLive = DefaultCacheTimeToLive
	}

	// Rate limit defaults
	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = DefaultRateLimitRequestsPerMinute
	}
	if cfg.RateLimit.IdleAfter == 0 {
		cfg.RateLimit.IdleAfter = DefaultRateLimitIdleAfter
	}
	if cfg.RateLimit.Stats.Backend == "" {
		cfg.RateLimit.Stats.Backend = DefaultStatsBackend
	}
	if cfg.RateLimit.Stats.Redis.Address == "" {
		cfg.RateLimit.Stats.Redis.Address = DefaultRedisAddress
	}
	if cfg.RateLimit.Stats.Redis.Prefix == "" {
		cfg.RateLimit.Stats.Redis.Prefix = DefaultRedisPrefix
	}
	if cfg.RateLimit.Stats.Redis.TTL == 0 {
		cfg.RateLimit.Stats.Redis.TTL = DefaultRedisTTL
	}

	// jsDelivr defaults
	if cfg.JSDelivr.MirrorHost == "" {
		cfg.JSDelivr.MirrorHost = DefaultJSDelivrMirrorHost
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		// Cache hits and redirects are sub-millisecond, archives take minutes
		cfg.Telemetry.Metrics.RequestDurationBuckets = []float64{0.005, 0.025, 0.1, 0.25, 1, 2.5, 10, 60}
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.VersionPath == "" {
		cfg.Telemetry.Health.VersionPath = DefaultVersionPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
