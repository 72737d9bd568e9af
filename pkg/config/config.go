package config

import "time"

// Config is the root configuration structure for ghproxy.
// It contains the server, upstream transport, cache, rate limiting,
// git service and telemetry sections.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, connection limits and CORS preflight settings.
	Server ServerConfig `yaml:"server"`

	// Upstream contains configuration for outbound requests to git providers.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Cache contains configuration for the in-memory response cache.
	Cache CacheConfig `yaml:"cache"`

	// RateLimit contains configuration for the per-client request limiter.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// GitServices controls which optional providers are relayed.
	GitServices GitServicesConfig `yaml:"git_services"`

	// JSDelivr controls mirror acceleration for GitHub blob content.
	JSDelivr JSDelivrConfig `yaml:"jsdelivr"`

	// Telemetry contains configuration for logging, metrics and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the inbound HTTP server.
type ServerConfig struct {
	// Address is the address and port to listen on.
	// Default: "127.0.0.1:4000"
	Address string `yaml:"address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Zero disables it, which is required to stream large release
	// archives to slow clients.
	// Default: 0
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxConcurrent limits simultaneously served requests (0 = unlimited).
	// Requests over the limit receive 503.
	// Default: 0
	MaxConcurrent int `yaml:"max_concurrent"`

	// WatchConfig enables hot reloading of the git service and jsDelivr flags
	// when the configuration file changes.
	// Default: false
	WatchConfig bool `yaml:"watch_config"`

	// CORS contains the preflight responder configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS preflight configuration.
type CORSConfig struct {
	// Enabled controls whether preflight requests are answered.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigin is the Access-Control-Allow-Origin value.
	// Default: "*"
	AllowedOrigin string `yaml:"allowed_origin"`

	// AllowedMethods is the Access-Control-Allow-Methods list.
	// Default: GET, POST, PUT, PATCH, TRACE, DELETE, HEAD, OPTIONS
	AllowedMethods []string `yaml:"allowed_methods"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 1728000 (20 days)
	MaxAge int `yaml:"max_age"`
}

// UpstreamConfig contains configuration for requests to git providers.
type UpstreamConfig struct {
	// Timeout bounds dialing, the TLS handshake and the wait for response
	// headers. Body streaming is not bounded by it.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRedirects is the number of upstream redirects followed before the
	// redirect response itself is relayed to the client. 0 relays every
	// upstream redirect unfollowed.
	// Default: 10
	MaxRedirects int `yaml:"max_redirects"`

	// RequestsPerSecond paces all outbound requests of this process
	// (0 = unpaced).
	// Default: 0
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the pacing burst size. Defaults to 1 when pacing is enabled.
	Burst int `yaml:"burst"`
}

// CacheConfig contains configuration for the response cache.
type CacheConfig struct {
	// Enabled controls whether responses are cached.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// MaxCapacity is the maximum number of cached responses.
	// Default: 1000
	MaxCapacity int `yaml:"max_capacity"`

	// MaxMemory is the total byte budget for cached payloads. A single
	// response larger than this is never cached.
	// Default: 104857600 (100MB)
	MaxMemory int64 `yaml:"max_memory"`

	// TimeToLive is how long an entry may be served after it was stored.
	// Default: 1h
	TimeToLive time.Duration `yaml:"time_to_live"`

	// PurgeSchedule is the cron schedule for removing expired entries.
	// Empty disables the periodic purge (expired entries are still never served).
	// Default: "@every 5m"
	PurgeSchedule string `yaml:"purge_schedule"`
}

// RateLimitConfig contains configuration for the per-client limiter.
type RateLimitConfig struct {
	// Enabled controls whether requests are rate limited.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// RequestsPerMinute is the number of requests allowed per client key in
	// each fixed 60 second window.
	// Default: 60
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// SweepSchedule is the cron schedule for reclaiming idle client keys.
	// Default: "@every 1m"
	SweepSchedule string `yaml:"sweep_schedule"`

	// IdleAfter is how long after its window closed a key is reclaimed.
	// Default: 5m
	IdleAfter time.Duration `yaml:"idle_after"`

	// Stats configures where allow/deny decisions are counted.
	Stats StatsConfig `yaml:"stats"`
}

// StatsConfig configures the rate limit decision statistics sink.
type StatsConfig struct {
	// Backend selects the recorder.
	// Options: "none", "memory", "redis"
	// Default: "none"
	Backend string `yaml:"backend"`

	// TrackKeys also counts decisions per client key. Beware of cardinality.
	// Default: false
	TrackKeys bool `yaml:"track_keys"`

	// Redis contains connection settings for the redis backend.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	// Address is the Redis server address.
	// Default: "127.0.0.1:6379"
	Address string `yaml:"address"`

	// Password is the optional Redis password.
	Password string `yaml:"password"`

	// DB is the Redis database number.
	DB int `yaml:"db"`

	// Prefix is prepended to every key written.
	// Default: "ghproxy:ratelimit:stats"
	Prefix string `yaml:"prefix"`

	// TTL is the expiry of per-minute and per-key hashes.
	// Default: 24h
	TTL time.Duration `yaml:"ttl"`
}

// GitServicesConfig toggles the optional git providers.
type GitServicesConfig struct {
	// GitLabEnabled relays gitlab.com URLs.
	// Default: false
	GitLabEnabled bool `yaml:"gitlab_enabled"`

	// BitbucketEnabled relays bitbucket.org URLs.
	// Default: false
	BitbucketEnabled bool `yaml:"bitbucket_enabled"`
}

// JSDelivrConfig controls redirecting GitHub blob content to jsDelivr.
type JSDelivrConfig struct {
	// Enabled redirects GitHub blob/raw URLs to the mirror instead of proxying.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// MirrorHost is the jsDelivr host used in redirects.
	// Default: "gcore.jsdelivr.net"
	MirrorHost string `yaml:"mirror_host"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactClientAddresses masks client IP addresses in log entries.
	// Default: false
	RedactClientAddresses bool `yaml:"redact_client_addresses"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "ghproxy"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "relay"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request duration (seconds).
	// Default: [0.005, 0.025, 0.1, 0.25, 1, 2.5, 10, 60]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
