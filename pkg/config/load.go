package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// envPrefix is prepended to every environment override name.
const envPrefix = "GH_PROXY_"

// LoadConfig loads configuration from a YAML file at the specified path.
// Keys absent from the file keep their defaults, including booleans that
// default to true. The result is validated before it is returned.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention GH_PROXY_SECTION_FIELD (e.g., GH_PROXY_SERVER_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The file is optional: when it does not exist the defaults are used.
//
// The loading sequence is:
// 1. Load YAML from file, or start from defaults
// 2. Apply environment variable overrides
// 3. Fill remaining zero values with defaults
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			cfg, err = parse(data)
			if err != nil {
				return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// defaults
		default:
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// parse decodes YAML on top of the default configuration.
func parse(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// envOverrides collects malformed values so they are reported together.
type envOverrides struct {
	errs []FieldError
}

func (o *envOverrides) str(name string, dst *string) {
	if val, ok := os.LookupEnv(envPrefix + name); ok && val != "" {
		*dst = val
	}
}

func (o *envOverrides) boolean(name string, dst *bool) {
	val, ok := os.LookupEnv(envPrefix + name)
	if !ok || val == "" {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		o.fail(name, val, "boolean")
		return
	}
	*dst = b
}

func (o *envOverrides) integer(name string, dst *int) {
	val, ok := os.LookupEnv(envPrefix + name)
	if !ok || val == "" {
		return
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		o.fail(name, val, "integer")
		return
	}
	*dst = i
}

func (o *envOverrides) size(name string, dst *int64) {
	val, ok := os.LookupEnv(envPrefix + name)
	if !ok || val == "" {
		return
	}
	i, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		o.fail(name, val, "integer")
		return
	}
	*dst = i
}

func (o *envOverrides) float(name string, dst *float64) {
	val, ok := os.LookupEnv(envPrefix + name)
	if !ok || val == "" {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		o.fail(name, val, "number")
		return
	}
	*dst = f
}

func (o *envOverrides) duration(name string, dst *time.Duration) {
	val, ok := os.LookupEnv(envPrefix + name)
	if !ok || val == "" {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		o.fail(name, val, "duration")
		return
	}
	*dst = d
}

func (o *envOverrides) list(name string, dst *[]string) {
	val, ok := os.LookupEnv(envPrefix + name)
	if !ok || val == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (o *envOverrides) fail(name, val, kind string) {
	o.errs = append(o.errs, FieldError{
		Field:   envPrefix + name,
		Message: fmt.Sprintf("invalid %s %q", kind, val),
	})
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format GH_PROXY_SECTION_FIELD.
// A malformed value is an error rather than being silently ignored.
func applyEnvOverrides(cfg *Config) error {
	o := &envOverrides{}

	// Server overrides
	o.str("SERVER_ADDRESS", &cfg.Server.Address)
	o.duration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	o.duration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	o.duration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	o.duration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	o.integer("SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	o.integer("SERVER_MAX_CONCURRENT", &cfg.Server.MaxConcurrent)
	o.boolean("SERVER_WATCH_CONFIG", &cfg.Server.WatchConfig)
	o.boolean("SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)
	o.str("SERVER_CORS_ALLOWED_ORIGIN", &cfg.Server.CORS.AllowedOrigin)
	o.list("SERVER_CORS_ALLOWED_METHODS", &cfg.Server.CORS.AllowedMethods)
	o.integer("SERVER_CORS_MAX_AGE", &cfg.Server.CORS.MaxAge)

	// Upstream overrides
	o.duration("UPSTREAM_TIMEOUT", &cfg.Upstream.Timeout)
	o.integer("UPSTREAM_MAX_REDIRECTS", &cfg.Upstream.MaxRedirects)
	o.float("UPSTREAM_REQUESTS_PER_SECOND", &cfg.Upstream.RequestsPerSecond)
	o.integer("UPSTREAM_BURST", &cfg.Upstream.Burst)

	// Cache overrides
	o.boolean("CACHE_ENABLED", &cfg.Cache.Enabled)
	o.integer("CACHE_MAX_CAPACITY", &cfg.Cache.MaxCapacity)
	o.size("CACHE_MAX_MEMORY", &cfg.Cache.MaxMemory)
	o.duration("CACHE_TIME_TO_LIVE", &cfg.Cache.TimeToLive)
	o.str("CACHE_PURGE_SCHEDULE", &cfg.Cache.PurgeSchedule)

	// Rate limit overrides
	o.boolean("RATE_LIMIT_ENABLED", &cfg.RateLimit.Enabled)
	o.integer("RATE_LIMIT_REQUESTS_PER_MINUTE", &cfg.RateLimit.RequestsPerMinute)
	o.str("RATE_LIMIT_SWEEP_SCHEDULE", &cfg.RateLimit.SweepSchedule)
	o.duration("RATE_LIMIT_IDLE_AFTER", &cfg.RateLimit.IdleAfter)
	o.str("RATE_LIMIT_STATS_BACKEND", &cfg.RateLimit.Stats.Backend)
	o.boolean("RATE_LIMIT_STATS_TRACK_KEYS", &cfg.RateLimit.Stats.TrackKeys)
	o.str("RATE_LIMIT_STATS_REDIS_ADDRESS", &cfg.RateLimit.Stats.Redis.Address)
	o.str("RATE_LIMIT_STATS_REDIS_PASSWORD", &cfg.RateLimit.Stats.Redis.Password)
	o.integer("RATE_LIMIT_STATS_REDIS_DB", &cfg.RateLimit.Stats.Redis.DB)
	o.str("RATE_LIMIT_STATS_REDIS_PREFIX", &cfg.RateLimit.Stats.Redis.Prefix)
	o.duration("RATE_LIMIT_STATS_REDIS_TTL", &cfg.RateLimit.Stats.Redis.TTL)

	// Git service overrides
	o.boolean("GIT_SERVICES_GITLAB_ENABLED", &cfg.GitServices.GitLabEnabled)
	o.boolean("GIT_SERVICES_BITBUCKET_ENABLED", &cfg.GitServices.BitbucketEnabled)

	// jsDelivr overrides
	o.boolean("JSDELIVR_ENABLED", &cfg.JSDelivr.Enabled)
	o.str("JSDELIVR_MIRROR_HOST", &cfg.JSDelivr.MirrorHost)

	// Telemetry overrides
	o.str("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	o.str("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	o.boolean("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	o.boolean("TELEMETRY_LOGGING_REDACT_CLIENT_ADDRESSES", &cfg.Telemetry.Logging.RedactClientAddresses)
	o.boolean("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	o.str("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	o.str("TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
	o.str("TELEMETRY_METRICS_SUBSYSTEM", &cfg.Telemetry.Metrics.Subsystem)
	o.boolean("TELEMETRY_HEALTH_ENABLED", &cfg.Telemetry.Health.Enabled)
	o.str("TELEMETRY_HEALTH_LIVENESS_PATH", &cfg.Telemetry.Health.LivenessPath)
	o.str("TELEMETRY_HEALTH_READINESS_PATH", &cfg.Telemetry.Health.ReadinessPath)
	o.str("TELEMETRY_HEALTH_VERSION_PATH", &cfg.Telemetry.Health.VersionPath)
	o.duration("TELEMETRY_HEALTH_CHECK_TIMEOUT", &cfg.Telemetry.Health.CheckTimeout)

	if len(o.errs) > 0 {
		return fmt.Errorf("invalid environment override: %w", ValidationError{Errors: o.errs})
	}
	return nil
}
