package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateRateLimit(&cfg.RateLimit)...)
	errs = append(errs, validateJSDelivr(&cfg.JSDelivr)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.Address == "" {
		errs = append(errs, FieldError{
			Field:   "server.address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.Address); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.Address, err),
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be non-negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be non-negative",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be non-negative",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be non-negative",
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 { // 10MB is excessive
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}
	if cfg.MaxConcurrent < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_concurrent",
			Message: "max concurrent must be non-negative",
		})
	}

	if cfg.CORS.Enabled {
		if cfg.CORS.AllowedOrigin == "" {
			errs = append(errs, FieldError{
				Field:   "server.cors.allowed_origin",
				Message: "allowed origin is required when CORS is enabled",
			})
		}
		if cfg.CORS.MaxAge < 0 {
			errs = append(errs, FieldError{
				Field:   "server.cors.max_age",
				Message: "max age must be non-negative",
			})
		}
	}

	return errs
}

func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.timeout",
			Message: "timeout must be positive",
		})
	}
	if cfg.MaxRedirects < 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.max_redirects",
			Message: "max redirects must be non-negative",
		})
	}
	if cfg.RequestsPerSecond < 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.requests_per_second",
			Message: "requests per second must be non-negative",
		})
	}
	if cfg.Burst < 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.burst",
			Message: "burst must be non-negative",
		})
	}

	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.MaxCapacity <= 0 {
		errs = append(errs, FieldError{
			Field:   "cache.max_capacity",
			Message: "max capacity must be positive",
		})
	}
	if cfg.MaxMemory <= 0 {
		errs = append(errs, FieldError{
			Field:   "cache.max_memory",
			Message: "max memory must be positive",
		})
	}
	if cfg.TimeToLive <= 0 {
		errs = append(errs, FieldError{
			Field:   "cache.time_to_live",
			Message: "time to live must be positive",
		})
	}
	if fe, ok := validateSchedule("cache.purge_schedule", cfg.PurgeSchedule); !ok {
		errs = append(errs, fe)
	}

	return errs
}

func validateRateLimit(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled {
		if cfg.RequestsPerMinute <= 0 {
			errs = append(errs, FieldError{
				Field:   "rate_limit.requests_per_minute",
				Message: "requests per minute must be positive",
			})
		}
		if cfg.IdleAfter < 0 {
			errs = append(errs, FieldError{
				Field:   "rate_limit.idle_after",
				Message: "idle after must be non-negative",
			})
		}
		if fe, ok := validateSchedule("rate_limit.sweep_schedule", cfg.SweepSchedule); !ok {
			errs = append(errs, fe)
		}
	}

	switch cfg.Stats.Backend {
	case "none", "memory":
	case "redis":
		if cfg.Stats.Redis.Address == "" {
			errs = append(errs, FieldError{
				Field:   "rate_limit.stats.redis.address",
				Message: "redis address is required when the redis backend is selected",
			})
		}
		if cfg.Stats.Redis.DB < 0 {
			errs = append(errs, FieldError{
				Field:   "rate_limit.stats.redis.db",
				Message: "redis db must be non-negative",
			})
		}
		if cfg.Stats.Redis.TTL < 0 {
			errs = append(errs, FieldError{
				Field:   "rate_limit.stats.redis.ttl",
				Message: "redis ttl must be non-negative",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "rate_limit.stats.backend",
			Message: fmt.Sprintf("invalid stats backend %q: must be 'none', 'memory', or 'redis'", cfg.Stats.Backend),
		})
	}

	return errs
}

func validateJSDelivr(cfg *JSDelivrConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}
	if cfg.MirrorHost == "" || strings.ContainsAny(cfg.MirrorHost, "/:?#@ ") {
		errs = append(errs, FieldError{
			Field:   "jsdelivr.mirror_host",
			Message: fmt.Sprintf("invalid mirror host %q: must be a bare host name", cfg.MirrorHost),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with '/'",
			})
		}
		for i := 1; i < len(cfg.Metrics.RequestDurationBuckets); i++ {
			if cfg.Metrics.RequestDurationBuckets[i] <= cfg.Metrics.RequestDurationBuckets[i-1] {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.request_duration_buckets",
					Message: "buckets must be strictly increasing",
				})
				break
			}
		}
	}

	if cfg.Health.Enabled {
		paths := map[string]string{
			"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
			"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
			"telemetry.health.version_path":   cfg.Health.VersionPath,
		}
		for field, p := range paths {
			if !strings.HasPrefix(p, "/") {
				errs = append(errs, FieldError{
					Field:   field,
					Message: "path must start with '/'",
				})
			}
		}
		if cfg.Health.CheckTimeout <= 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be positive",
			})
		}
	}

	return errs
}

// validateSchedule accepts an empty schedule (disabled) or anything
// cron.ParseStandard understands, including @every descriptors.
func validateSchedule(field, schedule string) (FieldError, bool) {
	if schedule == "" {
		return FieldError{}, true
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return FieldError{
			Field:   field,
			Message: fmt.Sprintf("invalid cron schedule %q: %v", schedule, err),
		}, false
	}
	return FieldError{}, true
}
