// Package config provides configuration management for ghproxy.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only (the file must exist):
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From an optional YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// Durations are written as strings ("30s", "1h"). Keys missing from the file
// keep their defaults, so a file containing only
//
//	cache:
//	  time_to_live: "10m"
//
// still has caching and rate limiting enabled.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention GH_PROXY_SECTION_FIELD:
//
//   - GH_PROXY_SERVER_ADDRESS overrides server.address
//   - GH_PROXY_CACHE_MAX_MEMORY overrides cache.max_memory
//   - GH_PROXY_GIT_SERVICES_GITLAB_ENABLED overrides git_services.gitlab_enabled
//
// Malformed values are reported as errors.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Command line flags (applied by the ghproxy command)
//
// # Singleton Pattern
//
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// # Hot Reload
//
// Watcher observes the configuration file and calls ReloadConfig after
// writes settle. A file that fails validation is logged and ignored.
package config
