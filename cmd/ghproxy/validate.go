package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ghproxy-hq/ghproxy/pkg/cli"
	"ghproxy-hq/ghproxy/pkg/config"
	"ghproxy-hq/ghproxy/pkg/routing"
)

var validateFlags struct {
	output string
}

// configSummary is the validate command's report of the effective settings.
type configSummary struct {
	Path              string   `json:"path"`
	Address           string   `json:"address"`
	CacheEnabled      bool     `json:"cache_enabled"`
	CacheMaxCapacity  int      `json:"cache_max_capacity"`
	CacheMaxMemory    int64    `json:"cache_max_memory"`
	CacheTTL          string   `json:"cache_ttl"`
	RateLimitEnabled  bool     `json:"rate_limit_enabled"`
	RequestsPerMinute int      `json:"requests_per_minute"`
	StatsBackend      string   `json:"stats_backend"`
	Rules             []string `json:"rules"`
	MetricsPath       string   `json:"metrics_path,omitempty"`
}

func newConfigSummary(path string, cfg *config.Config) configSummary {
	s := configSummary{
		Path:              path,
		Address:           cfg.Server.Address,
		CacheEnabled:      cfg.Cache.Enabled,
		CacheMaxCapacity:  cfg.Cache.MaxCapacity,
		CacheMaxMemory:    cfg.Cache.MaxMemory,
		CacheTTL:          cfg.Cache.TimeToLive.String(),
		RateLimitEnabled:  cfg.RateLimit.Enabled,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		StatsBackend:      cfg.RateLimit.Stats.Backend,
		Rules:             routing.RuleNames(serviceFlags(cfg)),
	}
	if cfg.Telemetry.Metrics.Enabled {
		s.MetricsPath = cfg.Telemetry.Metrics.Path
	}
	return s
}

func (s configSummary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Configuration valid (%s)\n", s.Path)
	fmt.Fprintf(&b, "  Listen:     %s\n", s.Address)
	if s.CacheEnabled {
		fmt.Fprintf(&b, "  Cache:      %d entries, %d bytes, ttl %s\n", s.CacheMaxCapacity, s.CacheMaxMemory, s.CacheTTL)
	} else {
		b.WriteString("  Cache:      disabled\n")
	}
	if s.RateLimitEnabled {
		fmt.Fprintf(&b, "  Rate limit: %d/min, stats %s\n", s.RequestsPerMinute, s.StatsBackend)
	} else {
		b.WriteString("  Rate limit: disabled\n")
	}
	if s.MetricsPath != "" {
		fmt.Fprintf(&b, "  Metrics:    %s\n", s.MetricsPath)
	}
	fmt.Fprintf(&b, "  Rules:      %s", strings.Join(s.Rules, ", "))
	return b.String()
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file with GH_PROXY_* overrides, validate it and
print the effective settings.

Examples:
  # Validate the default config.yaml
  ghproxy validate

  # Validate a specific file and print JSON
  ghproxy validate --config /etc/ghproxy/config.yaml --output json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(validateFlags.output)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), newConfigSummary(cfgFile, cfg))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", "text", "output format: text, json")
}
