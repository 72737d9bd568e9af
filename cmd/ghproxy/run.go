package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ghproxy-hq/ghproxy/pkg/cli"
	"ghproxy-hq/ghproxy/pkg/config"
	"ghproxy-hq/ghproxy/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the ghproxy server",
	Long: `Start the ghproxy server with the specified configuration.

The configuration file is optional; missing keys use defaults and every
setting can be overridden with a GH_PROXY_* environment variable.

Examples:
  # Start with defaults (127.0.0.1:4000)
  ghproxy run

  # Start with custom config
  ghproxy run --config /etc/ghproxy/config.yaml

  # Override listen address
  ghproxy run --listen 0.0.0.0:8080

  # Validate config without starting server
  ghproxy run --dry-run`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

// loadConfig initializes the global configuration and validates it.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.WrapConfigError(cfgFile, err)
	}
	cfg := config.GetConfig()
	if err := config.Validate(cfg); err != nil {
		return nil, cli.WrapConfigError(cfgFile, err)
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.WrapConfigError(cfgFile, err)
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.Address = runFlags.listenAddress
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	config.SetConfig(cfg)

	if err := config.Validate(cfg); err != nil {
		return cli.WrapConfigError(cfgFile, err)
	}

	logger, err := logging.New(logging.FromConfig(&cfg.Telemetry.Logging))
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	a, err := newApp(cfg, cfgFile, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Warn("shutdown cleanup failed", "error", err)
		}
	}()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	if err := a.run(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}
