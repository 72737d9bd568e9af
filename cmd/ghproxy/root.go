package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ghproxy-hq/ghproxy/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ghproxy",
	Short: "ghproxy - GitHub, GitLab and Bitbucket content relay",
	Long: `ghproxy relays raw files, release archives and git clones from GitHub,
GitLab and Bitbucket through a single endpoint.

The upstream URL is written in the request path:
  http://<ghproxy>/https://github.com/<owner>/<repo>/raw/<ref>/<file>

Features:
  - Per-client fixed-window rate limiting
  - Bounded in-memory LRU cache for GET responses
  - Optional jsDelivr redirects for GitHub blob content
  - Prometheus metrics, health and readiness endpoints`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a status derived from the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
