package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"ghproxy-hq/ghproxy/pkg/cli"
	"ghproxy-hq/ghproxy/pkg/telemetry/health"
)

var (
	// Version is the semantic version (set by build flags)
	Version = "0.1.0"
	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"
	// BuildDate is the build timestamp (set by build flags)
	BuildDate = "unknown"
)

var versionFlags struct {
	output string
}

// versionReport is the version command's output.
type versionReport struct {
	health.VersionInfo
	Platform string `json:"platform"`
}

func (v versionReport) Text() string {
	return fmt.Sprintf("ghproxy %s\nGit Commit: %s\nBuild Date: %s\nGo Version: %s\nOS/Arch: %s",
		v.Version, v.Commit, v.BuildTime, v.GoVersion, v.Platform)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including Git commit and build date.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(versionFlags.output)
		if err != nil {
			return err
		}
		report := versionReport{
			VersionInfo: health.NewVersionInfo(Version, GitCommit, BuildDate),
			Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFlags.output, "output", "o", "text", "output format: text, json")
}
