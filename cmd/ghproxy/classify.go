package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ghproxy-hq/ghproxy/pkg/cli"
	"ghproxy-hq/ghproxy/pkg/routing"
)

var classifyFlags struct {
	gitlab     bool
	bitbucket  bool
	jsdelivr   bool
	mirrorHost string
	output     string
}

// classification is the classify command's result.
type classification struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Rule     string `json:"rule,omitempty"`
	Provider string `json:"provider,omitempty"`
	Target   string `json:"target,omitempty"`
	Location string `json:"location,omitempty"`
}

func classifyPath(path string, flags routing.ServiceFlags) classification {
	d := routing.Classify(path, flags)
	return classification{
		Path:     path,
		Kind:     d.Kind.String(),
		Rule:     d.Rule,
		Provider: string(d.Provider),
		Target:   d.Target,
		Location: d.Location(),
	}
}

func (c classification) Text() string {
	switch c.Kind {
	case routing.Redirect.String():
		return fmt.Sprintf("redirect (rule %s) -> %s", c.Rule, c.Location)
	case routing.Proxy.String():
		return fmt.Sprintf("proxy (rule %s, %s) -> %s", c.Rule, c.Provider, c.Target)
	default:
		return "unsupported"
	}
}

var classifyCmd = &cobra.Command{
	Use:   "classify <path>",
	Short: "Show how a request path would be handled",
	Long: `Classify a request path (everything after the first "/") without
contacting any upstream.

Examples:
  ghproxy classify https://github.com/owner/repo/releases/download/v1/app.zip
  ghproxy classify github.com/owner/repo/blob/main/README.md --jsdelivr
  ghproxy classify "q=https://example.com/file" --output json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(classifyFlags.output)
		if err != nil {
			return err
		}
		flags := routing.ServiceFlags{
			GitLabEnabled:    classifyFlags.gitlab,
			BitbucketEnabled: classifyFlags.bitbucket,
			JSDelivrEnabled:  classifyFlags.jsdelivr,
			MirrorHost:       classifyFlags.mirrorHost,
		}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), classifyPath(args[0], flags))
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().BoolVar(&classifyFlags.gitlab, "gitlab", false, "enable GitLab rules")
	classifyCmd.Flags().BoolVar(&classifyFlags.bitbucket, "bitbucket", false, "enable Bitbucket rules")
	classifyCmd.Flags().BoolVar(&classifyFlags.jsdelivr, "jsdelivr", false, "redirect GitHub blobs to jsDelivr")
	classifyCmd.Flags().StringVar(&classifyFlags.mirrorHost, "mirror-host", "", "jsDelivr host (default "+routing.DefaultMirrorHost+")")
	classifyCmd.Flags().StringVarP(&classifyFlags.output, "output", "o", "text", "output format: text, json")
}
