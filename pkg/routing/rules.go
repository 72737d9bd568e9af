package routing

import (
	"regexp"
	"strings"
)

// Rule names, in evaluation order within each provider.
const (
	RuleQuery = "q"

	RuleGitHubReleases = "github.releases"
	RuleGitHubBlob     = "github.blob"
	RuleGitHubGit      = "github.git"
	RuleGitHubRaw      = "github.raw"
	RuleGitHubGist     = "github.gist"
	RuleGitHubTags     = "github.tags"

	RuleGitLabProjects = "gitlab.projects"
	RuleGitLabRaw      = "gitlab.raw"
	RuleGitLabBlob     = "gitlab.blob"

	RuleBitbucketRepo = "bitbucket.repo"
	RuleBitbucketRaw  = "bitbucket.raw"
)

// DefaultMirrorHost is the jsDelivr host used when ServiceFlags.MirrorHost is empty.
const DefaultMirrorHost = "gcore.jsdelivr.net"

// rewriteFunc turns a matched path into a decision.
type rewriteFunc func(path string, flags ServiceFlags) (Kind, string)

type rule struct {
	name     string
	provider Provider
	pattern  *regexp.Regexp
	rewrite  rewriteFunc
}

// proxyAsIs relays the path unchanged.
func proxyAsIs(path string, _ ServiceFlags) (Kind, string) {
	return Proxy, path
}

var (
	githubRules = []rule{
		{RuleGitHubReleases, ProviderGitHub, regexp.MustCompile(`^(?:https?://)?github\.com/.+?/.+?/(?:releases|archive)/.*$`), proxyAsIs},
		{RuleGitHubBlob, ProviderGitHub, regexp.MustCompile(`^(?:https?://)?github\.com/.+?/.+?/(?:blob|raw)/.*$`), githubBlob},
		{RuleGitHubGit, ProviderGitHub, regexp.MustCompile(`^(?:https?://)?github\.com/.+?/.+?/(?:info|git-).*$`), proxyAsIs},
		{RuleGitHubRaw, ProviderGitHub, regexp.MustCompile(`^(?:https?://)?raw\.(?:githubusercontent|github)\.com/.+?/.+?/.+?/.+$`), proxyAsIs},
		{RuleGitHubGist, ProviderGitHub, regexp.MustCompile(`^(?:https?://)?gist\.(?:githubusercontent|github)\.com/.+?/.+?/.+$`), proxyAsIs},
		{RuleGitHubTags, ProviderGitHub, regexp.MustCompile(`^(?:https?://)?github\.com/.+?/.+?/tags.*$`), proxyAsIs},
	}

	gitlabRules = []rule{
		{RuleGitLabProjects, ProviderGitLab, regexp.MustCompile(`^(?:https?://)?gitlab\.com/.+?/.+?/(?:-/|repository/archive\.tar\.gz).*$`), proxyAsIs},
		{RuleGitLabRaw, ProviderGitLab, regexp.MustCompile(`^(?:https?://)?gitlab\.com/.+?/.+?/(?:-/)?raw/.*$`), proxyAsIs},
		{RuleGitLabBlob, ProviderGitLab, regexp.MustCompile(`^(?:https?://)?gitlab\.com/.+?/.+?/(?:-/)?blob/.*$`), gitlabBlob},
	}

	bitbucketRules = []rule{
		{RuleBitbucketRepo, ProviderBitbucket, regexp.MustCompile(`^(?:https?://)?bitbucket\.org/.+?/.+?/(?:get|downloads).*$`), proxyAsIs},
		{RuleBitbucketRaw, ProviderBitbucket, regexp.MustCompile(`^(?:https?://)?bitbucket\.org/.+?/.+?/(?:raw|src)/.*$`), proxyAsIs},
	}
)

// blobShape is a file-view URL form that is rewritten whichever rule of its
// provider made the path supported.
type blobShape struct {
	name    string
	pattern *regexp.Regexp
	rewrite rewriteFunc
}

// blobShapes anchor owner and repository to single segments, so a directory
// named "releases" or "-" inside a file path does not hide the blob form.
var blobShapes = map[Provider]blobShape{
	ProviderGitHub: {
		RuleGitHubBlob,
		regexp.MustCompile(`^(?:https?://)?github\.com/[^/]+/[^/]+/(?:blob|raw)/`),
		githubBlob,
	},
	ProviderGitLab: {
		RuleGitLabBlob,
		regexp.MustCompile(`^(?:https?://)?gitlab\.com/(?:.+?/-/blob/|[^/]+/[^/]+/blob/)`),
		gitlabBlob,
	},
}

// githubBlob serves blob pages as raw content, or sends them to the
// jsDelivr mirror as https://<mirror>/gh/<owner>/<repo>@<ref>/<file>.
func githubBlob(path string, flags ServiceFlags) (Kind, string) {
	if !flags.JSDelivrEnabled {
		if i, seg := firstSegment(path, "/blob/", "/raw/"); seg == "/blob/" {
			return Proxy, path[:i] + "/raw/" + path[i+len(seg):]
		}
		return Proxy, path
	}

	rest := stripScheme(path)
	rest = strings.TrimPrefix(rest, "github.com/")
	if i, seg := firstSegment(rest, "/blob/", "/raw/"); i >= 0 {
		rest = rest[:i] + "@" + rest[i+len(seg):]
	}

	host := flags.MirrorHost
	if host == "" {
		host = DefaultMirrorHost
	}
	return Redirect, "https://" + host + "/gh/" + rest
}

// gitlabBlob rewrites the first blob segment to raw, preferring the
// "/-/blob/" form used by current GitLab URLs.
func gitlabBlob(path string, _ ServiceFlags) (Kind, string) {
	if strings.Contains(path, "/-/blob/") {
		return Proxy, strings.Replace(path, "/-/blob/", "/-/raw/", 1)
	}
	return Proxy, strings.Replace(path, "/blob/", "/raw/", 1)
}

func stripScheme(path string) string {
	if rest, ok := strings.CutPrefix(path, "https://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(path, "http://"); ok {
		return rest
	}
	return path
}

// firstSegment returns the index and value of whichever segment occurs
// first in s, or -1.
func firstSegment(s string, segments ...string) (int, string) {
	best, found := -1, ""
	for _, seg := range segments {
		if i := strings.Index(s, seg); i >= 0 && (best < 0 || i < best) {
			best, found = i, seg
		}
	}
	return best, found
}

// activeRules returns the rule table for the given flags in evaluation order.
func activeRules(flags ServiceFlags) []rule {
	rules := make([]rule, 0, len(githubRules)+len(gitlabRules)+len(bitbucketRules))
	rules = append(rules, githubRules...)
	if flags.GitLabEnabled {
		rules = append(rules, gitlabRules...)
	}
	if flags.BitbucketEnabled {
		rules = append(rules, bitbucketRules...)
	}
	return rules
}

// RuleNames lists the rules that Classify evaluates for flags, in order.
// The query redirect is always first.
func RuleNames(flags ServiceFlags) []string {
	rules := activeRules(flags)
	names := make([]string, 0, len(rules)+1)
	names = append(names, RuleQuery)
	for _, r := range rules {
		names = append(names, r.name)
	}
	return names
}
