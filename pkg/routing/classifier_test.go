package routing

import (
	"reflect"
	"sync"
	"testing"
)

func TestClassify(t *testing.T) {
	all := ServiceFlags{GitLabEnabled: true, BitbucketEnabled: true}

	tests := []struct {
		name     string
		path     string
		flags    ServiceFlags
		kind     Kind
		target   string
		rule     string
		provider Provider
	}{
		{
			name:   "query redirect",
			path:   "q=https://example.com/x",
			kind:   Redirect,
			target: "https://example.com/x",
			rule:   RuleQuery,
		},
		{
			name:   "query redirect ignores flags",
			path:   "q=github.com/a/b/blob/main/f",
			flags:  ServiceFlags{JSDelivrEnabled: true},
			kind:   Redirect,
			target: "github.com/a/b/blob/main/f",
			rule:   RuleQuery,
		},
		{
			name:     "github blob rewritten to raw",
			path:     "https://github.com/a/b/blob/main/file.txt",
			kind:     Proxy,
			target:   "https://github.com/a/b/raw/main/file.txt",
			rule:     RuleGitHubBlob,
			provider: ProviderGitHub,
		},
		{
			name:     "github blob only first segment rewritten",
			path:     "github.com/a/b/blob/main/blob/x",
			kind:     Proxy,
			target:   "github.com/a/b/raw/main/blob/x",
			rule:     RuleGitHubBlob,
			provider: ProviderGitHub,
		},
		{
			name:     "github raw path proxied as is",
			path:     "https://github.com/a/b/raw/main/file.txt",
			kind:     Proxy,
			target:   "https://github.com/a/b/raw/main/file.txt",
			rule:     RuleGitHubBlob,
			provider: ProviderGitHub,
		},
		{
			name:     "github blob to jsdelivr",
			path:     "https://github.com/a/b/blob/main/file.txt",
			flags:    ServiceFlags{JSDelivrEnabled: true},
			kind:     Redirect,
			target:   "https://gcore.jsdelivr.net/gh/a/b@main/file.txt",
			rule:     RuleGitHubBlob,
			provider: ProviderGitHub,
		},
		{
			name:     "github raw to jsdelivr without scheme",
			path:     "github.com/a/b/raw/v1.0/dir/file.txt",
			flags:    ServiceFlags{JSDelivrEnabled: true},
			kind:     Redirect,
			target:   "https://gcore.jsdelivr.net/gh/a/b@v1.0/dir/file.txt",
			rule:     RuleGitHubBlob,
			provider: ProviderGitHub,
		},
		{
			name:     "jsdelivr custom mirror",
			path:     "http://github.com/a/b/blob/main/f",
			flags:    ServiceFlags{JSDelivrEnabled: true, MirrorHost: "cdn.jsdelivr.net"},
			kind:     Redirect,
			target:   "https://cdn.jsdelivr.net/gh/a/b@main/f",
			rule:     RuleGitHubBlob,
			provider: ProviderGitHub,
		},
		{
			name:     "github releases",
			path:     "https://github.com/a/b/releases/download/v1/x.tar.gz",
			kind:     Proxy,
			target:   "https://github.com/a/b/releases/download/v1/x.tar.gz",
			rule:     RuleGitHubReleases,
			provider: ProviderGitHub,
		},
		{
			name:     "github archive",
			path:     "github.com/a/b/archive/refs/heads/main.zip",
			kind:     Proxy,
			target:   "github.com/a/b/archive/refs/heads/main.zip",
			rule:     RuleGitHubReleases,
			provider: ProviderGitHub,
		},
		{
			name:     "releases wins over blob",
			path:     "github.com/a/b/releases/blob/x",
			kind:     Proxy,
			target:   "github.com/a/b/releases/blob/x",
			rule:     RuleGitHubReleases,
			provider: ProviderGitHub,
		},
		{
			name:     "github git info",
			path:     "https://github.com/a/b/info/refs?service=git-upload-pack",
			kind:     Proxy,
			target:   "https://github.com/a/b/info/refs?service=git-upload-pack",
			rule:     RuleGitHubGit,
			provider: ProviderGitHub,
		},
		{
			name:     "raw githubusercontent",
			path:     "https://raw.githubusercontent.com/a/b/main/file.txt",
			kind:     Proxy,
			target:   "https://raw.githubusercontent.com/a/b/main/file.txt",
			rule:     RuleGitHubRaw,
			provider: ProviderGitHub,
		},
		{
			name:     "gist",
			path:     "gist.githubusercontent.com/u/abc123/raw",
			kind:     Proxy,
			target:   "gist.githubusercontent.com/u/abc123/raw",
			rule:     RuleGitHubGist,
			provider: ProviderGitHub,
		},
		{
			name:     "github tags",
			path:     "https://github.com/a/b/tags",
			kind:     Proxy,
			target:   "https://github.com/a/b/tags",
			rule:     RuleGitHubTags,
			provider: ProviderGitHub,
		},
		{
			name: "github repo root unsupported",
			path: "https://github.com/a/b",
			kind: Unsupported,
		},
		{
			name: "empty path unsupported",
			path: "",
			kind: Unsupported,
		},
		{
			name: "gitlab disabled",
			path: "https://gitlab.com/a/b/-/raw/main/f",
			kind: Unsupported,
		},
		{
			name:     "gitlab projects",
			path:     "https://gitlab.com/a/b/-/raw/main/f",
			flags:    all,
			kind:     Proxy,
			target:   "https://gitlab.com/a/b/-/raw/main/f",
			rule:     RuleGitLabProjects,
			provider: ProviderGitLab,
		},
		{
			name:     "gitlab archive",
			path:     "gitlab.com/a/b/repository/archive.tar.gz?ref=main",
			flags:    all,
			kind:     Proxy,
			target:   "gitlab.com/a/b/repository/archive.tar.gz?ref=main",
			rule:     RuleGitLabProjects,
			provider: ProviderGitLab,
		},
		{
			name:     "gitlab raw",
			path:     "gitlab.com/a/b/raw/main/f",
			flags:    all,
			kind:     Proxy,
			target:   "gitlab.com/a/b/raw/main/f",
			rule:     RuleGitLabRaw,
			provider: ProviderGitLab,
		},
		{
			name:     "gitlab blob",
			path:     "https://gitlab.com/a/b/blob/main/f",
			flags:    all,
			kind:     Proxy,
			target:   "https://gitlab.com/a/b/raw/main/f",
			rule:     RuleGitLabBlob,
			provider: ProviderGitLab,
		},
		{
			name:     "bitbucket downloads",
			path:     "https://bitbucket.org/a/b/downloads/x.zip",
			flags:    all,
			kind:     Proxy,
			target:   "https://bitbucket.org/a/b/downloads/x.zip",
			rule:     RuleBitbucketRepo,
			provider: ProviderBitbucket,
		},
		{
			name:     "bitbucket src",
			path:     "bitbucket.org/a/b/src/main/f",
			flags:    ServiceFlags{BitbucketEnabled: true},
			kind:     Proxy,
			target:   "bitbucket.org/a/b/src/main/f",
			rule:     RuleBitbucketRaw,
			provider: ProviderBitbucket,
		},
		{
			name: "bitbucket disabled",
			path: "bitbucket.org/a/b/src/main/f",
			kind: Unsupported,
		},
		{
			name:  "unknown host",
			path:  "https://example.com/a/b/blob/main/f",
			flags: all,
			kind:  Unsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify(tt.path, tt.flags)

			if d.Kind != tt.kind {
				t.Fatalf("kind = %v, want %v", d.Kind, tt.kind)
			}
			if d.Target != tt.target {
				t.Errorf("target = %q, want %q", d.Target, tt.target)
			}
			if d.Rule != tt.rule {
				t.Errorf("rule = %q, want %q", d.Rule, tt.rule)
			}
			if d.Provider != tt.provider {
				t.Errorf("provider = %q, want %q", d.Provider, tt.provider)
			}
		})
	}
}

func TestClassify_BlobShapeRewrite(t *testing.T) {
	gitlab := ServiceFlags{GitLabEnabled: true}
	jsdelivr := ServiceFlags{JSDelivrEnabled: true}

	tests := []struct {
		name   string
		path   string
		flags  ServiceFlags
		kind   Kind
		target string
		rule   string
	}{
		{
			name:   "gitlab dash blob",
			path:   "gitlab.com/a/b/-/blob/main/f.txt",
			flags:  gitlab,
			kind:   Proxy,
			target: "gitlab.com/a/b/-/raw/main/f.txt",
			rule:   RuleGitLabBlob,
		},
		{
			name:   "gitlab dash blob with blob directory",
			path:   "https://gitlab.com/a/b/-/blob/main/blob/f",
			flags:  gitlab,
			kind:   Proxy,
			target: "https://gitlab.com/a/b/-/raw/main/blob/f",
			rule:   RuleGitLabBlob,
		},
		{
			name:   "gitlab nested group blob",
			path:   "gitlab.com/group/sub/project/-/blob/main/f",
			flags:  gitlab,
			kind:   Proxy,
			target: "gitlab.com/group/sub/project/-/raw/main/f",
			rule:   RuleGitLabBlob,
		},
		{
			name:   "gitlab legacy blob with blob directory",
			path:   "gitlab.com/a/b/blob/main/blob/f",
			flags:  gitlab,
			kind:   Proxy,
			target: "gitlab.com/a/b/raw/main/blob/f",
			rule:   RuleGitLabBlob,
		},
		{
			name:   "github blob under releases directory",
			path:   "github.com/a/b/blob/main/docs/releases/notes.md",
			kind:   Proxy,
			target: "github.com/a/b/raw/main/docs/releases/notes.md",
			rule:   RuleGitHubBlob,
		},
		{
			name:   "github blob under releases directory to jsdelivr",
			path:   "github.com/a/b/blob/main/docs/releases/notes.md",
			flags:  jsdelivr,
			kind:   Redirect,
			target: "https://gcore.jsdelivr.net/gh/a/b@main/docs/releases/notes.md",
			rule:   RuleGitHubBlob,
		},
		{
			name:   "github blob under archive directory",
			path:   "https://github.com/a/b/blob/v1/archive/old.txt",
			kind:   Proxy,
			target: "https://github.com/a/b/raw/v1/archive/old.txt",
			rule:   RuleGitHubBlob,
		},
		{
			name:   "github raw keeps later blob directory",
			path:   "github.com/a/b/raw/main/blob/x",
			kind:   Proxy,
			target: "github.com/a/b/raw/main/blob/x",
			rule:   RuleGitHubBlob,
		},
		{
			name:   "github release asset named blob stays a release",
			path:   "github.com/a/b/releases/blob/x",
			flags:  jsdelivr,
			kind:   Proxy,
			target: "github.com/a/b/releases/blob/x",
			rule:   RuleGitHubReleases,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify(tt.path, tt.flags)

			if d.Kind != tt.kind {
				t.Fatalf("kind = %v, want %v (rule %q)", d.Kind, tt.kind, d.Rule)
			}
			if d.Target != tt.target {
				t.Errorf("target = %q, want %q", d.Target, tt.target)
			}
			if d.Rule != tt.rule {
				t.Errorf("rule = %q, want %q", d.Rule, tt.rule)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	flags := ServiceFlags{GitLabEnabled: true, JSDelivrEnabled: true}
	path := "https://github.com/a/b/blob/main/f"
	first := Classify(path, flags)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := Classify(path, flags); got != first {
					t.Errorf("non-deterministic decision: %+v vs %+v", got, first)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestDecision_Location(t *testing.T) {
	tests := []struct {
		name string
		d    Decision
		want string
	}{
		{"query absolute url", Decision{Kind: Redirect, Rule: RuleQuery, Target: "https://example.com/x"}, "/https://example.com/x"},
		{"query protocol relative", Decision{Kind: Redirect, Rule: RuleQuery, Target: "//evil.example/x"}, "/evil.example/x"},
		{"query backslashes", Decision{Kind: Redirect, Rule: RuleQuery, Target: `/\evil.example`}, "/evil.example"},
		{"query empty", Decision{Kind: Redirect, Rule: RuleQuery}, "/"},
		{"mirror", Decision{Kind: Redirect, Rule: RuleGitHubBlob, Target: "https://gcore.jsdelivr.net/gh/a/b@m/f"}, "https://gcore.jsdelivr.net/gh/a/b@m/f"},
		{"proxy has no location", Decision{Kind: Proxy, Target: "github.com/a"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Location(); got != tt.want {
				t.Errorf("Location() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRuleNames(t *testing.T) {
	got := RuleNames(ServiceFlags{})
	want := []string{
		RuleQuery,
		RuleGitHubReleases, RuleGitHubBlob, RuleGitHubGit,
		RuleGitHubRaw, RuleGitHubGist, RuleGitHubTags,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RuleNames() = %v, want %v", got, want)
	}

	got = RuleNames(ServiceFlags{BitbucketEnabled: true})
	if last := got[len(got)-1]; last != RuleBitbucketRaw {
		t.Errorf("expected bitbucket rules last, got %v", got)
	}
	for _, n := range got {
		if n == RuleGitLabBlob {
			t.Error("gitlab rules listed while disabled")
		}
	}
}

func TestKind_String(t *testing.T) {
	if Redirect.String() != "redirect" || Proxy.String() != "proxy" || Unsupported.String() != "unsupported" {
		t.Error("unexpected kind names")
	}
}

func TestIsQuery(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"q=https://example.com", true},
		{"q=", true},
		{"github.com/q=/x", false},
		{"Q=x", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsQuery(tt.path); got != tt.want {
			t.Errorf("IsQuery(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
