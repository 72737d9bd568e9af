package routing

// Kind is the outcome category of a routing decision.
type Kind int

const (
	// Unsupported means no rule matched; the pipeline answers with a placeholder.
	Unsupported Kind = iota

	// Redirect means the client is sent elsewhere with a 302.
	Redirect

	// Proxy means the target is fetched upstream and streamed back.
	Proxy
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Redirect:
		return "redirect"
	case Proxy:
		return "proxy"
	default:
		return "unsupported"
	}
}

// Provider identifies the git hosting service a rule belongs to.
type Provider string

const (
	ProviderNone      Provider = ""
	ProviderGitHub    Provider = "github"
	ProviderGitLab    Provider = "gitlab"
	ProviderBitbucket Provider = "bitbucket"
)

// ServiceFlags selects which optional providers and rewrites are active.
// GitHub rules are always evaluated.
type ServiceFlags struct {
	GitLabEnabled    bool
	BitbucketEnabled bool
	JSDelivrEnabled  bool

	// MirrorHost is the jsDelivr host used for blob redirects.
	// Empty means DefaultMirrorHost.
	MirrorHost string
}

// Decision is the result of classifying a request path.
type Decision struct {
	// Kind is the action the pipeline takes.
	Kind Kind

	// Target is the redirect destination or the rewritten upstream path.
	// Empty for Unsupported.
	Target string

	// Rule is the name of the rule that matched ("q" for query redirects).
	Rule string

	// Provider is the provider of the matched rule, empty for "q" and Unsupported.
	Provider Provider
}

// Location returns the value for the Location header of a Redirect decision.
//
// Query redirects are relayed back through the proxy as "/<target>". Leading
// slashes are collapsed so the location is never protocol-relative. Absolute
// targets (mirror redirects) are returned as-is.
func (d Decision) Location() string {
	if d.Kind != Redirect {
		return ""
	}
	if d.Rule != RuleQuery {
		return d.Target
	}
	for len(d.Target) > 0 && (d.Target[0] == '/' || d.Target[0] == '\\') {
		d.Target = d.Target[1:]
	}
	return "/" + d.Target
}
