package routing

import "strings"

// queryPrefix marks a path that is redirected verbatim.
const queryPrefix = "q="

// IsQuery reports whether path is a "q=" redirect, which never touches the cache.
func IsQuery(path string) bool {
	return strings.HasPrefix(path, queryPrefix)
}

// Classify decides what to do with a raw request path: the request target
// with its leading "/" removed.
//
// A "q=" prefix always redirects to the remainder. Otherwise GitHub rules are
// tried, then GitLab and Bitbucket rules when enabled. The first match decides
// whether the path is supported; a path that also has its provider's blob
// shape is then rewritten as a blob whatever rule matched.
// Classify holds no state and is safe for concurrent use.
func Classify(path string, flags ServiceFlags) Decision {
	if rest, ok := strings.CutPrefix(path, queryPrefix); ok {
		return Decision{Kind: Redirect, Target: rest, Rule: RuleQuery}
	}

	if d, ok := match(githubRules, path, flags); ok {
		return d
	}
	if flags.GitLabEnabled {
		if d, ok := match(gitlabRules, path, flags); ok {
			return d
		}
	}
	if flags.BitbucketEnabled {
		if d, ok := match(bitbucketRules, path, flags); ok {
			return d
		}
	}

	return Decision{Kind: Unsupported}
}

func match(rules []rule, path string, flags ServiceFlags) (Decision, bool) {
	for _, r := range rules {
		if !r.pattern.MatchString(path) {
			continue
		}
		name, rewrite := r.name, r.rewrite
		if shape, ok := blobShapes[r.provider]; ok && shape.pattern.MatchString(path) {
			name, rewrite = shape.name, shape.rewrite
		}
		kind, target := rewrite(path, flags)
		return Decision{Kind: kind, Target: target, Rule: name, Provider: r.provider}, true
	}
	return Decision{}, false
}
