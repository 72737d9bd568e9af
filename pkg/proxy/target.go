package proxy

import (
	"fmt"
	"net/url"
	"strings"
)

// TargetURL turns a rewritten path such as "github.com/a/b/raw/main/f" into
// the absolute URL fetched upstream. Paths without a scheme get "https://".
func TargetURL(target string) (*url.URL, error) {
	if target == "" {
		return nil, NewInvalidRequestError("empty upstream target", nil)
	}

	raw := target
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + strings.TrimLeft(raw, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, NewInvalidRequestError(fmt.Sprintf("malformed upstream target %q", target), err)
	}
	if u.Host == "" {
		return nil, NewInvalidRequestError(fmt.Sprintf("upstream target %q has no host", target), nil)
	}

	return u, nil
}
