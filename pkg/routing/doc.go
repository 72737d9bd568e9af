// Package routing classifies proxy request paths.
//
// A request path embeds an upstream URL, for example
//
//	https://github.com/owner/repo/blob/main/README.md
//
// Classify matches it against an ordered table of per-provider patterns and
// returns a Decision: proxy the (possibly rewritten) URL, redirect the client,
// or report it unsupported. GitHub patterns are always active; GitLab and
// Bitbucket patterns only when enabled in ServiceFlags.
//
// Rewrites:
//
//   - GitHub blob pages are proxied from the matching /raw/ URL, or
//     redirected to the jsDelivr mirror when that is enabled.
//   - GitLab blob pages are proxied from the matching raw URL.
//   - Paths starting with "q=" redirect to whatever follows.
package routing
