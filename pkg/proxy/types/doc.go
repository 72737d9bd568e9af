// Package types defines the JSON bodies the relay writes itself.
//
// Proxied content is passed through untouched, so the only body the relay
// owns is the error envelope:
//
//	{"error": "Rate limit exceeded", "message": "Rate limit error: Rate limit exceeded"}
//
// Error is a short category shared by every error of one kind. Message
// carries the detail and is safe to show to clients.
package types
