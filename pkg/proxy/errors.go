package proxy

import (
	"errors"
	"net/http"

	"ghproxy-hq/ghproxy/pkg/proxy/types"
)

// Kind classifies an error by how the relay answers it.
type Kind int

const (
	// KindInternal covers panics and failures with no better classification.
	KindInternal Kind = iota

	// KindInvalidRequest is a malformed rewritten target or redirect location.
	KindInvalidRequest

	// KindRateLimited means the client exceeded its window quota.
	KindRateLimited

	// KindUpstreamUnavailable is a connection, timeout, TLS or protocol
	// failure talking to the provider.
	KindUpstreamUnavailable

	// KindCacheFailure is an internal cache fault. The pipeline logs it and
	// never surfaces it to the client.
	KindCacheFailure
)

// String returns a label-friendly name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindCacheFailure:
		return "cache_failure"
	default:
		return "internal"
	}
}

// StatusCode returns the HTTP status the kind is answered with.
func (k Kind) StatusCode() int {
	switch k {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Category returns the value of the "error" field of the JSON body.
func (k Kind) Category() string {
	switch k {
	case KindInvalidRequest:
		return types.ErrorInvalidRequest
	case KindRateLimited:
		return types.ErrorRateLimitExceeded
	case KindUpstreamUnavailable:
		return types.ErrorServiceUnavailable
	case KindCacheFailure:
		return types.ErrorCache
	default:
		return types.ErrorInternal
	}
}

// messagePrefix starts the "message" field of the JSON body.
func (k Kind) messagePrefix() string {
	switch k {
	case KindInvalidRequest:
		return "Invalid request"
	case KindRateLimited:
		return "Rate limit error"
	case KindUpstreamUnavailable:
		return "Upstream error"
	case KindCacheFailure:
		return "Cache error"
	default:
		return "Internal error"
	}
}

// Error is a failure the relay answers with a JSON error body.
type Error struct {
	// Kind selects the status code and category.
	Kind Kind

	// Detail is shown to the client after the kind's message prefix.
	// Empty means the wrapped error's text.
	Detail string

	// Err is the underlying cause, if any.
	Err error
}

// Error returns the client-facing message, followed by the cause when the
// detail does not already carry it.
func (e *Error) Error() string {
	msg := e.Message()
	if e.Err != nil && e.Detail != "" {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the "message" field of the JSON body.
func (e *Error) Message() string {
	detail := e.Detail
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if detail == "" {
		return e.Kind.messagePrefix()
	}
	return e.Kind.messagePrefix() + ": " + detail
}

// Response converts the error to its wire body.
func (e *Error) Response() *types.ErrorResponse {
	return types.NewErrorResponse(e.Kind.Category(), e.Message())
}

// NewInvalidRequestError reports a target or location that cannot be used.
func NewInvalidRequestError(detail string, err error) *Error {
	return &Error{Kind: KindInvalidRequest, Detail: detail, Err: err}
}

// NewRateLimitedError reports a client over its quota.
func NewRateLimitedError() *Error {
	return &Error{Kind: KindRateLimited, Detail: types.ErrorRateLimitExceeded}
}

// NewUpstreamError reports a failed upstream exchange. The cause's text
// becomes the detail.
func NewUpstreamError(err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Err: err}
}

// NewCacheError reports a cache fault.
func NewCacheError(detail string) *Error {
	return &Error{Kind: KindCacheFailure, Detail: detail}
}

// HandleError maps any error to an *Error. Errors that are not already an
// *Error anywhere in their chain become KindInternal with a generic detail,
// so internal messages never reach clients.
//
// Example usage:
//
//	if err != nil {
//	    WriteError(w, err)
//	    return
//	}
func HandleError(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{
		Kind:   KindInternal,
		Detail: "An internal error occurred. Please try again later.",
		Err:    err,
	}
}
