package types

// ErrorResponse is the JSON body of every error the relay answers itself.
type ErrorResponse struct {
	// Error is the category, e.g. "Rate limit exceeded".
	Error string `json:"error"`

	// Message is a human-readable description, e.g. "Upstream error: dial tcp: i/o timeout".
	Message string `json:"message"`
}

// Error categories.
const (
	ErrorInvalidRequest     = "Invalid request"
	ErrorRateLimitExceeded  = "Rate limit exceeded"
	ErrorServiceUnavailable = "Service unavailable"
	ErrorCache              = "Cache error"
	ErrorInternal           = "Internal error"
	ErrorTooManyConcurrent  = "Too many concurrent requests"
)

// NewErrorResponse creates an error response.
func NewErrorResponse(category, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   category,
		Message: message,
	}
}
