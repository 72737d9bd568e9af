package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ghproxy-hq/ghproxy/pkg/proxy/types"
)

// WriteJSONResponse writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteErrorResponse writes an error body with an explicit status code.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, errResp *types.ErrorResponse) error {
	return WriteJSONResponse(w, statusCode, errResp)
}

// WriteError maps err with HandleError and writes the result.
func WriteError(w http.ResponseWriter, err error) error {
	pe := HandleError(err)
	return WriteErrorResponse(w, pe.Kind.StatusCode(), pe.Response())
}
