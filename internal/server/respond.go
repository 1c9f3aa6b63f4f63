// ABOUTME: JSON response helpers and error-to-status mapping for the HTTP API
// ABOUTME: Every error response is {"error": "..."}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/2389/folder-icons/internal/assetstore"
	"github.com/2389/folder-icons/internal/icon"
	"github.com/2389/folder-icons/internal/store"
	"github.com/2389/folder-icons/internal/upload"
)

// errBadRequest marks malformed request input.
var errBadRequest = errors.New("bad request")

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sendJSONError writes a JSON error response.
func sendJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps a domain error to an HTTP status code.
func statusFor(err error) int {
	var verr *upload.ValidationError
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, errBadRequest),
		errors.As(err, &verr),
		errors.As(err, &maxBytes),
		errors.Is(err, icon.ErrInvalid),
		errors.Is(err, assetstore.ErrInvalidIdentity):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateFolder), errors.Is(err, store.ErrDuplicateJob):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// sendError maps err to a status and writes it. Server errors are logged.
func (s *Server) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	sendJSONError(w, status, err.Error())
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decoding request body: %v", errBadRequest, err)
	}
	return nil
}
