package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/logger"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps err onto a status code and writes it.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.LoggerFromContext(r.Context()).Warnw("Request failed",
			logger.FieldPath, r.URL.Path,
			logger.FieldStatus, status,
			logger.FieldError, err)
	}
	resp := ErrorResponse{Error: err.Error()}
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		resp.Hint = hints[0]
	}
	writeJSON(w, status, resp)
}

// statusFor returns the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.IsValidationError(err):
		return http.StatusBadRequest
	case errors.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.IsServiceUnavailableError(err),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// readJSON decodes the request body, answering 400 on failure
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// shortID truncates an ID to 8 characters for logging
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
