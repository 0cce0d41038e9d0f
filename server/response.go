package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/logger"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeWrappedError logs err with context and writes a JSON error whose
// status follows the error's sentinel. fallback is used for unclassified errors.
func writeWrappedError(w http.ResponseWriter, log *zap.SugaredLogger, err error, context string, fallback int) {
	status := statusFor(err, fallback)
	wrapped := errors.Wrap(err, context)
	if status >= http.StatusInternalServerError {
		log.Errorw(context, logger.FieldError, err)
	} else {
		log.Debugw(context, logger.FieldError, err)
	}
	writeError(w, status, wrapped.Error())
}

// statusFor maps sentinel errors to HTTP status codes
func statusFor(err error, fallback int) int {
	switch {
	case errors.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.IsInvalidRequestError(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrClientTooOld):
		return http.StatusUpgradeRequired
	case errors.Is(err, ErrDraining), errors.IsServiceUnavailableError(err):
		return http.StatusServiceUnavailable
	default:
		return fallback
	}
}

// readJSON reads and decodes a JSON request body
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return err
	}
	return nil
}

// requireMethod checks if the request method matches the expected method
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewInvalidRequestError("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

// shortID truncates an ID to 8 characters for logging
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
