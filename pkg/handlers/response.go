package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/apperrors"
	"github.com/relgraph-inc/relgraph-engine/pkg/auth"
	"github.com/relgraph-inc/relgraph-engine/pkg/logging"
)

// timeLayout is the timestamp format of every response body.
const timeLayout = time.RFC3339

// ErrorResponse writes the JSON error envelope and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return ErrorResponseWithDetails(w, statusCode, errorCode, message, nil)
}

// ErrorResponseWithDetails writes the error envelope with per-field detail
// messages, used by validation failures to report every violation at once.
func ErrorResponseWithDetails(w http.ResponseWriter, statusCode int, errorCode, message string, details []string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	body := map[string]any{
		"error":     errorCode,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if len(details) > 0 {
		body["details"] = details
	}
	return json.NewEncoder(w).Encode(body)
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ServiceError maps a domain error to its HTTP shape. The logger gets the
// full error; the caller gets the envelope.
func ServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var status int
	var code, message string

	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInvalidID):
		status, code, message = http.StatusBadRequest, "validation_failed", err.Error()
	case errors.Is(err, apperrors.ErrSelfLoop):
		status, code, message = http.StatusBadRequest, "self_loop", "A relation cannot connect a person to themselves"
	case errors.Is(err, apperrors.ErrPersonMissing):
		status, code, message = http.StatusNotFound, "person_not_found", err.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, apperrors.ErrConflict):
		status, code, message = http.StatusConflict, "conflict", err.Error()
	case errors.Is(err, auth.ErrNotConfigured):
		status, code, message = http.StatusInternalServerError, "server_misconfigured", "Admin credentials not configured"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		status, code, message = http.StatusUnauthorized, "invalid_credentials", "Invalid username or password"
	case errors.Is(err, apperrors.ErrRenderFailed):
		status, code, message = http.StatusInternalServerError, "render_failed", "Failed to render graph image"
	default:
		status, code, message = http.StatusInternalServerError, "internal_error", "An internal error occurred"
	}

	if status >= http.StatusInternalServerError {
		// Database errors can carry connection strings; redact before logging.
		logger.Error("Request failed", zap.String("error", logging.SanitizeError(err)))
	}

	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
