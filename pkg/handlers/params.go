package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/validation"
)

// maxBodyBytes caps request bodies; the largest legal payload is a
// description plus a background body, far under this.
const maxBodyBytes = 1 << 20

// DecodeBody reads a JSON object payload. A failure writes the 400 envelope
// and returns ok=false.
func DecodeBody(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (map[string]any, bool) {
	defer r.Body.Close()

	var payload map[string]any
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&payload); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_json", "Request body must be a JSON object"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}

	return payload, true
}

// ParsePathID extracts and bounds-checks the {id} path segment.
func ParsePathID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	id, err := validation.ParseID(r.PathValue("id"))
	if err != nil {
		writeInvalidID(w, logger, "id")
		return 0, false
	}
	return id, true
}

// ParseQueryID extracts and bounds-checks an ID query parameter.
func ParseQueryID(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (int64, bool) {
	id, err := validation.ParseID(r.URL.Query().Get(name))
	if err != nil {
		writeInvalidID(w, logger, name)
		return 0, false
	}
	return id, true
}

// parseIDField pulls an ID out of a decoded payload, tolerating numeric
// strings. Returns a violation message instead of an error so callers can
// collect it with the schema violations.
func parseIDField(payload map[string]any, field string) (int64, string) {
	value, ok := payload[field]
	if !ok || value == nil || value == "" {
		return 0, fmt.Sprintf("%s is required", field)
	}

	id, err := validation.ParseIDValue(value)
	if err != nil {
		return 0, fmt.Sprintf("%s must be a positive integer no larger than %d", field, validation.MaxID)
	}

	return id, ""
}

func writeInvalidID(w http.ResponseWriter, logger *zap.Logger, field string) {
	message := fmt.Sprintf("%s must be a positive integer no larger than %d", field, validation.MaxID)
	if err := ErrorResponse(w, http.StatusBadRequest, "invalid_id", message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// stringField returns the named payload field as a string; absent or
// non-string values come back empty.
func stringField(payload map[string]any, field string) string {
	s, _ := payload[field].(string)
	return s
}

// writeValidationFailure writes the collected violations as a 400.
func writeValidationFailure(w http.ResponseWriter, logger *zap.Logger, violations []string) {
	if err := ErrorResponseWithDetails(w, http.StatusBadRequest, "validation_failed",
		"Request payload failed validation", violations); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
