package handlers

import (
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/auth"
	"github.com/relgraph-inc/relgraph-engine/pkg/models"
	"github.com/relgraph-inc/relgraph-engine/pkg/services"
	"github.com/relgraph-inc/relgraph-engine/pkg/validation"
)

// BackgroundResponse is the wire shape of the one-to-one background
// sub-entity.
type BackgroundResponse struct {
	ID        int64  `json:"id"`
	PersonID  int64  `json:"person_id"`
	BirthYear *int   `json:"birth_year,omitempty"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// BackgroundHandler handles person background HTTP requests.
type BackgroundHandler struct {
	graphService services.GraphService
	logger       *zap.Logger
}

// NewBackgroundHandler creates a new background handler.
func NewBackgroundHandler(graphService services.GraphService, logger *zap.Logger) *BackgroundHandler {
	return &BackgroundHandler{graphService: graphService, logger: logger}
}

// RegisterRoutes registers the background routes. The upsert accepts either
// an admin session or the static key.
func (h *BackgroundHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/background", h.Get)
	mux.HandleFunc("PUT /api/background", authMiddleware.RequireSessionOrKey(h.Upsert))
}

// Get handles GET /api/background?id=.
func (h *BackgroundHandler) Get(w http.ResponseWriter, r *http.Request) {
	personID, ok := ParseQueryID(w, r, "id", h.logger)
	if !ok {
		return
	}

	bg, err := h.graphService.GetBackground(r.Context(), personID)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	response := map[string]any{
		"success":    true,
		"background": toBackgroundResponse(bg),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Upsert handles PUT /api/background: body {id, body, birth_year?}. Repeating
// the call replaces the row in place.
func (h *BackgroundHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	payload, ok := DecodeBody(w, r, h.logger)
	if !ok {
		return
	}

	schema := validation.Schema{
		Required: []string{"body"},
		Types: map[string]validation.Kind{
			"body":       validation.KindString,
			"birth_year": validation.KindNumber,
		},
		NumberRange: map[string]validation.Range{
			"birth_year": {Min: 0, Max: float64(time.Now().Year())},
		},
	}

	violations := validation.Validate(payload, schema)

	personID, idViolation := parseIDField(payload, "id")
	if idViolation != "" {
		violations = append(violations, idViolation)
	}

	violations = append(violations, validation.CheckInjection(payload)...)
	if raw, ok := payload["birth_year"].(float64); ok && raw != math.Trunc(raw) {
		violations = append(violations, "birth_year must be a whole year")
	}
	if len(violations) > 0 {
		writeValidationFailure(w, h.logger, violations)
		return
	}
	validation.SanitizeFields(payload, "body")

	var birthYear *int
	if raw, ok := payload["birth_year"].(float64); ok {
		year := int(raw)
		birthYear = &year
	}

	bg, err := h.graphService.UpsertBackground(r.Context(), personID, birthYear, stringField(payload, "body"))
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	response := map[string]any{
		"success":    true,
		"background": toBackgroundResponse(bg),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func toBackgroundResponse(bg *models.PersonBackground) BackgroundResponse {
	return BackgroundResponse{
		ID:        bg.ID,
		PersonID:  bg.PersonID,
		BirthYear: bg.BirthYear,
		Body:      bg.Body,
		CreatedAt: bg.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt: bg.UpdatedAt.UTC().Format(timeLayout),
	}
}
