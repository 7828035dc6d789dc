package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/auth"
	"github.com/relgraph-inc/relgraph-engine/pkg/models"
	"github.com/relgraph-inc/relgraph-engine/pkg/services"
	"github.com/relgraph-inc/relgraph-engine/pkg/validation"
)

var edgeSchema = validation.Schema{
	Types: map[string]validation.Kind{
		"source": validation.KindString,
	},
	MaxLength: map[string]int{
		"source": 500,
	},
}

// RelationResponse is the wire shape of one relation edge.
type RelationResponse struct {
	ID        int64  `json:"id"`
	From      int64  `json:"from"`
	To        int64  `json:"to"`
	Source    string `json:"source,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// RelationHandler handles relation edge HTTP requests.
type RelationHandler struct {
	graphService services.GraphService
	logger       *zap.Logger
}

// NewRelationHandler creates a new relation handler.
func NewRelationHandler(graphService services.GraphService, logger *zap.Logger) *RelationHandler {
	return &RelationHandler{graphService: graphService, logger: logger}
}

// RegisterRoutes registers the edge routes. Adds and deletes take the static
// key; updates require an admin session.
func (h *RelationHandler) RegisterRoutes(
	mux *http.ServeMux,
	authMiddleware *auth.Middleware,
	addLimit, deleteLimit func(http.HandlerFunc) http.HandlerFunc,
) {
	mux.HandleFunc("POST /api/addEdge", addLimit(authMiddleware.RequireAPIKey(h.AddOrUpdate)))
	mux.HandleFunc("PUT /api/updateEdge", authMiddleware.RequireSession(h.Update))
	mux.HandleFunc("DELETE /api/deleteEdge", deleteLimit(authMiddleware.RequireAPIKey(h.Delete)))
}

// AddOrUpdate handles POST /api/addEdge. A duplicate of the unordered pair,
// in either direction, refreshes the existing edge's source instead of
// creating a second one.
func (h *RelationHandler) AddOrUpdate(w http.ResponseWriter, r *http.Request) {
	payload, ok := DecodeBody(w, r, h.logger)
	if !ok {
		return
	}

	from, to, violations := parseEdgePayload(payload)
	if len(violations) > 0 {
		writeValidationFailure(w, h.logger, violations)
		return
	}

	result, err := h.graphService.AddOrUpdateRelation(r.Context(), from, to, stringField(payload, "source"))
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	status := http.StatusCreated
	if result.Updated {
		status = http.StatusOK
	}

	response := map[string]any{
		"success":  true,
		"updated":  result.Updated,
		"relation": toRelationResponse(result.Relation),
	}
	if err := WriteJSON(w, status, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/updateEdge: update-only, 404 when the pair is
// absent.
func (h *RelationHandler) Update(w http.ResponseWriter, r *http.Request) {
	payload, ok := DecodeBody(w, r, h.logger)
	if !ok {
		return
	}

	from, to, violations := parseEdgePayload(payload)
	if len(violations) > 0 {
		writeValidationFailure(w, h.logger, violations)
		return
	}

	rel, err := h.graphService.UpdateRelation(r.Context(), from, to, stringField(payload, "source"))
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	response := map[string]any{
		"success":  true,
		"relation": toRelationResponse(rel),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/deleteEdge. The pair is unordered; either
// direction removes the stored edge.
func (h *RelationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	payload, ok := DecodeBody(w, r, h.logger)
	if !ok {
		return
	}

	from, to, violations := parseEdgePayload(payload)
	if len(violations) > 0 {
		writeValidationFailure(w, h.logger, violations)
		return
	}

	if err := h.graphService.DeleteRelation(r.Context(), from, to); err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	response := map[string]any{"success": true}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// parseEdgePayload validates the shared {from, to, source?} shape and
// collects every violation. On success the source field is left sanitized
// in the payload.
func parseEdgePayload(payload map[string]any) (from, to int64, violations []string) {
	violations = validation.Validate(payload, edgeSchema)

	from, fromViolation := parseIDField(payload, "from")
	if fromViolation != "" {
		violations = append(violations, fromViolation)
	}

	to, toViolation := parseIDField(payload, "to")
	if toViolation != "" {
		violations = append(violations, toViolation)
	}

	violations = append(violations, validation.CheckInjection(payload)...)
	if len(violations) == 0 {
		validation.SanitizeFields(payload, "source")
	}
	return from, to, violations
}

func toRelationResponse(rel *models.Relation) RelationResponse {
	return RelationResponse{
		ID:        rel.ID,
		From:      rel.FromPersonID,
		To:        rel.ToPersonID,
		Source:    rel.Source,
		CreatedAt: rel.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt: rel.UpdatedAt.UTC().Format(timeLayout),
	}
}
