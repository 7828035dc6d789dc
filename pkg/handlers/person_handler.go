package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/auth"
	"github.com/relgraph-inc/relgraph-engine/pkg/models"
	"github.com/relgraph-inc/relgraph-engine/pkg/services"
	"github.com/relgraph-inc/relgraph-engine/pkg/validation"
)

// addNodeSchema matches the persons storage columns.
var addNodeSchema = validation.Schema{
	Required: []string{"name"},
	Types: map[string]validation.Kind{
		"name":        validation.KindString,
		"description": validation.KindString,
		"gender":      validation.KindString,
	},
	MaxLength: map[string]int{
		"name":        255,
		"description": 1000,
	},
}

// PersonResponse is the wire shape of one person.
type PersonResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Gender      string `json:"gender"`
	CreatedAt   string `json:"created_at"`
}

// PersonHandler handles person HTTP requests.
type PersonHandler struct {
	graphService services.GraphService
	logger       *zap.Logger
}

// NewPersonHandler creates a new person handler.
func NewPersonHandler(graphService services.GraphService, logger *zap.Logger) *PersonHandler {
	return &PersonHandler{graphService: graphService, logger: logger}
}

// RegisterRoutes registers the person routes. rateLimit guards the write
// endpoint only; reads are unlimited.
func (h *PersonHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, rateLimit func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/addNode", rateLimit(authMiddleware.RequireAPIKey(h.Create)))
	mux.HandleFunc("GET /api/persons", h.List)
}

// Create handles POST /api/addNode.
func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := DecodeBody(w, r, h.logger)
	if !ok {
		return
	}

	violations := validation.Validate(payload, addNodeSchema)
	violations = append(violations, validation.CheckInjection(payload)...)
	if len(violations) > 0 {
		writeValidationFailure(w, h.logger, violations)
		return
	}
	validation.SanitizeFields(payload, "name", "description")

	person, err := h.graphService.AddPerson(r.Context(),
		stringField(payload, "name"),
		stringField(payload, "description"),
		stringField(payload, "gender"))
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	response := map[string]any{
		"success": true,
		"person":  toPersonResponse(person),
	}
	if err := WriteJSON(w, http.StatusCreated, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/persons. Isolated persons are included; this is the
// inventory view, not the graph projection.
func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	persons, err := h.graphService.ListPersons(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	out := make([]PersonResponse, 0, len(persons))
	for _, p := range persons {
		out = append(out, toPersonResponse(p))
	}

	response := map[string]any{
		"success": true,
		"persons": out,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func toPersonResponse(p *models.Person) PersonResponse {
	return PersonResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Gender:      string(p.Gender),
		CreatedAt:   p.CreatedAt.UTC().Format(timeLayout),
	}
}
