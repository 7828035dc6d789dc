package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/services"
)

// GraphHandler serves the read-only graph views.
type GraphHandler struct {
	graphService services.GraphService
	logger       *zap.Logger
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(graphService services.GraphService, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{graphService: graphService, logger: logger}
}

// RegisterRoutes registers the graph read routes. The relations report is
// reachable both by path parameter and by query parameter for older clients.
func (h *GraphHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/graph", h.Graph)
	mux.HandleFunc("GET /api/person/{id}/relations", h.PersonRelationsByPath)
	mux.HandleFunc("GET /api/relations", h.PersonRelationsByQuery)
}

// Graph handles GET /api/graph: every edge plus only the persons connected
// to at least one of them.
func (h *GraphHandler) Graph(w http.ResponseWriter, r *http.Request) {
	projection, err := h.graphService.Projection(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	response := map[string]any{
		"success": true,
		"nodes":   projection.Nodes,
		"edges":   projection.Edges,
		"counts":  projection.Counts,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// PersonRelationsByPath handles GET /api/person/{id}/relations.
func (h *GraphHandler) PersonRelationsByPath(w http.ResponseWriter, r *http.Request) {
	id, ok := ParsePathID(w, r, h.logger)
	if !ok {
		return
	}
	h.writePersonRelations(w, r, id)
}

// PersonRelationsByQuery handles GET /api/relations?id=.
func (h *GraphHandler) PersonRelationsByQuery(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseQueryID(w, r, "id", h.logger)
	if !ok {
		return
	}
	h.writePersonRelations(w, r, id)
}

func (h *GraphHandler) writePersonRelations(w http.ResponseWriter, r *http.Request, id int64) {
	report, err := h.graphService.PersonRelations(r.Context(), id)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	relations := make([]RelationResponse, 0, len(report.Relations))
	for _, rel := range report.Relations {
		relations = append(relations, toRelationResponse(rel))
	}

	neighbors := make([]PersonResponse, 0, len(report.Neighbors))
	for _, n := range report.Neighbors {
		neighbors = append(neighbors, toPersonResponse(n))
	}

	response := map[string]any{
		"success":   true,
		"person":    toPersonResponse(report.Person),
		"relations": relations,
		"neighbors": neighbors,
		"degree":    report.Degree,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
