package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/render"
	"github.com/relgraph-inc/relgraph-engine/pkg/services"
)

// RenderHandler serves graph snapshots as images.
type RenderHandler struct {
	graphService services.GraphService
	renderer     render.Renderer
	disabled     bool
	logger       *zap.Logger
}

// NewRenderHandler creates a render handler. When disabled is set (no
// browser on the host) the routes answer 503 instead of failing mid-render.
func NewRenderHandler(graphService services.GraphService, renderer render.Renderer, disabled bool, logger *zap.Logger) *RenderHandler {
	return &RenderHandler{
		graphService: graphService,
		renderer:     renderer,
		disabled:     disabled,
		logger:       logger,
	}
}

// RegisterRoutes registers the image routes.
func (h *RenderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /custom.png", h.RenderPNG)
	mux.HandleFunc("GET /custom.jpeg", h.RenderJPEG)
}

// RenderPNG handles GET /custom.png.
func (h *RenderHandler) RenderPNG(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, render.FormatPNG)
}

// RenderJPEG handles GET /custom.jpeg.
func (h *RenderHandler) RenderJPEG(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, render.FormatJPEG)
}

func (h *RenderHandler) render(w http.ResponseWriter, r *http.Request, format render.Format) {
	if h.disabled || h.renderer == nil {
		if err := ErrorResponse(w, http.StatusServiceUnavailable, "render_disabled",
			"Image rendering is disabled on this deployment"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	// A render can legitimately outlast the server's blanket write timeout;
	// clear the deadline so the layout wait is the only bound here.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil &&
		!errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("Failed to clear write deadline", zap.Error(err))
	}

	projection, err := h.graphService.Projection(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	nodes := make([]render.Node, 0, len(projection.Nodes))
	for _, n := range projection.Nodes {
		nodes = append(nodes, render.Node{ID: n.ID, Label: n.Label})
	}
	edges := make([]render.Edge, 0, len(projection.Edges))
	for _, e := range projection.Edges {
		edges = append(edges, render.Edge{From: e.From, To: e.To, Source: e.Source})
	}

	style := styleFromQuery(r, format)

	image, err := h.renderer.Render(r.Context(), nodes, edges, style)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	contentType := "image/png"
	if format == render.FormatJPEG {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="graph.%s"`, format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(image); err != nil {
		h.logger.Error("Failed to write image response", zap.Error(err))
	}
}

// styleFromQuery reads the presentation knobs. Unparsable values fall back
// to defaults; out-of-range values are clamped downstream.
func styleFromQuery(r *http.Request, format render.Format) render.Style {
	style := render.DefaultStyle()
	style.Format = format

	q := r.URL.Query()
	if v, err := strconv.ParseFloat(q.Get("width"), 64); err == nil {
		style.LineWidth = v
	}
	if v, err := strconv.ParseFloat(q.Get("nodesize"), 64); err == nil {
		style.NodeSize = v
	}
	if v, err := strconv.ParseFloat(q.Get("fontsize"), 64); err == nil {
		style.FontSize = v
	}
	if v, err := strconv.ParseFloat(q.Get("opacity"), 64); err == nil {
		style.Opacity = v
	}

	return style.Normalize()
}
