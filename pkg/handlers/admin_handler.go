package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/auth"
	"github.com/relgraph-inc/relgraph-engine/pkg/validation"
)

var loginSchema = validation.Schema{
	Required: []string{"username", "password"},
	Types: map[string]validation.Kind{
		"username": validation.KindString,
		"password": validation.KindString,
	},
}

// AdminHandler handles admin session HTTP requests.
type AdminHandler struct {
	sessions *auth.Manager
	logger   *zap.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(sessions *auth.Manager, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{sessions: sessions, logger: logger}
}

// RegisterRoutes registers the admin session routes. Login is rate-limited
// against credential stuffing; the other two require a live session.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, loginLimit func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/admin/login", loginLimit(h.Login))
	mux.HandleFunc("POST /api/admin/logout", authMiddleware.RequireSession(h.Logout))
	mux.HandleFunc("GET /api/admin/verify", authMiddleware.RequireSession(h.Verify))
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	payload, ok := DecodeBody(w, r, h.logger)
	if !ok {
		return
	}

	if violations := validation.Validate(payload, loginSchema); len(violations) > 0 {
		writeValidationFailure(w, h.logger, violations)
		return
	}

	session, err := h.sessions.Login(stringField(payload, "username"), stringField(payload, "password"))
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	response := map[string]any{
		"success":    true,
		"token":      session.Token,
		"expires_at": h.sessions.ExpiresAt(session).UTC().Format(timeLayout),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Logout handles POST /api/admin/logout, invalidating the presented token.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Header.Get(auth.SessionHeader))

	response := map[string]any{"success": true}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Verify handles GET /api/admin/verify, a liveness probe for a held token.
func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		// The session guard admitted the request, so this is a wiring bug.
		h.logger.Error("Verify reached without a session in context")
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "An internal error occurred"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := map[string]any{
		"success":    true,
		"username":   session.Username,
		"expires_at": h.sessions.ExpiresAt(session).UTC().Format(timeLayout),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
