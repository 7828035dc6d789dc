package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/logging"
)

// Credential transport, per the API contract.
const (
	APIKeyHeader     = "x-api-key"
	APIKeyQueryParam = "key"
	SessionHeader    = "x-session-token"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

// SessionContextKey carries the authenticated session, when present.
const SessionContextKey ContextKey = "session"

// Middleware provides the two HTTP guard strategies: the static API key for
// mutating endpoints and session tokens for the administrative routes.
type Middleware struct {
	apiKey   string
	sessions *Manager
	logger   *zap.Logger
}

// NewMiddleware creates auth middleware. apiKey may be empty; the key guard
// then reports server misconfiguration on use rather than rejecting callers
// as unauthorized.
func NewMiddleware(apiKey string, sessions *Manager, logger *zap.Logger) *Middleware {
	return &Middleware{
		apiKey:   apiKey,
		sessions: sessions,
		logger:   logger,
	}
}

// RequireAPIKey guards a route with the static shared secret, read from the
// x-api-key header or the key query parameter.
func (m *Middleware) RequireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.checkAPIKey(w, r) {
			return
		}
		next(w, r)
	}
}

// RequireSession guards a route with a session token from x-session-token.
func (m *Middleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := m.sessions.Verify(r.Header.Get(SessionHeader))
		if !ok {
			m.unauthorized(w, "Valid session token required")
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, session)
		next(w, r.WithContext(ctx))
	}
}

// RequireSessionOrKey accepts either guard. A presented session token takes
// precedence over the static key.
func (m *Middleware) RequireSessionOrKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := r.Header.Get(SessionHeader); token != "" {
			session, ok := m.sessions.Verify(token)
			if !ok {
				m.unauthorized(w, "Valid session token required")
				return
			}
			ctx := context.WithValue(r.Context(), SessionContextKey, session)
			next(w, r.WithContext(ctx))
			return
		}

		if !m.checkAPIKey(w, r) {
			return
		}
		next(w, r)
	}
}

func (m *Middleware) checkAPIKey(w http.ResponseWriter, r *http.Request) bool {
	if m.apiKey == "" {
		m.logger.Error("API key check hit but no API_KEY configured")
		m.serverError(w, "Server misconfigured: no API key set")
		return false
	}

	supplied := r.Header.Get(APIKeyHeader)
	if supplied == "" {
		supplied = r.URL.Query().Get(APIKeyQueryParam)
	}
	if supplied == "" {
		m.unauthorized(w, "API key required")
		return false
	}

	if supplied != m.apiKey {
		m.logger.Warn("Rejected request with mismatched API key",
			zap.String("key_prefix", logging.CredentialPrefix(supplied)),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr))
		m.forbidden(w, "Invalid API key")
		return false
	}

	return true
}

// unauthorized returns a 401 response with the JSON error envelope.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	m.writeError(w, http.StatusUnauthorized, "unauthorized", message)
}

// forbidden returns a 403 response with the JSON error envelope.
func (m *Middleware) forbidden(w http.ResponseWriter, message string) {
	m.writeError(w, http.StatusForbidden, "forbidden", message)
}

// serverError returns a 500 response with the JSON error envelope.
func (m *Middleware) serverError(w http.ResponseWriter, message string) {
	m.writeError(w, http.StatusInternalServerError, "server_misconfigured", message)
}

func (m *Middleware) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":     code,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// SessionFromContext retrieves the authenticated session, when a session
// guard admitted the request.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(*Session)
	return session, ok
}
