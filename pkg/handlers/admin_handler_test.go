package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/auth"
)

func newAdminFixture(t *testing.T) (*AdminHandler, *auth.Manager, *http.ServeMux) {
	t.Helper()

	manager := auth.NewManager(auth.NewMemorySessionStore(), "admin", "correct-horse", 24*time.Hour, zap.NewNop())
	h := NewAdminHandler(manager, zap.NewNop())

	mux := http.NewServeMux()
	noLimit := func(next http.HandlerFunc) http.HandlerFunc { return next }
	h.RegisterRoutes(mux, auth.NewMiddleware("secret", manager, zap.NewNop()), noLimit)

	return h, manager, mux
}

func TestAdminHandlerLogin(t *testing.T) {
	t.Run("valid credentials mint a token", func(t *testing.T) {
		_, _, mux := newAdminFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/api/admin/login",
			strings.NewReader(`{"username":"admin","password":"correct-horse"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		token := body["token"].(string)
		assert.Len(t, token, 64)
		assert.NotEmpty(t, body["expires_at"])
	})

	t.Run("bad credentials return 401", func(t *testing.T) {
		_, _, mux := newAdminFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/api/admin/login",
			strings.NewReader(`{"username":"admin","password":"wrong"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid_credentials", decodeJSON(t, rec)["error"])
	})

	t.Run("missing fields fail validation", func(t *testing.T) {
		_, _, mux := newAdminFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/api/admin/login",
			strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		details := decodeJSON(t, rec)["details"].([]any)
		assert.Len(t, details, 2)
	})
}

func TestAdminHandlerLogoutAndVerify(t *testing.T) {
	_, manager, mux := newAdminFixture(t)

	session, err := manager.Login("admin", "correct-horse")
	require.NoError(t, err)

	// verify works while the session lives
	req := httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil)
	req.Header.Set(auth.SessionHeader, session.Token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", decodeJSON(t, rec)["username"])

	// logout invalidates the token
	req = httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	req.Header.Set(auth.SessionHeader, session.Token)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the same token no longer verifies
	req = httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil)
	req.Header.Set(auth.SessionHeader, session.Token)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
