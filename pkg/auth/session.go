package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	mathrand "math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/apperrors"
)

// ErrNotConfigured reports that admin credentials are missing server-side.
// It maps to a server error, never to a client auth failure.
var ErrNotConfigured = errors.New("admin credentials not configured")

// Session is one minted admin session.
type Session struct {
	Token     string
	Username  string
	CreatedAt time.Time
}

// SessionStore holds sessions keyed by token. The in-memory implementation
// serves a single-process deployment; a shared external store can be swapped
// in for multi-process deployments without touching call sites.
type SessionStore interface {
	Put(session Session)
	Get(token string) (Session, bool)
	Delete(token string)
	Sweep(cutoff time.Time) int
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewMemorySessionStore creates an in-memory SessionStore.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]Session)}
}

var _ SessionStore = (*memorySessionStore)(nil)

func (s *memorySessionStore) Put(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
}

func (s *memorySessionStore) Get(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	return session, ok
}

func (s *memorySessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func (s *memorySessionStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for token, session := range s.sessions {
		if !session.CreatedAt.After(cutoff) {
			delete(s.sessions, token)
			evicted++
		}
	}
	return evicted
}

// Manager issues and verifies admin session tokens.
type Manager struct {
	store         SessionStore
	adminUsername string
	adminPassword string
	ttl           time.Duration
	logger        *zap.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// NewManager creates a session manager over the given store.
func NewManager(store SessionStore, adminUsername, adminPassword string, ttl time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		store:         store,
		adminUsername: adminUsername,
		adminPassword: adminPassword,
		ttl:           ttl,
		logger:        logger,
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

// Login validates admin credentials and mints an opaque session token.
// Comparison is constant-time, and failures take a randomized extra delay to
// blunt timing side-channels. Returns apperrors.ErrInvalidCredentials on
// mismatch and ErrNotConfigured when the server holds no admin password.
func (m *Manager) Login(username, password string) (*Session, error) {
	if m.adminPassword == "" {
		return nil, ErrNotConfigured
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.adminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.adminPassword)) == 1
	if !userOK || !passOK {
		m.sleep(time.Duration(200+mathrand.IntN(300)) * time.Millisecond)
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := mintToken()
	if err != nil {
		return nil, fmt.Errorf("failed to mint session token: %w", err)
	}

	session := Session{
		Token:     token,
		Username:  username,
		CreatedAt: m.now(),
	}
	m.store.Put(session)

	return &session, nil
}

// Verify reports whether the token names a live session. Expired sessions
// are evicted lazily here in addition to the background sweep.
func (m *Manager) Verify(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}

	session, ok := m.store.Get(token)
	if !ok {
		return nil, false
	}

	if m.now().Sub(session.CreatedAt) > m.ttl {
		m.store.Delete(token)
		return nil, false
	}

	return &session, true
}

// Logout invalidates the token immediately.
func (m *Manager) Logout(token string) {
	m.store.Delete(token)
}

// ExpiresAt returns when a session created at the given time stops being
// accepted.
func (m *Manager) ExpiresAt(session *Session) time.Time {
	return session.CreatedAt.Add(m.ttl)
}

// StartSweeper evicts expired sessions every interval until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				evicted := m.store.Sweep(m.now().Add(-m.ttl))
				if evicted > 0 {
					m.logger.Info("Evicted expired sessions", zap.Int("count", evicted))
				}
			}
		}
	}()
}

// mintToken returns 32 bytes from crypto/rand, hex encoded.
func mintToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
