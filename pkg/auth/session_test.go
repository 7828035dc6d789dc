package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/apperrors"
)

func newTestManager(t *testing.T) (*Manager, *time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	m := NewManager(NewMemorySessionStore(), "admin", "hunter2-but-long", 24*time.Hour, zap.NewNop())
	m.now = func() time.Time { return now }
	m.sleep = func(time.Duration) {} // no timing-noise delay in tests
	return m, &now
}

func TestManager_LoginSuccess(t *testing.T) {
	m, _ := newTestManager(t)

	session, err := m.Login("admin", "hunter2-but-long")
	require.NoError(t, err)
	assert.Len(t, session.Token, 64, "32 random bytes, hex encoded")
	assert.Equal(t, "admin", session.Username)

	verified, ok := m.Verify(session.Token)
	require.True(t, ok)
	assert.Equal(t, session.Token, verified.Token)
}

func TestManager_LoginFailure(t *testing.T) {
	m, _ := newTestManager(t)
	slept := false
	m.sleep = func(time.Duration) { slept = true }

	_, err := m.Login("admin", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.True(t, slept, "failed logins take the randomized delay")

	_, err = m.Login("root", "hunter2-but-long")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestManager_LoginNotConfigured(t *testing.T) {
	m := NewManager(NewMemorySessionStore(), "admin", "", 24*time.Hour, zap.NewNop())

	_, err := m.Login("admin", "anything")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestManager_TokensAreUnique(t *testing.T) {
	m, _ := newTestManager(t)

	a, err := m.Login("admin", "hunter2-but-long")
	require.NoError(t, err)
	b, err := m.Login("admin", "hunter2-but-long")
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)
}

func TestManager_LazyExpiry(t *testing.T) {
	m, now := newTestManager(t)

	session, err := m.Login("admin", "hunter2-but-long")
	require.NoError(t, err)

	*now = now.Add(23 * time.Hour)
	_, ok := m.Verify(session.Token)
	assert.True(t, ok, "still inside the 24h window")

	*now = now.Add(2 * time.Hour)
	_, ok = m.Verify(session.Token)
	assert.False(t, ok, "rejected immediately after expiry")

	// Lazy eviction removed the entry entirely.
	_, found := m.store.Get(session.Token)
	assert.False(t, found)
}

func TestManager_Logout(t *testing.T) {
	m, _ := newTestManager(t)

	session, err := m.Login("admin", "hunter2-but-long")
	require.NoError(t, err)

	m.Logout(session.Token)

	_, ok := m.Verify(session.Token)
	assert.False(t, ok)
}

func TestSessionStore_Sweep(t *testing.T) {
	store := NewMemorySessionStore()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	store.Put(Session{Token: "old", CreatedAt: base.Add(-25 * time.Hour)})
	store.Put(Session{Token: "live", CreatedAt: base.Add(-1 * time.Hour)})

	evicted := store.Sweep(base.Add(-24 * time.Hour))

	assert.Equal(t, 1, evicted)
	_, ok := store.Get("old")
	assert.False(t, ok)
	_, ok = store.Get("live")
	assert.True(t, ok)
}
