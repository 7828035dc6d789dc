package ratelimit

import (
	"sync"
	"time"
)

// Policy declares one route's window length and request ceiling.
type Policy struct {
	Window time.Duration
	Limit  int
}

// Store holds per-client request timestamps. The in-memory implementation
// below serves a single-process deployment; a multi-process deployment swaps
// in a shared external store without touching call sites.
type Store interface {
	// Append records a request timestamp for the client and returns the
	// timestamps still inside the window, oldest first, including the one
	// just recorded when admitted. When the ceiling is already reached the
	// new timestamp is not recorded and admitted is false.
	Append(clientKey string, now time.Time, p Policy) (retained []time.Time, admitted bool)

	// Sweep drops clients whose every timestamp is older than cutoff.
	Sweep(cutoff time.Time)
}

// Limiter enforces sliding-window rate limits per client identity.
type Limiter struct {
	store Store
	now   func() time.Time
}

// NewLimiter creates a Limiter over the given store.
func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// Result reports one admission decision.
type Result struct {
	Allowed bool
	// RetryAfter is the time until the oldest retained timestamp leaves
	// the window; only meaningful when Allowed is false.
	RetryAfter time.Duration
}

// Allow records the request and decides admission. Rejections carry the
// seconds-until-slot-frees hint derived from the oldest retained timestamp.
func (l *Limiter) Allow(clientKey string, p Policy) Result {
	now := l.now()
	retained, admitted := l.store.Append(clientKey, now, p)
	if admitted {
		return Result{Allowed: true}
	}

	retryAfter := p.Window
	if len(retained) > 0 {
		retryAfter = retained[0].Add(p.Window).Sub(now)
	}
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Result{Allowed: false, RetryAfter: retryAfter}
}

// memoryStore keeps timestamp lists in a mutex-guarded map. State is not
// persisted and resets on restart; the limiter is a soft abuse deterrent,
// not a correctness guarantee.
type memoryStore struct {
	mu      sync.Mutex
	clients map[string][]time.Time
}

// NewMemoryStore creates an in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{clients: make(map[string][]time.Time)}
}

var _ Store = (*memoryStore)(nil)

func (s *memoryStore) Append(clientKey string, now time.Time, p Policy) ([]time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-p.Window)
	recent := s.clients[clientKey][:0:0]
	for _, ts := range s.clients[clientKey] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= p.Limit {
		s.clients[clientKey] = recent
		return recent, false
	}

	recent = append(recent, now)
	s.clients[clientKey] = recent
	return recent, true
}

func (s *memoryStore) Sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, timestamps := range s.clients {
		alive := false
		for _, ts := range timestamps {
			if ts.After(cutoff) {
				alive = true
				break
			}
		}
		if !alive {
			delete(s.clients, key)
		}
	}
}
