package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// sessionStore hands out random session IDs and forgets them after the
// configured TTL.
type sessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]time.Time
	fallback uint64
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:      ttl,
		sessions: make(map[string]time.Time),
	}
}

// Touch validates an existing session ID or issues a new one. The
// second return is true when a new session was started.
func (s *sessionStore) Touch(id string, now time.Time) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if expires, ok := s.sessions[id]; ok && now.Before(expires) {
			s.sessions[id] = now.Add(s.ttl)
			return id, false
		}
		delete(s.sessions, id)
	}

	fresh := s.newID()
	s.sessions[fresh] = now.Add(s.ttl)
	s.prune(now)
	return fresh, true
}

func (s *sessionStore) newID() string {
	var buf [12]byte
	if _, err := rand.Read(buf[:]); err == nil {
		return hex.EncodeToString(buf[:])
	}
	value := atomic.AddUint64(&s.fallback, 1)
	return fmt.Sprintf("sess-%d", value)
}

func (s *sessionStore) prune(now time.Time) {
	for id, expires := range s.sessions {
		if now.After(expires) {
			delete(s.sessions, id)
		}
	}
}
