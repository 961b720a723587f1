// Package session tracks per-listener state: which service adapters a
// session has connected, and when it was last used. Sessions live only
// in memory; an idle sweeper reclaims them.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/medley-audio/medley/internal/adapter"
	"github.com/medley-audio/medley/internal/logger"
)

// Session is one listener's set of connected service adapters.
type Session struct {
	ID        string
	createdAt time.Time

	mu         sync.RWMutex
	lastAccess time.Time
	order      []string
	handles    map[string]*adapter.Handle
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		createdAt:  now,
		lastAccess: now,
		handles:    make(map[string]*adapter.Handle),
	}
}

// Connect builds and authenticates an adapter handle for service.
// Reconnecting an already-connected service replaces its handle, so
// fresh credentials take effect immediately.
func (s *Session) Connect(ctx context.Context, service string, creds adapter.Credentials, log logger.Logger) error {
	h, err := adapter.New(service, creds, log)
	if err != nil {
		return err
	}
	if err := h.EnsureAuth(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handles[service]; !ok {
		s.order = append(s.order, service)
	}
	s.handles[service] = h
	return nil
}

// Disconnect drops the handle for service and reports whether it was
// connected.
func (s *Session) Disconnect(service string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handles[service]; !ok {
		return false
	}
	delete(s.handles, service)
	for i, name := range s.order {
		if name == service {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Handle returns the connected handle for service.
func (s *Session) Handle(service string) (*adapter.Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.handles[service]
	return h, ok
}

// Handles returns the connected handles in connection order.
func (s *Session) Handles() []*adapter.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*adapter.Handle, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.handles[name])
	}
	return out
}

// Services returns the connected service names in connection order.
func (s *Session) Services() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.order...)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.After(s.lastAccess) {
		s.lastAccess = now
	}
}

// LastAccess returns the time of the most recent registry access.
func (s *Session) LastAccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastAccess
}

// CreatedAt returns when the session was first seen.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}
