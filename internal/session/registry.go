package session

import (
	"sort"
	"sync"
	"time"

	"github.com/medley-audio/medley/internal/logger"
	"github.com/medley-audio/medley/internal/metrics"
)

// Registry stores live sessions keyed by session id.
type Registry struct {
	log     logger.Logger
	idleTTL time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Info is a point-in-time view of one session for the health report.
type Info struct {
	ID       string   `json:"sessionId"`
	Services []string `json:"connectedServices"`
	IdleFor  string   `json:"idleFor"`
}

// NewRegistry creates an empty registry. Sessions idle for longer than
// idleTTL are reclaimed by Sweep.
func NewRegistry(idleTTL time.Duration, log logger.Logger) *Registry {
	return &Registry{
		log:      log,
		idleTTL:  idleTTL,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it on first use. Every call
// counts as activity and postpones idle eviction.
func (r *Registry) Get(id string) *Session {
	now := time.Now()

	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch(now)
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.touch(now)
		return s
	}

	s = newSession(id, now)
	r.sessions[id] = s
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.log.Info("session created", logger.String("session_id", id))
	return s
}

// Lookup returns the session for id without creating or touching it.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops the session for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return
	}
	delete(r.sessions, id)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Sweep evicts sessions whose last access is older than the idle TTL
// and returns how many were dropped.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, s := range r.sessions {
		idle := now.Sub(s.LastAccess())
		if idle < r.idleTTL {
			continue
		}
		delete(r.sessions, id)
		evicted++
		r.log.Info("session evicted",
			logger.String("session_id", id),
			logger.String("idle_for", idle.Round(time.Second).String()))
	}

	if evicted > 0 {
		metrics.SessionsSwept.Add(float64(evicted))
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return evicted
}

// Snapshot returns a stable view of all sessions, sorted by id.
func (r *Registry) Snapshot(now time.Time) []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.sessions))
	for id, s := range r.sessions {
		out = append(out, Info{
			ID:       id,
			Services: s.Services(),
			IdleFor:  now.Sub(s.LastAccess()).Round(time.Second).String(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
