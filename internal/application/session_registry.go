package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/metrics"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/domain"
)

// SessionRegistry tracks open sessions and closes the ones left idle.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	idleTTL  time.Duration
	logger   *zap.Logger
}

// NewSessionRegistry creates a registry. A zero idleTTL disables expiry.
func NewSessionRegistry(idleTTL time.Duration, logger *zap.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[uuid.UUID]*Session),
		idleTTL:  idleTTL,
		logger:   logger,
	}
}

// Add registers a session.
func (r *SessionRegistry) Add(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID()] = s
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
}

// Get returns the session with the given id.
func (r *SessionRegistry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.NewNotFoundError("session", id.String())
	}
	return s, nil
}

// Remove closes and forgets a session.
func (r *SessionRegistry) Remove(id uuid.UUID) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	if !ok {
		return domain.NewNotFoundError("session", id.String())
	}
	s.Close()
	metrics.ActiveSessions.Set(float64(n))
	return nil
}

// Len returns the number of open sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ExpireIdle closes sessions inactive since before now-idleTTL and returns
// how many were removed.
func (r *SessionRegistry) ExpireIdle(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
		r.logger.Info("session expired", zap.String("session_id", s.ID().String()))
	}
	metrics.SessionsExpired.Add(float64(len(expired)))
	metrics.ActiveSessions.Set(float64(n))
	return len(expired)
}

// RunJanitor expires idle sessions every interval until ctx is cancelled.
func (r *SessionRegistry) RunJanitor(ctx context.Context, interval time.Duration) {
	if r.idleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.ExpireIdle(now)
		}
	}
}

// CloseAll closes every session.
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	metrics.ActiveSessions.Set(0)
}
