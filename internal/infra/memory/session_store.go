package memory

import (
	"sync"
	"time"

	"quiz-arena/internal/app"
	"quiz-arena/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(sessionID string) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		return session
	}
	session := app.NewSession(sessionID)
	s.sessions[sessionID] = session
	return session
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) DeleteIfIdle(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	if session.IsIdle() {
		delete(s.sessions, sessionID)
	}
}

// Touch is a no-op; sessions live in this process only.
func (s *SessionStore) Touch(string, domain.SessionView) {}

// Sweep drops sessions nobody watched or changed since cutoff and returns how many went.
func (s *SessionStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if session.Abandoned(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
