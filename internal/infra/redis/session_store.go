package redis

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"quiz-arena/internal/app"
	"quiz-arena/internal/domain"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Hosted sessions stay in a local map so the in-process broadcast logic
//     keeps working.
//   - Redis holds a liveness key per session whose value is the latest view,
//     refreshed on every change, so other instances and dashboards can read
//     progress without touching this process.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
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
	s.writeSnapshot(sessionID, session.Snapshot())
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
		_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
	}
}

// Touch refreshes the snapshot and its TTL.
func (s *SessionStore) Touch(sessionID string, view domain.SessionView) {
	s.writeSnapshot(sessionID, view)
}

// Sweep drops sessions nobody watched or changed since cutoff.
func (s *SessionStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if session.Abandoned(cutoff) {
			delete(s.sessions, id)
			_ = s.client.Del(context.Background(), s.key(id)).Err()
			removed++
		}
	}
	return removed
}

// LoadSnapshot reads the last view written by any instance.
func (s *SessionStore) LoadSnapshot(ctx context.Context, sessionID string) (domain.SessionView, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionView{}, err
	}
	var view domain.SessionView
	if err := json.Unmarshal(raw, &view); err != nil {
		return domain.SessionView{}, err
	}
	return view, nil
}

func (s *SessionStore) writeSnapshot(sessionID string, view domain.SessionView) {
	data, err := json.Marshal(view)
	if err != nil {
		return
	}
	// best-effort; the local map stays authoritative
	if err := s.client.Set(context.Background(), s.key(sessionID), data, s.ttl).Err(); err != nil {
		log.Printf("redis snapshot session=%s: %v", sessionID, err)
	}
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
