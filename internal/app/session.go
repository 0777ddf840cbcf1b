package app

import (
	"math/rand"
	"sync"
	"time"

	"quiz-arena/internal/domain"
	"quiz-arena/internal/quiz"
)

// Session hosts one quiz state machine behind a mutex and fans out view
// updates to every subscribed connection.
type Session struct {
	id          string
	now         func() time.Time
	mu          sync.Mutex
	game        *quiz.Session
	recorded    []bool
	updatedAt   time.Time
	subscribers map[chan domain.SessionView]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string) *Session {
	return newSession(id, quiz.NewSession(id), time.Now)
}

// NewSessionWithSource is test-only for deterministic shuffles and timestamps.
func NewSessionWithSource(id string, src rand.Source, now func() time.Time) *Session {
	return newSession(id, quiz.NewSessionWithSource(id, src, now), now)
}

func newSession(id string, game *quiz.Session, now func() time.Time) *Session {
	return &Session{
		id:          id,
		now:         now,
		game:        game,
		updatedAt:   now(),
		subscribers: make(map[chan domain.SessionView]struct{}),
	}
}

// ID returns the session handle.
func (s *Session) ID() string {
	return s.id
}

// Abandoned reports whether nobody watches the session and it has not
// changed since cutoff. A completed run with unwritten results is never
// abandoned: it stays around for PersistResults.
func (s *Session) Abandoned(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subscribers) > 0 || !s.updatedAt.Before(cutoff) {
		return false
	}
	return s.game.Status() != domain.StatusCompleted || s.allRecordedLocked()
}

// IsIdle reports whether nobody watches the session and it holds no running quiz.
func (s *Session) IsIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subscribers) > 0 {
		return false
	}
	switch s.game.Status() {
	case domain.StatusInProgress:
		return false
	case domain.StatusCompleted:
		return s.allRecordedLocked()
	}
	return true
}

// Snapshot returns the current view.
func (s *Session) Snapshot() domain.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() domain.SessionView {
	view := s.game.View()
	view.Recorded = s.game.Status() == domain.StatusCompleted && s.allRecordedLocked()
	return view
}

func (s *Session) allRecordedLocked() bool {
	if len(s.recorded) == 0 {
		return false
	}
	for _, ok := range s.recorded {
		if !ok {
			return false
		}
	}
	return true
}

func (s *Session) subscribe() (<-chan domain.SessionView, func()) {
	ch := make(chan domain.SessionView, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	// The buffer is empty, so this cannot block, and any later broadcast
	// queues behind it.
	ch <- s.viewLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.SessionView {
	s.updatedAt = s.now()
	view := s.viewLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Slow readers only need the latest view.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}
