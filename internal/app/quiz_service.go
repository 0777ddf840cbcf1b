package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"quiz-arena/internal/domain"
	"quiz-arena/internal/quiz"
)

// SessionRepository abstracts how hosted sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(sessionID string) *Session
	Get(sessionID string) (*Session, bool)
	DeleteIfIdle(sessionID string)
	// Touch is called with the session lock held after every change.
	Touch(sessionID string, view domain.SessionView)
}

// SnapshotReader is implemented by session stores that can read the latest
// view of a session hosted by another instance.
type SnapshotReader interface {
	LoadSnapshot(ctx context.Context, sessionID string) (domain.SessionView, error)
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// ResultSink is the append-only store behind the leaderboard.
type ResultSink interface {
	Append(ctx context.Context, record domain.ResultRecord) error
	ReadAll(ctx context.Context) ([]domain.ResultRecord, error)
}

// QuizService contains the quiz use cases driven by the presentation layer.
type QuizService struct {
	sessions SessionRepository
	banks    BankRepository
	results  ResultSink
	weights  quiz.Weights
	newID    func() string
	now      func() time.Time
}

func NewQuizService(store SessionRepository, banks BankRepository, results ResultSink, weights quiz.Weights) *QuizService {
	if weights == nil {
		weights = quiz.DefaultWeights()
	}
	return &QuizService{
		sessions: store,
		banks:    banks,
		results:  results,
		weights:  weights,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Open returns the session with the given handle, or a new one when sessionID is empty.
func (s *QuizService) Open(_ context.Context, sessionID string) (domain.SessionView, error) {
	if sessionID == "" {
		session := s.sessions.GetOrCreate(s.newID())
		return session.Snapshot(), nil
	}
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Configure loads the bank and starts a run on a configuring session.
func (s *QuizService) Configure(ctx context.Context, sessionID, bankID string, cfg quiz.Config) (domain.SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	bank, err := s.banks.GetBank(ctx, bankID)
	if err != nil {
		return domain.SessionView{}, err
	}
	if cfg.Weights == nil {
		cfg.Weights = s.weights
	}

	return s.mutate(session, func() error {
		return session.game.Configure(cfg, bank.Questions)
	})
}

// Answer records a participant's choice and returns the revealed feedback, if any.
func (s *QuizService) Answer(_ context.Context, sessionID string, slot int, choice string) (domain.SessionView, []domain.Feedback, error) {
	return s.answer(sessionID, func(game *quiz.Session) (domain.Pick, error) {
		return game.RecordAnswer(slot, choice)
	})
}

// TimeOut records the TimedOut sentinel for a participant.
func (s *QuizService) TimeOut(_ context.Context, sessionID string, slot int) (domain.SessionView, []domain.Feedback, error) {
	return s.answer(sessionID, func(game *quiz.Session) (domain.Pick, error) {
		return game.MarkTimedOut(slot)
	})
}

func (s *QuizService) answer(sessionID string, record func(*quiz.Session) (domain.Pick, error)) (domain.SessionView, []domain.Feedback, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, nil, domain.ErrSessionNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	index := session.game.Index()
	if _, err := record(session.game); err != nil {
		return session.viewLocked(), nil, err
	}

	var feedback []domain.Feedback
	for slot := range session.game.Participants() {
		if fb, ok := session.game.Feedback(index, slot); ok {
			feedback = append(feedback, fb)
		}
	}
	view := session.broadcastLocked()
	s.sessions.Touch(session.id, view)
	return view, feedback, nil
}

// Advance moves to the next question and records results when the run completes.
func (s *QuizService) Advance(ctx context.Context, sessionID string) (domain.SessionView, error) {
	return s.transition(ctx, sessionID, (*quiz.Session).Advance)
}

// Finish completes an exam run from any position.
func (s *QuizService) Finish(ctx context.Context, sessionID string) (domain.SessionView, error) {
	return s.transition(ctx, sessionID, (*quiz.Session).Finish)
}

// Back repositions a solo exam run to the previous question.
func (s *QuizService) Back(ctx context.Context, sessionID string) (domain.SessionView, error) {
	return s.transition(ctx, sessionID, (*quiz.Session).GoBack)
}

// Forward repositions a solo exam run to the next question.
func (s *QuizService) Forward(ctx context.Context, sessionID string) (domain.SessionView, error) {
	return s.transition(ctx, sessionID, (*quiz.Session).GoForward)
}

func (s *QuizService) transition(ctx context.Context, sessionID string, step func(*quiz.Session) error) (domain.SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	wasCompleted := session.game.Status() == domain.StatusCompleted
	if err := step(session.game); err != nil {
		return session.viewLocked(), err
	}

	var persistErr error
	if !wasCompleted && session.game.Status() == domain.StatusCompleted {
		session.recorded = nil
		persistErr = s.persistLocked(ctx, session)
	}
	view := session.broadcastLocked()
	s.sessions.Touch(session.id, view)
	return view, persistErr
}

// PersistResults retries appending results of a completed session. Slots that
// were already written are skipped, so retries never duplicate records.
func (s *QuizService) PersistResults(ctx context.Context, sessionID string) (domain.SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.game.Status() != domain.StatusCompleted {
		return session.viewLocked(), domain.ErrNotCompleted
	}
	err := s.persistLocked(ctx, session)
	view := session.broadcastLocked()
	s.sessions.Touch(session.id, view)
	return view, err
}

func (s *QuizService) persistLocked(ctx context.Context, session *Session) error {
	game := session.game
	scores := game.Scores()
	if len(session.recorded) != len(scores) {
		session.recorded = make([]bool, len(scores))
	}
	for slot, score := range scores {
		if session.recorded[slot] {
			continue
		}
		record := domain.ResultRecord{
			SessionID:        session.id,
			Participant:      score.Participant,
			Mode:             game.Mode(),
			Score:            score.CorrectCount,
			Total:            score.Total,
			Percentage:       score.Percentage,
			ExperiencePoints: score.ExperiencePoints,
			Timestamp:        game.CompletedAt().UTC(),
		}
		if err := s.results.Append(ctx, record); err != nil {
			log.Printf("persist result session=%s participant=%s: %v", session.id, score.Participant, err)
			return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, score.Participant, err)
		}
		session.recorded[slot] = true
	}
	return nil
}

// Reset discards the run and returns the session to configuring.
func (s *QuizService) Reset(_ context.Context, sessionID string) (domain.SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	return s.mutate(session, func() error {
		session.game.Reset()
		session.recorded = nil
		return nil
	})
}

func (s *QuizService) mutate(session *Session, fn func() error) (domain.SessionView, error) {
	session.mu.Lock()
	defer session.mu.Unlock()
	if err := fn(); err != nil {
		return session.viewLocked(), err
	}
	view := session.broadcastLocked()
	s.sessions.Touch(session.id, view)
	return view, nil
}

// View returns the current snapshot of a session. Sessions hosted elsewhere
// are read from the store's shared snapshot when it keeps one.
func (s *QuizService) View(ctx context.Context, sessionID string) (domain.SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		if reader, shared := s.sessions.(SnapshotReader); shared {
			return reader.LoadSnapshot(ctx, sessionID)
		}
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Review returns the answer sheet of a completed session.
func (s *QuizService) Review(_ context.Context, sessionID string) ([]domain.ReviewRow, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.game.Status() != domain.StatusCompleted {
		return nil, domain.ErrNotCompleted
	}
	return session.game.ReviewSheet(), nil
}

// Subscribe returns a channel that receives view updates for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.SessionView, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Leave drops the session once nobody watches it and nothing is left to record.
func (s *QuizService) Leave(_ context.Context, sessionID string) {
	s.sessions.DeleteIfIdle(sessionID)
}
