package quiz

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"quiz-arena/internal/domain"
)

// Config carries the inputs of the configure transition.
type Config struct {
	Mode             domain.Mode
	Participants     []string
	QuestionCount    int
	Difficulty       domain.Difficulty
	TimeLimitSeconds int
	Shuffle          bool
	Review           domain.Review
	Weights          Weights
}

// Session is the quiz state machine: configuring -> in_progress -> completed.
//
// A Session is not safe for concurrent use. Hosts that serve it from several
// goroutines must serialize calls themselves.
type Session struct {
	id  string
	now func() time.Time
	rnd *rand.Rand

	status       domain.Status
	mode         domain.Mode
	review       domain.Review
	participants []string
	difficulty   domain.Difficulty
	weight       int
	timeLimit    time.Duration

	questions         []domain.PreparedQuestion
	picks             [][]domain.Pick
	index             int
	questionStartedAt time.Time

	scores      []domain.ScoreBreakdown
	completedAt time.Time
}

// NewSession returns a configuring session seeded from the wall clock.
func NewSession(id string) *Session {
	return NewSessionWithSource(id, rand.NewSource(time.Now().UnixNano()), time.Now)
}

// NewSessionWithSource allows deterministic shuffles and timestamps in tests.
func NewSessionWithSource(id string, src rand.Source, now func() time.Time) *Session {
	return &Session{
		id:     id,
		now:    now,
		rnd:    rand.New(src),
		status: domain.StatusConfiguring,
	}
}

// Configure selects and freezes the questions for a run and starts it.
func (s *Session) Configure(cfg Config, pool []domain.QuestionRecord) error {
	if s.status != domain.StatusConfiguring {
		return fmt.Errorf("%w: session is %s", domain.ErrInvalidConfiguration, s.status)
	}

	mode := cfg.Mode
	if mode == "" {
		mode = domain.ModeSolo
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidConfiguration, mode)
	}
	participants, err := normalizeParticipants(mode, cfg.Participants)
	if err != nil {
		return err
	}
	if cfg.QuestionCount < 1 {
		return fmt.Errorf("%w: question count must be at least 1", domain.ErrInvalidConfiguration)
	}
	if cfg.QuestionCount > len(pool) {
		return fmt.Errorf("%w: %d questions requested, bank has %d", domain.ErrInvalidConfiguration, cfg.QuestionCount, len(pool))
	}
	if cfg.TimeLimitSeconds < 0 {
		return fmt.Errorf("%w: negative time limit", domain.ErrInvalidConfiguration)
	}
	review := cfg.Review
	if review == "" {
		review = domain.ReviewTraining
	}
	if review != domain.ReviewTraining && review != domain.ReviewExam {
		return fmt.Errorf("%w: unknown review mode %q", domain.ErrInvalidConfiguration, review)
	}
	weights := cfg.Weights
	if weights == nil {
		weights = DefaultWeights()
	}
	difficulty := cfg.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyMedium
	}
	weight, ok := weights[difficulty]
	if !ok {
		return fmt.Errorf("%w: no weight for difficulty %q", domain.ErrInvalidConfiguration, difficulty)
	}

	selected := make([]int, cfg.QuestionCount)
	if cfg.Shuffle {
		copy(selected, s.rnd.Perm(len(pool)))
	} else {
		for i := range selected {
			selected[i] = i
		}
	}

	questions := make([]domain.PreparedQuestion, len(selected))
	picks := make([][]domain.Pick, len(selected))
	for i, idx := range selected {
		questions[i] = BuildOptions(pool[idx], s.rnd)
		picks[i] = make([]domain.Pick, len(participants))
	}

	s.mode = mode
	s.review = review
	s.participants = participants
	s.difficulty = difficulty
	s.weight = weight
	s.timeLimit = time.Duration(cfg.TimeLimitSeconds) * time.Second
	s.questions = questions
	s.picks = picks
	s.index = 0
	s.status = domain.StatusInProgress
	s.restartClock()
	return nil
}

func normalizeParticipants(mode domain.Mode, names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	distinct := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		distinct = append(distinct, name)
	}

	want := mode.SlotCount()
	if mode == domain.ModeSolo && len(distinct) == 0 {
		return []string{"player"}, nil
	}
	if len(distinct) != want {
		return nil, fmt.Errorf("%w: %s needs %d distinct participants, got %d", domain.ErrInvalidConfiguration, mode, want, len(distinct))
	}
	return distinct, nil
}

// RecordAnswer stores choice for the current question and returns the pick
// that was actually stored. Past the deadline the pick is always TimedOut.
func (s *Session) RecordAnswer(slot int, choice string) (domain.Pick, error) {
	if err := s.checkAnswerable(slot); err != nil {
		return domain.Pick{}, err
	}
	if s.expired() {
		return s.store(slot, domain.Pick{TimedOut: true}), nil
	}
	choice = strings.TrimSpace(choice)
	if !hasOption(s.questions[s.index], choice) {
		return domain.Pick{}, fmt.Errorf("%w: %q", domain.ErrInvalidChoice, choice)
	}
	return s.store(slot, domain.Pick{Choice: choice}), nil
}

// MarkTimedOut records the TimedOut sentinel for slot on the current question.
func (s *Session) MarkTimedOut(slot int) (domain.Pick, error) {
	if err := s.checkAnswerable(slot); err != nil {
		return domain.Pick{}, err
	}
	return s.store(slot, domain.Pick{TimedOut: true}), nil
}

func (s *Session) checkAnswerable(slot int) error {
	if s.status != domain.StatusInProgress || s.index >= len(s.questions) {
		return domain.ErrNotInProgress
	}
	if slot < 0 || slot >= len(s.participants) {
		return fmt.Errorf("%w: slot %d", domain.ErrParticipantNotFound, slot)
	}
	// Training reveals outcomes, so a revealed pick is final.
	if s.review == domain.ReviewTraining && s.picks[s.index][slot].Answered() {
		return domain.ErrAlreadyAnswered
	}
	return nil
}

func (s *Session) store(slot int, p domain.Pick) domain.Pick {
	s.picks[s.index][slot] = p
	return p
}

func (s *Session) expired() bool {
	if s.timeLimit <= 0 {
		return false
	}
	return s.now().Sub(s.questionStartedAt) > s.timeLimit
}

// Advance moves past the current question once every slot has answered.
// Completing the last question scores the session; calling Advance on a
// completed session is a no-op.
func (s *Session) Advance() error {
	switch s.status {
	case domain.StatusCompleted:
		return nil
	case domain.StatusConfiguring:
		return domain.ErrNotInProgress
	}
	if !s.answered(s.index) {
		return fmt.Errorf("%w: question %d", domain.ErrIncompleteAnswers, s.index+1)
	}
	s.index++
	if s.index == len(s.questions) {
		s.complete()
		return nil
	}
	s.restartClock()
	return nil
}

// GoBack repositions to the previous question in solo exam sessions.
func (s *Session) GoBack() error {
	if err := s.checkReview(); err != nil {
		return err
	}
	if s.index == 0 {
		return domain.ErrOutOfRange
	}
	s.index--
	s.restartClock()
	return nil
}

// GoForward repositions to the next question without scoring. The last
// question is left through Advance or Finish.
func (s *Session) GoForward() error {
	if err := s.checkReview(); err != nil {
		return err
	}
	if !s.answered(s.index) {
		return fmt.Errorf("%w: question %d", domain.ErrIncompleteAnswers, s.index+1)
	}
	if s.index+1 >= len(s.questions) {
		return domain.ErrOutOfRange
	}
	s.index++
	s.restartClock()
	return nil
}

func (s *Session) checkReview() error {
	if s.status != domain.StatusInProgress {
		return domain.ErrNotInProgress
	}
	if s.mode != domain.ModeSolo || s.review != domain.ReviewExam {
		return domain.ErrReviewUnavailable
	}
	return nil
}

// Finish completes the session from any position once every question has a
// pick for every slot.
func (s *Session) Finish() error {
	switch s.status {
	case domain.StatusCompleted:
		return nil
	case domain.StatusConfiguring:
		return domain.ErrNotInProgress
	}
	for i := range s.questions {
		if !s.answered(i) {
			return fmt.Errorf("%w: question %d", domain.ErrIncompleteAnswers, i+1)
		}
	}
	s.index = len(s.questions)
	s.complete()
	return nil
}

// Reset discards the run and returns to configuring.
func (s *Session) Reset() {
	s.status = domain.StatusConfiguring
	s.mode = ""
	s.review = ""
	s.participants = nil
	s.difficulty = ""
	s.weight = 0
	s.timeLimit = 0
	s.questions = nil
	s.picks = nil
	s.index = 0
	s.questionStartedAt = time.Time{}
	s.scores = nil
	s.completedAt = time.Time{}
}

func (s *Session) answered(index int) bool {
	if index < 0 || index >= len(s.picks) {
		return false
	}
	for _, p := range s.picks[index] {
		if !p.Answered() {
			return false
		}
	}
	return true
}

func (s *Session) restartClock() {
	if s.timeLimit > 0 {
		s.questionStartedAt = s.now()
	}
}

func (s *Session) complete() {
	s.status = domain.StatusCompleted
	s.questionStartedAt = time.Time{}
	s.completedAt = s.now()
	s.scores = make([]domain.ScoreBreakdown, len(s.participants))
	for slot, name := range s.participants {
		b := Score(s.questions, s.picks, slot, s.weight)
		b.Participant = name
		s.scores[slot] = b
	}
}

func (s *Session) ID() string { return s.id }
func (s *Session) Status() domain.Status { return s.status }
func (s *Session) Mode() domain.Mode { return s.mode }
func (s *Session) Review() domain.Review { return s.review }
func (s *Session) Difficulty() domain.Difficulty { return s.difficulty }
func (s *Session) Index() int { return s.index }
func (s *Session) Total() int { return len(s.questions) }
func (s *Session) CompletedAt() time.Time { return s.completedAt }

// Participants returns the slot names in slot order.
func (s *Session) Participants() []string {
	return append([]string(nil), s.participants...)
}

// Current returns the question at the current index.
func (s *Session) Current() (domain.PreparedQuestion, bool) {
	return s.Question(s.index)
}

// Question returns the frozen question at index.
func (s *Session) Question(index int) (domain.PreparedQuestion, bool) {
	if index < 0 || index >= len(s.questions) {
		return domain.PreparedQuestion{}, false
	}
	return s.questions[index], true
}

// Picks returns the recorded picks at index, one per slot.
func (s *Session) Picks(index int) []domain.Pick {
	if index < 0 || index >= len(s.picks) {
		return nil
	}
	return append([]domain.Pick(nil), s.picks[index]...)
}

// Scores returns the per-slot breakdown computed at completion, or nil.
func (s *Session) Scores() []domain.ScoreBreakdown {
	return append([]domain.ScoreBreakdown(nil), s.scores...)
}

// RemainingTime reports the time left on the current question when timed.
func (s *Session) RemainingTime() (time.Duration, bool) {
	if s.timeLimit <= 0 || s.status != domain.StatusInProgress {
		return 0, false
	}
	left := s.timeLimit - s.now().Sub(s.questionStartedAt)
	if left < 0 {
		left = 0
	}
	return left, true
}

// Feedback reveals the outcome of a slot's pick. It is available in training
// sessions once every slot answered the question, and always after completion.
func (s *Session) Feedback(index, slot int) (domain.Feedback, bool) {
	if index < 0 || index >= len(s.questions) || slot < 0 || slot >= len(s.participants) {
		return domain.Feedback{}, false
	}
	if s.status != domain.StatusCompleted {
		if s.review != domain.ReviewTraining || !s.answered(index) {
			return domain.Feedback{}, false
		}
	}
	q := s.questions[index]
	p := s.picks[index][slot]
	return domain.Feedback{
		Index:         index,
		Slot:          slot,
		Correct:       IsCorrect(q, p),
		CorrectAnswer: q.CorrectAnswer,
		TimedOut:      p.TimedOut,
	}, true
}

// ReviewSheet lists every question for every participant once completed.
func (s *Session) ReviewSheet() []domain.ReviewRow {
	if s.status != domain.StatusCompleted {
		return nil
	}
	rows := make([]domain.ReviewRow, 0, len(s.questions)*len(s.participants))
	for slot, name := range s.participants {
		for i, q := range s.questions {
			p := s.picks[i][slot]
			rows = append(rows, domain.ReviewRow{
				Number:        i + 1,
				Participant:   name,
				Prompt:        q.Prompt,
				Choice:        p.Choice,
				CorrectAnswer: q.CorrectAnswer,
				Correct:       IsCorrect(q, p),
				TimedOut:      p.TimedOut,
			})
		}
	}
	return rows
}

// View snapshots the session for the presentation layer.
func (s *Session) View() domain.SessionView {
	view := domain.SessionView{
		ID:           s.id,
		Status:       s.status,
		Mode:         s.mode,
		Review:       s.review,
		Participants: s.Participants(),
		Index:        s.index,
		Total:        len(s.questions),
		Scores:       s.Scores(),
	}
	if q, ok := s.Current(); ok && s.status == domain.StatusInProgress {
		view.Question = &domain.QuestionView{
			Number:  s.index + 1,
			Prompt:  q.Prompt,
			Options: append([]string(nil), q.Options...),
			Picks:   s.Picks(s.index),
		}
	}
	if left, ok := s.RemainingTime(); ok {
		secs := int(left.Round(time.Second) / time.Second)
		view.RemainingSeconds = &secs
	}
	return view
}
