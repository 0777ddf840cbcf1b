package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-arena/internal/app"
	"quiz-arena/internal/domain"
	"quiz-arena/internal/infra/memory"
	"quiz-arena/internal/quiz"
)

func TestSoloTrainingRunPersistsOneRecord(t *testing.T) {
	ctx := context.Background()
	sink := memory.NewResultSink()
	service := newTestService(sink)

	id := openSession(t, service)
	view, err := service.Configure(ctx, id, "bank-1", quiz.Config{
		Participants:  []string{"Ana"},
		QuestionCount: 2,
		Difficulty:    domain.DifficultyEasy,
	})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if view.Status != domain.StatusInProgress || view.Total != 2 || view.Question == nil {
		t.Fatalf("unexpected view after configure %+v", view)
	}

	for view.Status == domain.StatusInProgress {
		_, feedback, err := service.Answer(ctx, id, 0, correctAnswer(t, view))
		if err != nil {
			t.Fatalf("answer: %v", err)
		}
		if len(feedback) != 1 || !feedback[0].Correct {
			t.Fatalf("expected positive training feedback, got %+v", feedback)
		}
		if view, err = service.Advance(ctx, id); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	if !view.Recorded || len(view.Scores) != 1 || view.Scores[0].ExperiencePoints != 20 {
		t.Fatalf("unexpected completed view %+v", view)
	}
	records, _ := sink.ReadAll(ctx)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if r := records[0]; r.Participant != "Ana" || r.SessionID != id || r.Score != 2 || r.Percentage != 100 || r.Mode != domain.ModeSolo {
		t.Fatalf("unexpected record %+v", r)
	}

	if _, err := service.Advance(ctx, id); err != nil {
		t.Fatalf("advance after completion: %v", err)
	}
	if records, _ := sink.ReadAll(ctx); len(records) != 1 {
		t.Fatalf("expected no duplicate on repeated advance, got %d records", len(records))
	}
}

func TestHeadToHeadAppendsOneRecordPerParticipant(t *testing.T) {
	ctx := context.Background()
	sink := memory.NewResultSink()
	service := newTestService(sink)

	id := openSession(t, service)
	view, err := service.Configure(ctx, id, "bank-1", quiz.Config{
		Mode:          domain.ModeHeadToHead,
		Participants:  []string{"Ana", "Bruno"},
		QuestionCount: 2,
		Difficulty:    domain.DifficultyMedium,
	})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}

	for i := 0; view.Status == domain.StatusInProgress; i++ {
		if _, _, err := service.Answer(ctx, id, 0, correctAnswer(t, view)); err != nil {
			t.Fatalf("answer ana: %v", err)
		}
		if _, err := service.Advance(ctx, id); !errors.Is(err, domain.ErrIncompleteAnswers) {
			t.Fatalf("expected incomplete answers before bruno picks, got %v", err)
		}
		// Bruno gets only the first question right.
		brunoPick := wrongAnswer(t, view)
		if i == 0 {
			brunoPick = correctAnswer(t, view)
		}
		_, feedback, err := service.Answer(ctx, id, 1, brunoPick)
		if err != nil {
			t.Fatalf("answer bruno: %v", err)
		}
		if len(feedback) != 2 {
			t.Fatalf("expected feedback for both slots once both answered, got %+v", feedback)
		}
		if view, err = service.Advance(ctx, id); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	records, _ := sink.ReadAll(ctx)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Participant != "Ana" || records[0].ExperiencePoints != 40 {
		t.Fatalf("unexpected ana record %+v", records[0])
	}
	if records[1].Participant != "Bruno" || records[1].ExperiencePoints != 20 || records[1].Percentage != 50 {
		t.Fatalf("unexpected bruno record %+v", records[1])
	}
	if records[0].Mode != domain.ModeHeadToHead {
		t.Fatalf("expected head to head mode, got %s", records[0].Mode)
	}
}

func TestPersistenceFailureKeepsCompletionAndRetriesWithoutDuplicates(t *testing.T) {
	ctx := context.Background()
	sink := &flakySink{ResultSink: memory.NewResultSink(), failures: 1}
	service := newTestService(sink)

	id := openSession(t, service)
	view, err := service.Configure(ctx, id, "bank-1", quiz.Config{
		Mode:          domain.ModeHeadToHead,
		Participants:  []string{"Ana", "Bruno"},
		QuestionCount: 1,
	})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	for slot := 0; slot < 2; slot++ {
		if _, _, err := service.Answer(ctx, id, slot, correctAnswer(t, view)); err != nil {
			t.Fatalf("answer slot %d: %v", slot, err)
		}
	}

	// Ana is written, Bruno's append fails.
	sink.failAfter = 1
	view, err = service.Advance(ctx, id)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if view.Status != domain.StatusCompleted || view.Recorded {
		t.Fatalf("expected completed but unrecorded view, got %+v", view)
	}

	view, err = service.PersistResults(ctx, id)
	if err != nil {
		t.Fatalf("persist retry: %v", err)
	}
	if !view.Recorded {
		t.Fatalf("expected recorded view after retry")
	}
	records, _ := sink.ReadAll(ctx)
	if len(records) != 2 || records[0].Participant != "Ana" || records[1].Participant != "Bruno" {
		t.Fatalf("expected exactly one record per participant, got %+v", records)
	}

	if _, err := service.PersistResults(ctx, id); err != nil {
		t.Fatalf("second retry: %v", err)
	}
	if records, _ := sink.ReadAll(ctx); len(records) != 2 {
		t.Fatalf("expected idempotent retry, got %d records", len(records))
	}
}

func TestPersistResultsRequiresCompletion(t *testing.T) {
	ctx := context.Background()
	service := newTestService(memory.NewResultSink())
	id := openSession(t, service)

	if _, err := service.PersistResults(ctx, id); !errors.Is(err, domain.ErrNotCompleted) {
		t.Fatalf("expected not completed, got %v", err)
	}
	if _, err := service.Review(ctx, id); !errors.Is(err, domain.ErrNotCompleted) {
		t.Fatalf("expected review unavailable before completion, got %v", err)
	}
}

func TestUnknownSessionAndBank(t *testing.T) {
	ctx := context.Background()
	service := newTestService(memory.NewResultSink())

	if _, err := service.Open(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, _, err := service.Answer(ctx, "missing", 0, "x"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found on answer, got %v", err)
	}

	id := openSession(t, service)
	if _, err := service.Configure(ctx, id, "nope", quiz.Config{QuestionCount: 1}); !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected bank not found, got %v", err)
	}
	view, err := service.View(ctx, id)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.Status != domain.StatusConfiguring {
		t.Fatalf("expected session still configuring, got %s", view.Status)
	}
}

func TestExamNavigationFinishAndReview(t *testing.T) {
	ctx := context.Background()
	sink := memory.NewResultSink()
	service := newTestService(sink)

	id := openSession(t, service)
	view, err := service.Configure(ctx, id, "bank-1", quiz.Config{
		QuestionCount: 3,
		Review:        domain.ReviewExam,
	})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, feedback, err := service.Answer(ctx, id, 0, correctAnswer(t, view))
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if len(feedback) != 0 {
			t.Fatalf("expected no feedback in exam mode, got %+v", feedback)
		}
		if i < 2 {
			if view, err = service.Forward(ctx, id); err != nil {
				t.Fatalf("forward: %v", err)
			}
		}
	}
	if _, err := service.Forward(ctx, id); !errors.Is(err, domain.ErrOutOfRange) {
		t.Fatalf("expected out of range past the last question, got %v", err)
	}

	view, err = service.Back(ctx, id)
	if err != nil {
		t.Fatalf("back: %v", err)
	}
	if view.Index != 1 {
		t.Fatalf("expected index 1 after back, got %d", view.Index)
	}
	if _, _, err := service.Answer(ctx, id, 0, wrongAnswer(t, view)); err != nil {
		t.Fatalf("change answer: %v", err)
	}

	view, err = service.Finish(ctx, id)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if view.Status != domain.StatusCompleted || view.Scores[0].CorrectCount != 2 {
		t.Fatalf("unexpected finished view %+v", view)
	}

	rows, err := service.Review(ctx, id)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if len(rows) != 3 || rows[1].Correct {
		t.Fatalf("unexpected review rows %+v", rows)
	}

	view, err = service.Reset(ctx, id)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if view.Status != domain.StatusConfiguring || view.Recorded {
		t.Fatalf("unexpected view after reset %+v", view)
	}
}

func TestSubscribeReceivesBroadcasts(t *testing.T) {
	ctx := context.Background()
	service := newTestService(memory.NewResultSink())
	id := openSession(t, service)

	updates, cancel, err := service.Subscribe(ctx, id)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	initial := receive(t, updates)
	if initial.Status != domain.StatusConfiguring {
		t.Fatalf("expected initial configuring view, got %s", initial.Status)
	}

	if _, err := service.Configure(ctx, id, "bank-1", quiz.Config{QuestionCount: 1}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if got := receive(t, updates); got.Status != domain.StatusInProgress {
		t.Fatalf("expected in-progress broadcast, got %s", got.Status)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	records := []domain.ResultRecord{
		{Participant: "Bruno", ExperiencePoints: 40, Percentage: 50},
		{Participant: "Ana", ExperiencePoints: 20, Percentage: 100},
		{Participant: "Ana", ExperiencePoints: 20, Percentage: 50},
		{Participant: "Carla", ExperiencePoints: 40, Percentage: 80},
		{Participant: "Davi", ExperiencePoints: 10, Percentage: 100},
	}

	lb := app.BuildLeaderboard(records, 0, now)
	want := []string{"Ana", "Carla", "Bruno", "Davi"}
	if len(lb.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(lb.Entries))
	}
	for i, name := range want {
		if lb.Entries[i].Participant != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, lb.Entries[i].Participant)
		}
	}
	if ana := lb.Entries[0]; ana.ExperiencePoints != 40 || ana.BestPercentage != 100 || ana.Sessions != 2 {
		t.Fatalf("unexpected ana entry %+v", ana)
	}
	if !lb.UpdatedAt.Equal(now) {
		t.Fatalf("expected updatedAt %v, got %v", now, lb.UpdatedAt)
	}

	if top := app.BuildLeaderboard(records, 2, now); len(top.Entries) != 2 {
		t.Fatalf("expected limit applied, got %d entries", len(top.Entries))
	}
}

func TestLeaderboardReadsSink(t *testing.T) {
	ctx := context.Background()
	sink := memory.NewResultSink()
	_ = sink.Append(ctx, domain.ResultRecord{Participant: "Ana", ExperiencePoints: 10, Percentage: 50})
	service := newTestService(sink)

	lb, err := service.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].Participant != "Ana" {
		t.Fatalf("unexpected leaderboard %+v", lb)
	}
}

func newTestService(sink app.ResultSink) *app.QuizService {
	store := memory.NewSessionStore()
	banks := memory.NewBankRepository(memory.NewStaticBankLoader(sampleBanks()), time.Minute)
	return app.NewQuizService(store, banks, sink, nil)
}

func openSession(t *testing.T, service *app.QuizService) string {
	t.Helper()
	view, err := service.Open(context.Background(), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if view.ID == "" || view.Status != domain.StatusConfiguring {
		t.Fatalf("unexpected opened view %+v", view)
	}
	return view.ID
}

func receive(t *testing.T, ch <-chan domain.SessionView) domain.SessionView {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for broadcast")
		return domain.SessionView{}
	}
}

var answers = map[string]string{
	"What is 2 + 2?":     "4",
	"Capital of France?": "Paris",
	"Largest planet?":    "Jupiter",
}

func correctAnswer(t *testing.T, view domain.SessionView) string {
	t.Helper()
	if view.Question == nil {
		t.Fatalf("view has no current question: %+v", view)
	}
	answer, ok := answers[view.Question.Prompt]
	if !ok {
		t.Fatalf("unknown prompt %q", view.Question.Prompt)
	}
	return answer
}

func wrongAnswer(t *testing.T, view domain.SessionView) string {
	t.Helper()
	right := correctAnswer(t, view)
	for _, opt := range view.Question.Options {
		if opt != right {
			return opt
		}
	}
	t.Fatalf("question %q has no wrong option", view.Question.Prompt)
	return ""
}

func sampleBanks() map[string]domain.QuestionBank {
	return map[string]domain.QuestionBank{
		"bank-1": {
			ID: "bank-1",
			Questions: []domain.QuestionRecord{
				{Prompt: "What is 2 + 2?", CorrectAnswer: "4", Alternatives: []string{"3", "5"}},
				{Prompt: "Capital of France?", CorrectAnswer: "Paris", Alternatives: []string{"Rome", "Madrid"}},
				{Prompt: "Largest planet?", CorrectAnswer: "Jupiter", Alternatives: []string{"Mars", "Venus"}},
			},
		},
	}
}

// flakySink fails the configured number of appends once failAfter successful
// appends have gone through.
type flakySink struct {
	app.ResultSink
	failAfter int
	failures  int
	appended  int
}

func (s *flakySink) Append(ctx context.Context, record domain.ResultRecord) error {
	if s.appended >= s.failAfter && s.failures > 0 {
		s.failures--
		return errors.New("disk full")
	}
	s.appended++
	return s.ResultSink.Append(ctx, record)
}
