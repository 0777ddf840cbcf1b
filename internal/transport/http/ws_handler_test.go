package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"quiz-arena/internal/app"
	"quiz-arena/internal/auth"
	"quiz-arena/internal/domain"
	"quiz-arena/internal/infra/memory"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func TestWebSocketSoloFlow(t *testing.T) {
	sink := memory.NewResultSink()
	server := httptest.NewServer(NewRouter(Options{Service: newTestService(sink)}))
	defer server.Close()

	conn := dial(t, server, "name=Ana")
	defer conn.Close()

	view := readView(t, conn)
	if view.Status != domain.StatusConfiguring || view.ID == "" {
		t.Fatalf("unexpected initial view %+v", view)
	}

	send(t, conn, "configure", map[string]any{"bankId": "bank-1", "questionCount": 1, "difficulty": "hard"})
	view = readView(t, conn)
	if view.Status != domain.StatusInProgress || len(view.Participants) != 1 || view.Participants[0] != "Ana" {
		t.Fatalf("unexpected configured view %+v", view)
	}

	send(t, conn, "answer", map[string]any{"slot": 0, "choice": "not an option"})
	if msg := readUntil(t, conn, "error"); !strings.Contains(string(msg.Payload), "invalid_choice") {
		t.Fatalf("expected invalid_choice error, got %s", msg.Payload)
	}

	send(t, conn, "answer", map[string]any{"slot": 0, "choice": "4"})
	var feedback []domain.Feedback
	decode(t, readUntil(t, conn, "feedback"), &feedback)
	if len(feedback) != 1 || !feedback[0].Correct || feedback[0].CorrectAnswer != "4" {
		t.Fatalf("unexpected feedback %+v", feedback)
	}

	send(t, conn, "advance", nil)
	view = readViewWithStatus(t, conn, domain.StatusCompleted)
	if !view.Recorded || view.Scores[0].ExperiencePoints != 40 {
		t.Fatalf("unexpected completed view %+v", view)
	}

	records, _ := sink.ReadAll(context.Background())
	if len(records) != 1 || records[0].Participant != "Ana" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestWebSocketHeadToHeadSharesSession(t *testing.T) {
	server := httptest.NewServer(NewRouter(Options{Service: newTestService(memory.NewResultSink())}))
	defer server.Close()

	ana := dial(t, server, "name=Ana")
	defer ana.Close()
	first := readView(t, ana)

	bruno := dial(t, server, "name=Bruno&sessionId="+first.ID)
	defer bruno.Close()
	if joined := readView(t, bruno); joined.ID != first.ID {
		t.Fatalf("expected bruno to join %s, got %s", first.ID, joined.ID)
	}

	send(t, ana, "configure", map[string]any{
		"bankId":        "bank-1",
		"mode":          "head_to_head",
		"participants":  []string{"Ana", "Bruno"},
		"questionCount": 1,
	})
	if view := readViewWithStatus(t, bruno, domain.StatusInProgress); len(view.Participants) != 2 {
		t.Fatalf("expected bruno to see both participants, got %+v", view)
	}

	send(t, bruno, "answer", map[string]any{"slot": 1, "choice": "5"})
	send(t, bruno, "advance", nil)
	if msg := readUntil(t, bruno, "error"); !strings.Contains(string(msg.Payload), "incomplete_answers") {
		t.Fatalf("expected incomplete_answers, got %s", msg.Payload)
	}

	send(t, ana, "answer", map[string]any{"slot": 0, "choice": "4"})
	send(t, ana, "advance", nil)
	view := readViewWithStatus(t, bruno, domain.StatusCompleted)
	if len(view.Scores) != 2 || view.Scores[0].CorrectCount != 1 || view.Scores[1].CorrectCount != 0 {
		t.Fatalf("unexpected scores %+v", view.Scores)
	}
}

func TestWebSocketRejectsUnknownSessionAndBadTokens(t *testing.T) {
	players := newTestPlayers()
	server := httptest.NewServer(NewRouter(Options{
		Service:      newTestService(memory.NewResultSink()),
		Players:      players,
		RequireToken: true,
	}))
	defer server.Close()

	for _, query := range []string{"name=Ana", "token=garbage"} {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, query), nil)
		if err == nil {
			t.Fatalf("expected dial failure for %q", query)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %q, got %+v", query, resp)
		}
	}

	token, err := players.IssueToken("Ana")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "token="+token+"&sessionId=nope"), nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got err=%v resp=%+v", err, resp)
	}

	conn := dial(t, server, "token="+token)
	defer conn.Close()
	_ = readView(t, conn)
	send(t, conn, "configure", map[string]any{"bankId": "bank-1", "questionCount": 1})
	if view := readViewWithStatus(t, conn, domain.StatusInProgress); view.Participants[0] != "Ana" {
		t.Fatalf("expected token subject as participant, got %+v", view.Participants)
	}
}

func newTestService(sink app.ResultSink) *app.QuizService {
	store := memory.NewSessionStore()
	banks := memory.NewBankRepository(memory.NewStaticBankLoader(sampleBanks()), time.Minute)
	return app.NewQuizService(store, banks, sink, nil)
}

func newTestPlayers() *auth.Service {
	return auth.NewService(memory.NewCredentialStore(), "secret", time.Hour)
}

func sampleBanks() map[string]domain.QuestionBank {
	return map[string]domain.QuestionBank{
		"bank-1": {
			ID: "bank-1",
			Questions: []domain.QuestionRecord{
				{Prompt: "What is 2 + 2?", CorrectAnswer: "4", Alternatives: []string{"3", "5"}},
			},
		},
	}
}

func wsURL(server *httptest.Server, query string) string {
	return "ws" + server.URL[len("http"):] + "/ws?" + query
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, query), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	var msg wsMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg
}

// readUntil skips messages until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) wsMessage {
	t.Helper()
	for i := 0; i < 10; i++ {
		if msg := readNext(t, conn); msg.Type == typ {
			return msg
		}
	}
	t.Fatalf("no %s message received", typ)
	return wsMessage{}
}

func readView(t *testing.T, conn *websocket.Conn) domain.SessionView {
	t.Helper()
	var view domain.SessionView
	decode(t, readUntil(t, conn, "session"), &view)
	return view
}

func readViewWithStatus(t *testing.T, conn *websocket.Conn, status domain.Status) domain.SessionView {
	t.Helper()
	for i := 0; i < 10; i++ {
		if view := readView(t, conn); view.Status == status {
			return view
		}
	}
	t.Fatalf("no %s view received", status)
	return domain.SessionView{}
}

func decode(t *testing.T, msg wsMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		t.Fatalf("decode %s payload: %v", msg.Type, err)
	}
}
