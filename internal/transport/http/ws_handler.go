package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"quiz-arena/internal/app"
	"quiz-arena/internal/domain"
	"quiz-arena/internal/quiz"
)

// TokenParser resolves a player token to the player name.
type TokenParser interface {
	ParseToken(raw string) (string, error)
}

type WSHandler struct {
	service      *app.QuizService
	tokens       TokenParser
	requireToken bool
	upgrader     websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, tokens TokenParser, requireToken bool) *WSHandler {
	return &WSHandler{
		service:      service,
		tokens:       tokens,
		requireToken: requireToken && tokens != nil,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type configurePayload struct {
	BankID           string            `json:"bankId"`
	Mode             domain.Mode       `json:"mode"`
	Participants     []string          `json:"participants"`
	QuestionCount    int               `json:"questionCount"`
	Difficulty       domain.Difficulty `json:"difficulty"`
	TimeLimitSeconds int               `json:"timeLimitSeconds"`
	Shuffle          bool              `json:"shuffle"`
	Review           domain.Review     `json:"review"`
}

type answerPayload struct {
	Slot   int    `json:"slot"`
	Choice string `json:"choice"`
}

type timeoutPayload struct {
	Slot int `json:"slot"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz use cases.
// Views reach the client through the session subscription, so every connection
// watching the same session renders the same state.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	player, ok := h.identify(w, r)
	if !ok {
		return
	}

	opened, err := h.service.Open(r.Context(), r.URL.Query().Get("sessionId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sessionID := opened.ID

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		code, _ := classify(err)
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Code: code, Message: err.Error()}})
		return
	}
	defer h.service.Leave(context.Background(), sessionID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error session=%s: %v", sessionID, err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "session", Payload: view}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	sendErr := func(err error) {
		code, _ := classify(err)
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: code, Message: err.Error()}}
	}

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "configure":
			var payload configurePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- badPayload("configure")
				continue
			}
			participants := payload.Participants
			if len(participants) == 0 && player != "" {
				participants = []string{player}
			}
			_, err = h.service.Configure(ctx, sessionID, payload.BankID, quiz.Config{
				Mode:             payload.Mode,
				Participants:     participants,
				QuestionCount:    payload.QuestionCount,
				Difficulty:       payload.Difficulty,
				TimeLimitSeconds: payload.TimeLimitSeconds,
				Shuffle:          payload.Shuffle,
				Review:           payload.Review,
			})
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- badPayload("answer")
				continue
			}
			var feedback []domain.Feedback
			_, feedback, err = h.service.Answer(ctx, sessionID, payload.Slot, payload.Choice)
			if err == nil && len(feedback) > 0 {
				send <- outboundMessage[any]{Type: "feedback", Payload: feedback}
			}
		case "timeout":
			var payload timeoutPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- badPayload("timeout")
				continue
			}
			var feedback []domain.Feedback
			_, feedback, err = h.service.TimeOut(ctx, sessionID, payload.Slot)
			if err == nil && len(feedback) > 0 {
				send <- outboundMessage[any]{Type: "feedback", Payload: feedback}
			}
		case "advance":
			_, err = h.service.Advance(ctx, sessionID)
		case "back":
			_, err = h.service.Back(ctx, sessionID)
		case "forward":
			_, err = h.service.Forward(ctx, sessionID)
		case "finish":
			_, err = h.service.Finish(ctx, sessionID)
		case "reset":
			_, err = h.service.Reset(ctx, sessionID)
		case "persist":
			_, err = h.service.PersistResults(ctx, sessionID)
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "bad_request", Message: "unsupported message type"}}
			continue
		}
		if err != nil {
			sendErr(err)
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// identify resolves the connecting player from a token or a plain name.
func (h *WSHandler) identify(w http.ResponseWriter, r *http.Request) (string, bool) {
	q := r.URL.Query()
	if raw := q.Get("token"); raw != "" && h.tokens != nil {
		player, err := h.tokens.ParseToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid token")
			return "", false
		}
		return player, true
	}
	if h.requireToken {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "missing token")
		return "", false
	}
	return strings.TrimSpace(q.Get("name")), true
}

func badPayload(kind string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "bad_request", Message: "invalid " + kind + " payload"}}
}
