package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"quiz-arena/internal/app"
	"quiz-arena/internal/auth"
)

type apiHandler struct {
	service *app.QuizService
	players *auth.Service
	banks   BankCatalog
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Player string `json:"player"`
	Token  string `json:"token"`
}

func (h *apiHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	lb, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *apiHandler) listBanks(w http.ResponseWriter, r *http.Request) {
	if h.banks == nil {
		writeJSON(w, http.StatusOK, map[string][]string{"banks": {}})
		return
	}
	ids, err := h.banks.List()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"banks": ids})
}

func (h *apiHandler) session(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// reviewCSV serves the answer sheet of a completed session.
func (h *apiHandler) reviewCSV(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	rows, err := h.service.Review(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="review-%s.csv"`, sessionID))
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"number", "participant", "prompt", "choice", "correct_answer", "correct", "timed_out"})
	for _, row := range rows {
		_ = cw.Write([]string{
			strconv.Itoa(row.Number),
			row.Participant,
			row.Prompt,
			row.Choice,
			row.CorrectAnswer,
			strconv.FormatBool(row.Correct),
			strconv.FormatBool(row.TimedOut),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("review csv session=%s: %v", sessionID, err)
	}
}

func (h *apiHandler) register(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, http.StatusCreated, h.players.Register)
}

func (h *apiHandler) login(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, http.StatusOK, h.players.Login)
}

func (h *apiHandler) issue(w http.ResponseWriter, r *http.Request, status int, fn func(ctx context.Context, name, password string) (string, error)) {
	if h.players == nil {
		writeError(w, http.StatusNotFound, "players_disabled", "player accounts are not enabled")
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}
	token, err := fn(r.Context(), req.Name, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, status, tokenResponse{Player: strings.TrimSpace(req.Name), Token: token})
}

func writeServiceError(w http.ResponseWriter, err error) {
	code, status := classify(err)
	if status == http.StatusInternalServerError {
		log.Printf("api error: %v", err)
		writeError(w, status, code, "internal error")
		return
	}
	writeError(w, status, code, err.Error())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorPayload{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
