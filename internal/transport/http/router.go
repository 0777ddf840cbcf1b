package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"quiz-arena/internal/app"
	"quiz-arena/internal/auth"
)

// BankCatalog lists the question banks a client can pick from.
type BankCatalog interface {
	List() ([]string, error)
}

// Options wires the router's collaborators. Players and Banks are optional.
type Options struct {
	Service        *app.QuizService
	Players        *auth.Service
	Banks          BankCatalog
	AllowedOrigins []string
	// RequireToken rejects websocket connections without a valid player token.
	RequireToken bool
}

// NewRouter mounts the websocket endpoint and the REST API.
func NewRouter(opts Options) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	var tokens TokenParser
	if opts.Players != nil {
		tokens = opts.Players
	}
	ws := NewWSHandler(opts.Service, tokens, opts.RequireToken)
	r.Get("/ws", ws.ServeWS)

	api := &apiHandler{service: opts.Service, players: opts.Players, banks: opts.Banks}
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/leaderboard", api.leaderboard)
		r.Get("/banks", api.listBanks)
		r.Get("/sessions/{sessionID}", api.session)
		r.Get("/sessions/{sessionID}/review.csv", api.reviewCSV)
		r.Post("/players", api.register)
		r.Post("/players/login", api.login)
	})
	return r
}
