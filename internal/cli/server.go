package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"quiz-arena/internal/app"
	"quiz-arena/internal/config"
	"quiz-arena/internal/infra/memory"
	"quiz-arena/internal/infra/postgres"
	redisinfra "quiz-arena/internal/infra/redis"
	"quiz-arena/internal/infra/sheet"
	transport "quiz-arena/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type sweeper interface {
	Sweep(cutoff time.Time) int
}

type sessionStore interface {
	app.SessionRepository
	sweeper
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	bankDir := cfg.Quiz.BankDir
	if bankDir == "" {
		bankDir = "banks"
	}
	sheets := sheet.NewDirLoader(bankDir)
	loader := memory.FallbackLoader{sheets}
	if b.pool != nil {
		loader = memory.FallbackLoader{postgres.NewBankLoader(b.pool), sheets}
	}

	bankTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var banks app.BankRepository
	if b.redis != nil {
		banks = redisinfra.NewBankRepository(b.redis, loader, bankTTL)
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
	}

	var store sessionStore
	if b.redis != nil {
		store = redisinfra.NewSessionStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	} else {
		store = memory.NewSessionStore()
	}

	results, err := b.resultSink(ctx, cfg)
	if err != nil {
		return err
	}

	service := app.NewQuizService(store, banks, results, cfg.Weights())
	router := transport.NewRouter(transport.Options{
		Service:        service,
		Players:        b.players(cfg),
		Banks:          sheets,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequireToken:   cfg.Auth.RequireToken,
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepSessions(sweepCtx, store, config.TTLDuration(cfg.Quiz.SessionTTL, 2*time.Hour))

	go func() {
		log.Printf("starting quiz-arena on :%s (results=%s, banks=%s)", finalPort, cfg.ResultsDriver(), bankDir)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sweepSessions drops abandoned sessions every tenth of ttl.
func sweepSessions(ctx context.Context, store sweeper, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 10)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := store.Sweep(now.Add(-ttl)); n > 0 {
				log.Printf("swept %d abandoned sessions", n)
			}
		}
	}
}
