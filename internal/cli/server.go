package cli

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/Fafaw945/quiz-app/internal/auth"
	"github.com/Fafaw945/quiz-app/internal/config"
	"github.com/Fafaw945/quiz-app/internal/domain"
	"github.com/Fafaw945/quiz-app/internal/game"
	"github.com/Fafaw945/quiz-app/internal/infra/memory"
	pgloader "github.com/Fafaw945/quiz-app/internal/infra/postgres"
	redisinfra "github.com/Fafaw945/quiz-app/internal/infra/redis"
	transport "github.com/Fafaw945/quiz-app/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8001"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	var bunDB *bun.DB
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	}

	setID := cfg.Quiz.SetID
	if setID == "" {
		setID = "general-knowledge"
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestionSets(setID))
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var questions game.QuestionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, loader, quizTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, quizTTL)
	}

	roomCfg := game.Config{
		MinPlayers:       cfg.Quiz.MinPlayers,
		DefaultTimeLimit: cfg.Quiz.TimeLimitSeconds,
		StartDelay:       config.Seconds(cfg.Quiz.StartDelaySeconds, 3*time.Second),
		RevealPause:      config.Seconds(cfg.Quiz.RevealPauseSeconds, 3*time.Second),
	}
	newRoom := func(id string) *game.Room {
		return game.NewRoom(id, roomCfg, clockwork.NewRealClock(), log)
	}

	var rooms game.RoomRepository
	if redisClient != nil {
		rooms = redisinfra.NewRoomStore(redisClient, redisTTL, newRoom)
	} else {
		rooms = memory.NewRoomStore(newRoom)
	}

	var participants auth.ParticipantRepository = memory.NewParticipantRepository()
	if bunDB != nil {
		participants = pgloader.NewParticipantRepository(bunDB)
	}

	service := game.NewService(rooms, questions, setID, log)
	wsHandler := transport.NewWSHandler(service, log)
	authHandler := transport.NewAuthHandler(auth.NewService(participants), log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/api/register", authHandler.Register)
	mux.HandleFunc("/api/login", authHandler.Login)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting quiz server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionSets provides a minimal set for redis/postgres-less runs.
func sampleQuestionSets(setID string) map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		setID: {
			ID: setID,
			Questions: []domain.QuestionRecord{
				{
					ID:   "q1",
					Text: "What is the capital of France?",
					Options: []domain.AnswerOption{
						{Text: "Lyon"},
						{Text: "Paris", Correct: true},
						{Text: "Marseille"},
						{Text: "Toulouse"},
					},
					TimeLimitSeconds: 15,
				},
				{
					ID:   "q2",
					Text: "What is 7 x 8?",
					Options: []domain.AnswerOption{
						{Text: "54"},
						{Text: "56", Correct: true},
						{Text: "64"},
						{Text: "48"},
					},
					TimeLimitSeconds: 15,
				},
				{
					ID:   "q3",
					Text: "Which planet is known as the red planet?",
					Options: []domain.AnswerOption{
						{Text: "Venus"},
						{Text: "Jupiter"},
						{Text: "Mars", Correct: true},
						{Text: "Saturn"},
					},
					TimeLimitSeconds: 15,
				},
			},
		},
	}
}
