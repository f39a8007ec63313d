package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/database"
	"github.com/stemsi/exstem-quiz/internal/event"
	"github.com/stemsi/exstem-quiz/internal/handler"
	"github.com/stemsi/exstem-quiz/internal/logger"
	"github.com/stemsi/exstem-quiz/internal/messenger"
	"github.com/stemsi/exstem-quiz/internal/repository"
	"github.com/stemsi/exstem-quiz/internal/router"
	"github.com/stemsi/exstem-quiz/internal/scoring"
	"github.com/stemsi/exstem-quiz/internal/service"
	"github.com/stemsi/exstem-quiz/internal/session"
	"github.com/stemsi/exstem-quiz/internal/validator"
	"github.com/stemsi/exstem-quiz/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ExStem Quiz")

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	if err := validator.Setup(); err != nil {
		log.Fatal().Err(err).Msg("Failed to register validators")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Connect to RabbitMQ ───────────────────────────────────────────
	publisher, err := event.NewEventPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	resultRepo := repository.NewResultRepository(pool)

	// ─── Initialize Session Engine ─────────────────────────────────────
	hub := messenger.NewHub(log)
	finalizer := scoring.NewFinalizer(answerRepo, resultRepo, examRepo, cfg.PassThreshold, log)
	engine := session.NewEngine(session.Deps{
		Ledger:    answerRepo,
		Finalizer: finalizer,
		Messenger: hub,
		Timers:    session.NewTimerCoordinator(),
		Observer:  service.NewMonitorPublisher(rdb, log),
	}, cfg.QuestionTimeLimit, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry)
	catalogService := service.NewCatalogService(questionRepo, examRepo, rdb, cfg.QuestionCacheTTL, log)
	sessionService := service.NewSessionService(engine, catalogService, resultRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	answerLimiter := router.NewAnswerLimiter(ctx, cfg)
	var wsLimiter handler.Limiter
	if answerLimiter != nil {
		wsLimiter = answerLimiter
	}

	handlers := &router.Handlers{
		Session: handler.NewSessionHandler(sessionService, log),
		WS:      handler.NewWSHandler(hub, sessionService, wsLimiter, log, cfg.AllowedOrigins),
		Monitor: handler.NewMonitorHandler(rdb, engine, hub, log),
		Health:  map[string]database.Pinger{
			"postgres": pool,
			"redis":    database.RedisPinger{Client: rdb},
		},
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	resultWorker := worker.NewResultEventWorker(rdb, publisher, log)
	go func() {
		defer close(workerDone)
		resultWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, answerLimiter, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Drop live sessions and their timers, then the sockets.
	dropped := engine.Shutdown()
	hub.CloseAll()
	log.Info().Int("sessions", dropped).Msg("Live sessions dropped")

	// 3. Stop the result worker and wait for its queue to drain.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Result worker did not drain in time")
	}

	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("Event publisher close error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
