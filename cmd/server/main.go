package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/database"
	"github.com/invigo/invigo-backend/internal/exam"
	"github.com/invigo/invigo-backend/internal/handler"
	"github.com/invigo/invigo-backend/internal/logger"
	"github.com/invigo/invigo-backend/internal/repository"
	"github.com/invigo/invigo-backend/internal/router"
	"github.com/invigo/invigo-backend/internal/service"
	"github.com/invigo/invigo-backend/internal/validator"
	"github.com/invigo/invigo-backend/internal/worker"
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
		Msg("Starting Invigo Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

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

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	testTypeRepo := repository.NewTestTypeRepository(pool)
	questionSetRepo := repository.NewQuestionSetRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	codeRepo := repository.NewCodeRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	// ─── Initialize Exam Engine ────────────────────────────────────────
	tokenCache := exam.NewRedisTokenCache(rdb)
	violationQueue := worker.NewViolationQueue(rdb, log)

	sessionService := exam.NewSessionService(sessionRepo, codeRepo, assignmentRepo, questionSetRepo, tokenCache, log)
	codeRegistry := exam.NewCodeRegistry(codeRepo, assignmentRepo, sessionRepo, cfg.SessionCodeLength, log)
	answerService := exam.NewAnswerService(sessionRepo, answerRepo, sessionService, log)
	violationService := exam.NewViolationService(sessionRepo, violationQueue, tokenCache, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, userRepo)
	userService := service.NewUserService(userRepo, authService)
	catalogService := service.NewCatalogService(testTypeRepo, questionSetRepo, questionRepo)
	assignmentService := service.NewAssignmentService(assignmentRepo, codeRepo, userRepo, questionSetRepo, codeRegistry)
	reportService := service.NewReportService(reportRepo, sessionRepo, answerRepo, violationRepo, questionRepo, assignmentRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, userService),
		Candidate:  handler.NewCandidateHandler(sessionService, answerService, violationService, codeRegistry, assignmentService),
		AdminUser:  handler.NewAdminUserHandler(userService),
		Catalog:    handler.NewCatalogHandler(catalogService),
		Assignment: handler.NewAssignmentHandler(assignmentService),
		Report:     handler.NewReportHandler(reportService),
		MonitorWS:  handler.NewMonitorWSHandler(rdb, sessionRepo, log, cfg.AllowedOrigins),
		Health:     handler.NewHealthHandler(pool, rdb),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	violationWorker := worker.NewViolationWorker(violationRepo, rdb, log)
	sweeper := worker.NewSweeper(sessionService, cfg.SweepInterval, log)

	go violationWorker.Start(workerCtx)
	go sweeper.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

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

	// 2. Stop background workers; the violation worker flushes its buffer
	// before exiting.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
