package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rtdacademy/connect-backend/internal/ai"
	"github.com/rtdacademy/connect-backend/internal/config"
	"github.com/rtdacademy/connect-backend/internal/database"
	"github.com/rtdacademy/connect-backend/internal/handler"
	"github.com/rtdacademy/connect-backend/internal/logger"
	"github.com/rtdacademy/connect-backend/internal/repository"
	"github.com/rtdacademy/connect-backend/internal/router"
	"github.com/rtdacademy/connect-backend/internal/service"
	"github.com/rtdacademy/connect-backend/internal/validator"
	"github.com/rtdacademy/connect-backend/internal/worker"
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
		Msg("Starting RTD Connect Backend")

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
	courseRepo := repository.NewCourseRepository(pool)
	assessmentRepo := repository.NewAssessmentRepository(pool)
	gradeRepo := repository.NewGradeRepository(pool)
	gradebookRepo := repository.NewGradebookRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)
	familyRepo := repository.NewFamilyRepository(pool)
	creditRepo := repository.NewCreditRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	aiClient := ai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	if !aiClient.Enabled() {
		log.Warn().Msg("AI client disabled; assessments fall back to the authored pool")
	}

	emailService, err := service.NewEmailService(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize email service")
	}

	queue := service.NewRedisTaskQueue(rdb)

	authService := service.NewAuthService(cfg, rdb)
	assessmentService := service.NewAssessmentService(cfg, courseRepo, assessmentRepo, gradeRepo, familyRepo, aiClient, queue, rdb, log)
	creditService := service.NewCreditService(cfg, familyRepo, creditRepo, courseRepo, queue, rdb, log)
	examSessionService := service.NewExamSessionService(sessionRepo, assessmentService, rdb, log)
	registrationService := service.NewRegistrationService(familyRepo, courseRepo, authService, creditService, emailService, log)
	courseService := service.NewCourseService(courseRepo, creditService, log)
	documentService := service.NewDocumentService(cfg, documentRepo)
	staffService := service.NewStaffService(staffRepo, authService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService, registrationService, staffService),
		Registration: handler.NewRegistrationHandler(registrationService),
		Assessment:   handler.NewAssessmentHandler(assessmentService),
		ExamSession:  handler.NewExamSessionHandler(examSessionService),
		Course:       handler.NewCourseHandler(courseService),
		Credit:       handler.NewCreditHandler(creditService),
		Document:     handler.NewDocumentHandler(documentService),
		Staff:        handler.NewStaffHandler(staffService),
		Monitor:      handler.NewMonitorHandler(rdb, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	gradebookWorker := worker.NewGradebookWorker(gradebookRepo, rdb, log)
	creditWorker := worker.NewCreditWorker(creditService, rdb, log)

	go gradebookWorker.Start(workerCtx)
	go creditWorker.Start(workerCtx)

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

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
