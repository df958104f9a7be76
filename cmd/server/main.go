package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stemsi/examprep-backend/internal/config"
	"github.com/stemsi/examprep-backend/internal/database"
	"github.com/stemsi/examprep-backend/internal/exam"
	"github.com/stemsi/examprep-backend/internal/handler"
	"github.com/stemsi/examprep-backend/internal/logger"
	"github.com/stemsi/examprep-backend/internal/middleware"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stemsi/examprep-backend/internal/repository"
	"github.com/stemsi/examprep-backend/internal/router"
	"github.com/stemsi/examprep-backend/internal/service"
	"github.com/stemsi/examprep-backend/internal/validator"
	"github.com/stemsi/examprep-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("selection_order", cfg.SelectionOrder).
		Msg("Starting exam-prep backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	catalogRepo := repository.NewCatalogRepository(pool)
	subRepo := repository.NewSubscriptionRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	draftRepo := repository.NewDraftAnswerRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	flagRepo := repository.NewFlagRepository(pool)
	noteRepo := repository.NewNoteRepository(pool)
	caseRepo := repository.NewCaseRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	// ─── Redis-backed Stores ───────────────────────────────────────────
	sessionStore := service.NewRedisSessionStore(rdb, cfg.SessionTTL)
	publisher := service.NewRedisPublisher(rdb)
	caseAnswers := service.NewRedisCaseAnswerStore(rdb, cfg.SessionTTL)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, userRepo)
	catalogService := service.NewCatalogService(catalogRepo, subRepo)
	builder := exam.NewBuilder(model.SelectionOrder(cfg.SelectionOrder))
	examService := service.NewExamService(examRepo, questionRepo, catalogService, builder, log)
	sessionService := service.NewExamSessionService(
		examRepo, questionRepo, draftRepo, resultRepo, flagRepo, sessionStore, publisher, log,
	)
	resultService := service.NewResultService(resultRepo)
	flagService := service.NewFlagService(flagRepo, questionRepo)
	noteService := service.NewNoteService(noteRepo, questionRepo)
	caseService := service.NewCaseStudyService(caseRepo, caseAnswers, log)
	contentService := service.NewAdminContentService(catalogRepo, questionRepo, caseRepo, statsRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Catalog: handler.NewCatalogHandler(catalogService, examService),
		Exam:    handler.NewExamHandler(examService, sessionService),
		Result:  handler.NewResultHandler(resultService),
		Flag:    handler.NewFlagHandler(flagService),
		Note:    handler.NewNoteHandler(noteService),
		Case:    handler.NewCaseHandler(caseService),
		Admin:   handler.NewAdminHandler(contentService, catalogService),
		WS:      handler.NewWSHandler(sessionService, publisher, log, cfg.AllowedOrigins),
		System:  handler.NewSystemHandler(pool, rdb, log),
	}

	authLimiter := middleware.NewRateLimiter(
		middleware.NewRedisCounter(rdb), "auth", cfg.AuthRateLimit, time.Minute, log,
	)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, authLimiter, handlers, cfg, log)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Background Workers ─────────────────────────────────────
	// Workers get their own context so they keep draining queues until the
	// HTTP server has stopped producing jobs.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	workers, workerCtx := errgroup.WithContext(workerCtx)
	workers.Go(func() error {
		worker.NewAnswerLogWorker(pool, rdb, log).Start(workerCtx)
		return nil
	})
	workers.Go(func() error {
		worker.NewQuestionOrderWorker(pool, rdb, examRepo, log).Start(workerCtx)
		return nil
	})
	workers.Go(func() error {
		worker.NewStatsWorker(pool, rdb, log).Start(workerCtx)
		return nil
	})
	workers.Go(func() error {
		worker.NewAutoSubmitWorker(sessionService, cfg.AutoSubmitPoll, log).Start(workerCtx)
		return nil
	})

	// ─── Start Server ──────────────────────────────────────────────────
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down gracefully...")
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop workers; each flushes its pending batch before returning.
	workerCancel()
	if err := workers.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
