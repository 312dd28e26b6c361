package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/guestrank/internal/api"
	"github.com/timmy/guestrank/internal/config"
	"github.com/timmy/guestrank/internal/domain"
	"github.com/timmy/guestrank/internal/logger"
	"github.com/timmy/guestrank/internal/ratelimit"
	"github.com/timmy/guestrank/internal/repository"
	"github.com/timmy/guestrank/internal/service"
	"github.com/timmy/guestrank/internal/storage"
)

func main() {
	appLogger := logger.NewFromEnv(nil)
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Repositories
	jobRepo := repository.NewJobRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	contactRepo := repository.NewContactRepository(db)
	objectiveRepo := repository.NewObjectiveRepository(db)
	eventRepo := repository.NewEventRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	seatingRepo := repository.NewSeatingRepository(db)

	// External providers
	scorer := service.NewScoringService(&service.ScorerConfig{
		Model:          cfg.Scorer.Model,
		APIKey:         cfg.Scorer.APIKey,
		BaseURL:        cfg.Scorer.BaseURL,
		RequestTimeout: cfg.Scorer.RequestTimeout,
	})
	enricher := service.NewEnrichmentService(&service.EnrichmentConfig{
		Enabled:        cfg.Enrich.Enabled,
		BaseURL:        cfg.Enrich.BaseURL,
		APIKey:         cfg.Enrich.APIKey,
		RequestTimeout: cfg.Enrich.RequestTimeout,
	})

	limiter := ratelimit.NewSlidingWindow(cfg.Batch.ScoringPerMinute, time.Minute)

	processor := service.NewProcessor(
		&service.ProcessorConfig{
			BatchSize:       cfg.Batch.BatchSize,
			DueJobsLimit:    cfg.Batch.DueJobsLimit,
			TaskLimit:       cfg.Batch.TaskLimit,
			TaskMaxAttempts: cfg.Batch.TaskMaxAttempts,
		},
		jobRepo, contactRepo, objectiveRepo, eventRepo, scoreRepo, taskRepo,
		scorer, enricher, limiter,
	)
	processor.RegisterTaskHandler(
		domain.TaskKindPromoteWaitlist,
		service.NewWaitlistPromoter(invitationRepo, scoreRepo, eventRepo),
	)

	if cfg.Storage.Enabled {
		objectStorage, err := storage.NewS3Storage(&storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		if err := objectStorage.EnsureBucket(context.Background()); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
		processor.SetBriefingPublisher(
			service.NewBriefingService(scoreRepo, contactRepo, eventRepo, objectStorage),
		)
	}

	router := api.SetupRouter(&cfg.Server, appLogger, &api.Services{
		Jobs:        service.NewJobService(jobRepo, contactRepo, objectiveRepo),
		Processor:   processor,
		Scores:      scoreRepo,
		Invitations: service.NewInvitationService(invitationRepo, invitationRepo, taskRepo),
		Seating:     service.NewSeatingService(scoreRepo, seatingRepo),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
