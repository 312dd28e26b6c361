package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/guestrank/internal/config"
	"github.com/timmy/guestrank/internal/domain"
	"github.com/timmy/guestrank/internal/logger"
	"github.com/timmy/guestrank/internal/ratelimit"
	"github.com/timmy/guestrank/internal/repository"
	"github.com/timmy/guestrank/internal/service"
	"github.com/timmy/guestrank/internal/storage"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "guestrank-worker",
	})
	logger.SetDefaultLogger(appLogger)

	once := flag.Bool("once", false, "Run a single processor pass and exit")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	jobRepo := repository.NewJobRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	contactRepo := repository.NewContactRepository(db)
	objectiveRepo := repository.NewObjectiveRepository(db)
	eventRepo := repository.NewEventRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	taskRepo := repository.NewTaskRepository(db)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
		processor.SetBriefingPublisher(
			service.NewBriefingService(scoreRepo, contactRepo, eventRepo, objectStorage),
		)
	}

	ctx = logger.WithFields(ctx, logger.Fields{logger.FieldComponent: "worker"})

	if *once {
		if _, err := processor.RunOnce(ctx); err != nil {
			appLogger.WithError(err).Fatal("Processor pass failed")
		}
		return
	}

	interval := cfg.Batch.TickInterval
	if interval <= 0 {
		interval = time.Minute
	}

	appLogger.WithFields(logger.Fields{
		"tick_interval": interval.String(),
		"batch_size":    cfg.Batch.BatchSize,
	}).Info("Starting worker")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First pass immediately, then on every tick.
	if _, err := processor.RunOnce(ctx); err != nil {
		logger.CtxError(ctx, "Processor pass failed: %v", err)
	}
	for {
		select {
		case <-ticker.C:
			if _, err := processor.RunOnce(ctx); err != nil {
				logger.CtxError(ctx, "Processor pass failed: %v", err)
			}
		case <-quit:
			appLogger.Info("Shutting down worker")
			return
		}
	}
}
