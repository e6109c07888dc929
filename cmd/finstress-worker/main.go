package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finstress/internal/cli"
	applog "finstress/internal/log"
	"finstress/internal/services"
	"finstress/internal/worker"
)

const prefetch = 4

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting finstress-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend != "sqlite" {
		// a memory store in this process never sees the server's snapshots
		logger.Error("finstress-worker requires DATA_BACKEND=sqlite", "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if !cfg.GenerationEnabled() {
		logger.Error("finstress-worker requires GEMINI_API_KEY")
		os.Exit(1)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	be := cli.InitBackend(startCtx, logger, cfg)
	gen := cli.InitGeneration(startCtx, logger, cfg)
	cancelStart()

	recommender := services.NewRecommender(gen.Structurer, be.Store, be.Store, logger)
	w := worker.NewRecommendationWorker(recommender, be.Store, cfg.WorkerConcurrency, cfg.WorkerConcurrency*4).
		WithRetry(cfg.WorkerInterval, cfg.WorkerMaxAttempts)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := be.Close(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	go gen.Janitor.Run(ctx, time.Minute)

	if be.Publisher != nil {
		go func() {
			err := be.Publisher.ConsumeRecommendationRequests(ctx, prefetch, w.HandleRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				// the sweeper keeps draining pending snapshots without the queue
				logger.Error("Message consumption stopped", applog.FieldError, err)
			}
		}()
	} else {
		logger.Info("AMQP_URL not set, relying on the periodic sweep only")
	}

	go w.RunSweeper(ctx, cfg.WorkerInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
