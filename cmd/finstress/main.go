package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finstress/internal/cli"
	"finstress/internal/core"
	apphttp "finstress/internal/http"
	applog "finstress/internal/log"
	"finstress/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	be := cli.InitBackend(startCtx, logger, cfg)
	gen := cli.InitGeneration(startCtx, logger, cfg)
	cancelStart()

	analysisCfg := services.AnalysisConfig{
		Classifier:      core.NewClassifier(cfg.EssentialCategories, cfg.VariableCategories),
		TimeFrameMonths: cfg.TimeFrameMonths,
		Concurrency:     cfg.WorkerConcurrency,
	}
	var publisher services.RecommendationPublisher
	if be.Publisher != nil {
		publisher = be.Publisher
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Budgets:     services.NewBudgetService(gen.Structurer, be.Store, be.Exporter, logger),
		Analysis:    services.NewAnalysisService(analysisCfg, be.Store, publisher, logger),
		Recommender: services.NewRecommender(gen.Structurer, be.Store, be.Store, logger),
		Receipts:    services.NewReceiptService(gen.Extractor, gen.Structurer, logger),
		Ready:       be.Ping,
		Logger:      logger,
	})

	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 90 * time.Second // generation calls are slow
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := be.Close(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	if gen.Janitor != nil {
		go gen.Janitor.Run(ctx, time.Minute)
	}

	logger.Info("Starting finstress server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"generation", cfg.GenerationEnabled(),
		"recommendation_queue", be.Publisher != nil,
		"sheets_export", be.Exporter != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		_ = be.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
