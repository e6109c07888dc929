// Package cli provides common CLI initialization utilities shared by
// cmd/finstress and cmd/finstress-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finstress/internal/ai"
	"finstress/internal/backend"
	"finstress/internal/cache"
	"finstress/internal/config"
	applog "finstress/internal/log"
)

// SetupLogger builds the application logger for component at the level named
// by LOG_LEVEL and installs it as the slog default.
func SetupLogger(component string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(os.Getenv("LOG_LEVEL"))
	cfg.Component = component
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend builds the configured backend or exits the process on failure.
func InitBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return res
}

// Generation holds the model collaborators. Extractor and Structurer are nil
// when no API key is configured.
type Generation struct {
	Extractor  ai.TextExtractor
	Structurer ai.Structurer
	Janitor    *cache.Janitor
}

// InitGeneration builds the Gemini client and wraps its structurer in the
// response cache. A missing API key disables generation; a client that fails
// to start is fatal.
func InitGeneration(ctx context.Context, logger *applog.Logger, cfg *config.Config) Generation {
	if !cfg.GenerationEnabled() {
		logger.Warn("GEMINI_API_KEY not set, text budgets, receipts and recommendations are disabled")
		return Generation{}
	}
	client, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.ModelName,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Gemini client", applog.FieldError, err)
		os.Exit(1)
	}

	responses := cache.NewLRUCache[[]byte](cfg.GenerationCacheSize, cfg.GenerationCacheTTL)
	logger.Info("Generation enabled",
		applog.FieldModel, cfg.ModelName,
		"cache_size", cfg.GenerationCacheSize,
		"cache_ttl", cfg.GenerationCacheTTL)
	return Generation{
		Extractor:  client,
		Structurer: ai.NewCachedStructurer(client, responses),
		Janitor:    cache.NewJanitor(logger.Slog(), responses),
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

