// Package main is the entry point for the LitXplore API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/litxplore/litxplore/internal/analysis"
	"github.com/litxplore/litxplore/internal/auth"
	"github.com/litxplore/litxplore/internal/chat"
	"github.com/litxplore/litxplore/internal/config"
	"github.com/litxplore/litxplore/internal/database"
	"github.com/litxplore/litxplore/internal/events"
	"github.com/litxplore/litxplore/internal/llm"
	"github.com/litxplore/litxplore/internal/observability"
	"github.com/litxplore/litxplore/internal/papers"
	"github.com/litxplore/litxplore/internal/papersources/arxiv"
	"github.com/litxplore/litxplore/internal/pdf"
	"github.com/litxplore/litxplore/internal/repository"
	"github.com/litxplore/litxplore/internal/review"
	httpserver "github.com/litxplore/litxplore/internal/server/http"
	"github.com/litxplore/litxplore/internal/tasks"
	"github.com/litxplore/litxplore/internal/uploads"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Str("environment", cfg.Environment).Msg("litxplore server starting")

	metrics := observability.NewMetrics("litxplore")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Repositories.
	taskRepo := repository.NewPgTaskRepository(db)
	userRepo := repository.NewPgUserRepository(db)
	reviewRepo := repository.NewPgReviewRepository(db)
	analysisCache := repository.NewPgAnalysisCacheRepository(db)

	// LLM clients.
	llmClient, err := buildLLMClient(cfg)
	if err != nil {
		return fmt.Errorf("create llm client: %w", err)
	}
	embedder, err := llm.NewEmbedder(factoryConfig(cfg, cfg.LLM.Provider))
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}
	logger.Info().
		Str("provider", llmClient.Provider()).
		Str("model", llmClient.Model()).
		Msg("llm client initialized")

	// Paper sources.
	arxivClient := arxiv.New(arxiv.Config{
		BaseURL:    cfg.ArXiv.BaseURL,
		Timeout:    cfg.ArXiv.Timeout,
		RateLimit:  cfg.ArXiv.RateLimit,
		MaxResults: cfg.ArXiv.MaxResults,
		MaxRetries: cfg.ArXiv.MaxRetries,
	})

	uploadStore, err := uploads.NewStore(cfg.Uploads.Dir, logger)
	if err != nil {
		return fmt.Errorf("create upload store: %w", err)
	}
	if cfg.Uploads.SweepAge > 0 && cfg.Uploads.SweepInterval > 0 {
		go sweepUploads(ctx, uploadStore, cfg.Uploads.SweepAge, cfg.Uploads.SweepInterval, logger)
	}

	downloader := pdf.NewDownloader(pdf.Config{
		Timeout: cfg.ArXiv.Timeout,
		MaxSize: cfg.Uploads.MaxFileBytes,
	})

	gateway := papers.NewGateway(arxivClient, uploadStore, downloader, llmClient, logger)

	// Domain engines.
	analysisEngine := analysis.NewEngine(gateway, analysisCache, llmClient, analysis.Config{
		CacheTTL:          cfg.Analysis.CacheTTL,
		ModelTag:          cfg.Analysis.ModelTag,
		AtAGlanceMaxChars: cfg.Analysis.AtAGlanceMaxChars,
		InDepthMaxChars:   cfg.Analysis.InDepthMaxChars,
	}, logger)

	chatEngine := chat.NewEngine(gateway, llmClient, embedder, chat.Config{
		ChunkSize:        cfg.Chat.ChunkSize,
		ChunkOverlap:     cfg.Chat.ChunkOverlap,
		TopK:             cfg.Chat.TopK,
		EmbedWorkers:     cfg.Chat.EmbedWorkers,
		StreamChunkChars: cfg.Chat.StreamChunkChars,
		MaxMessageChars:  cfg.Chat.MaxMessageChars,
	}, logger)

	generator := review.NewGenerator(llmClient, logger)

	// Task lifecycle events.
	var publisher tasks.EventPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := events.NewKafkaPublisher(events.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		}, logger)
		defer func() {
			if closeErr := kafkaPublisher.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close kafka publisher")
			}
		}()
		publisher = kafkaPublisher
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka publisher initialized")
	}

	tracker := tasks.NewTracker(taskRepo, gateway, generator, uploadStore, publisher, logger)

	// Authentication.
	keySet := auth.NewKeySet(cfg.Auth.JWKSURL, cfg.Auth.JWKSCacheTTL, cfg.Auth.FetchTimeout, logger)
	verifier := auth.NewVerifier(keySet, cfg.Auth.Issuer, cfg.Auth.AuthorizedParties, userRepo, logger)
	authChain := auth.Middleware(verifier, metrics, logger)

	// HTTP API server.
	httpSrv := httpserver.NewServer(
		httpserver.Config{
			Address:         cfg.Server.HTTPAddress(),
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			MaxBodyBytes:    cfg.Server.MaxBodyBytes,
			MaxUploadBytes:  cfg.Uploads.MaxFileBytes,
		},
		gateway, analysisEngine, chatEngine, tracker, reviewRepo, db,
		authChain, metrics, logger,
	)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.ReadTimeout,
		}
	}

	errCh := make(chan error, 2)

	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	logger.Info().Str("http_address", cfg.Server.HTTPAddress()).Msg("litxplore is ready")

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("litxplore shutdown complete")
	return nil
}

// buildLLMClient creates the primary completion client, wrapped with
// the fallback provider when one is configured.
func buildLLMClient(cfg *config.Config) (llm.Client, error) {
	primary, err := llm.NewClient(factoryConfig(cfg, cfg.LLM.Provider))
	if err != nil {
		return nil, err
	}
	if cfg.LLM.FallbackProvider == "" {
		return primary, nil
	}
	fallback, err := llm.NewClient(factoryConfig(cfg, cfg.LLM.FallbackProvider))
	if err != nil {
		return nil, fmt.Errorf("fallback provider: %w", err)
	}
	return llm.NewClientWithFallback(primary, fallback), nil
}

func factoryConfig(cfg *config.Config, provider string) llm.FactoryConfig {
	return llm.FactoryConfig{
		Provider:       strings.ToLower(provider),
		Temperature:    cfg.LLM.Temperature,
		Timeout:        cfg.LLM.Timeout,
		MaxRetries:     cfg.LLM.MaxRetries,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
		},
		Gemini: llm.GeminiConfig{
			APIKey:  cfg.LLM.Gemini.APIKey,
			Model:   cfg.LLM.Gemini.Model,
			BaseURL: cfg.LLM.Gemini.BaseURL,
		},
	}
}

// sweepUploads periodically deletes stored uploads older than age.
func sweepUploads(ctx context.Context, store *uploads.Store, age, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.SweepOlderThan(age)
			if err != nil {
				logger.Warn().Err(err).Msg("upload sweep failed")
				continue
			}
			if removed > 0 {
				logger.Info().Int("removed", removed).Msg("swept stale uploads")
			}
		}
	}
}
