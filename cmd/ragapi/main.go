package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"

	"github.com/Omar-Sa03/rag-api/internal/chunking"
	"github.com/Omar-Sa03/rag-api/internal/config"
	dbRedis "github.com/Omar-Sa03/rag-api/internal/db/redis"
	"github.com/Omar-Sa03/rag-api/internal/embed"
	"github.com/Omar-Sa03/rag-api/internal/extract"
	"github.com/Omar-Sa03/rag-api/internal/lexical"
	logpkg "github.com/Omar-Sa03/rag-api/internal/logger"
	"github.com/Omar-Sa03/rag-api/internal/metrics"
	"github.com/Omar-Sa03/rag-api/internal/repository/corpus"
	"github.com/Omar-Sa03/rag-api/internal/rerank"
	"github.com/Omar-Sa03/rag-api/internal/transport/httpapi"
	answeruc "github.com/Omar-Sa03/rag-api/internal/usecase/answer"
	healthuc "github.com/Omar-Sa03/rag-api/internal/usecase/health"
	ingestuc "github.com/Omar-Sa03/rag-api/internal/usecase/ingest"
	searchuc "github.com/Omar-Sa03/rag-api/internal/usecase/search"
	"github.com/Omar-Sa03/rag-api/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rag-api server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	embedder := embed.NewEmbedder(&embed.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	corpusRepo := corpus.New(store, embedder, cfg.Embedding.Dimensions, logger)
	if err := corpusRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}

	lexIndex := lexical.New(corpusRepo, logger)

	var reranker searchuc.RerankScorer
	if cfg.Reranker.Enabled {
		reranker = rerank.NewClient(&rerank.Config{
			URL:     cfg.Reranker.URL,
			Timeout: time.Duration(cfg.Reranker.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		logger.Info("Reranker enabled",
			zap.String("url", cfg.Reranker.URL),
			zap.Bool("optional", cfg.Reranker.Optional),
		)
	}

	searchSvc := searchuc.New(corpusRepo, lexIndex, reranker, cfg.Reranker.Optional, logger)

	strategy, err := chunking.ParseStrategy(cfg.Chunking.Strategy)
	if err != nil {
		logger.Fatal("Invalid chunking strategy", zap.Error(err))
	}
	ingestSvc, err := ingestuc.New(corpusRepo, embedder, ingestuc.Params{
		Strategy: strategy,
		Size:     cfg.Chunking.Size,
		Overlap:  cfg.Chunking.Overlap,
	}, cfg.Embedding.Workers, logger)
	if err != nil {
		logger.Fatal("Failed to create ingest service", zap.Error(err))
	}
	defer ingestSvc.Close()

	var answers httpapi.AnswerGenerator
	if cfg.LLM.Enabled {
		model, err := ollama.New(
			ollama.WithServerURL(cfg.LLM.ServerURL),
			ollama.WithModel(cfg.LLM.Model),
		)
		if err != nil {
			logger.Fatal("Failed to create LLM client", zap.Error(err))
		}
		answers = answeruc.New(model, logger)
		logger.Info("Answer generation enabled", zap.String("model", cfg.LLM.Model))
	}

	healthSvc := healthuc.New(store, embedder, lexIndex)
	processor := extract.NewProcessor(logger)

	server := httpapi.NewServer(searchSvc, ingestSvc, processor, answers, healthSvc,
		httpapi.RateLimits{
			QueryPerMinute:  cfg.RateLimit.QueryPerMinute,
			IngestPerMinute: cfg.RateLimit.IngestPerMinute,
		}, logger)

	// Warm the lexical index so the first query does not pay the build cost.
	if err := searchSvc.RebuildIndex(ctx); err != nil {
		logger.Warn("Initial lexical index build failed", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
