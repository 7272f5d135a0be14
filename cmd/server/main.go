package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unalkalkan/QuizForge/internal/api"
	"github.com/unalkalkan/QuizForge/internal/config"
	"github.com/unalkalkan/QuizForge/internal/generation"
	"github.com/unalkalkan/QuizForge/internal/health"
	"github.com/unalkalkan/QuizForge/internal/logging"
	"github.com/unalkalkan/QuizForge/internal/parser"
	"github.com/unalkalkan/QuizForge/internal/provider"
	"github.com/unalkalkan/QuizForge/internal/storage"
	"github.com/unalkalkan/QuizForge/internal/upload"
	"go.uber.org/zap"
)

const version = "0.2.0"

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/dev.example.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting QuizForge server",
		zap.String("version", version),
		zap.String("config", *configPath))

	// Initialize storage adapter
	store, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to create storage adapter", zap.Error(err))
	}
	defer store.Close()
	logger.Info("storage adapter initialized", zap.String("adapter", cfg.Storage.Adapter))

	// Initialize provider registry
	registry := provider.NewRegistry()
	if err := registry.InitializeProviders(cfg.Providers, logger); err != nil {
		logger.Fatal("failed to initialize providers", zap.Error(err))
	}
	defer registry.Close()
	logger.Info("providers initialized", zap.Strings("llm", registry.ListLLM()))

	llm, err := registry.GetLLM(cfg.Generation.Provider)
	if err != nil {
		logger.Fatal("generation provider unavailable", zap.Error(err))
	}
	generator := generation.NewGenerator(llm, cfg.Generation, logger)

	quiz := api.NewQuizHandler(
		upload.NewService(store, cfg.Upload, logger),
		parser.NewExtractor(store, parser.NewFactory(logger), logger),
		generator,
		cfg,
		logger,
	)

	// Register health checks
	healthHandler := health.NewHandler(version, logger)
	healthHandler.Register("storage", health.StorageCheck(store))
	healthHandler.Register("providers", health.ProvidersCheck(registry))
	healthHandler.Register("generation", health.PingCheck(generator))

	router := api.NewRouter(api.Dependencies{
		Quiz:     quiz,
		Health:   healthHandler,
		Registry: registry,
		Config:   cfg,
		Version:  version,
		Logger:   logger,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}
