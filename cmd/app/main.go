package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/thindery/pantry-pal-api-sub000/internal/config"
	"github.com/thindery/pantry-pal-api-sub000/internal/logger"
	"github.com/thindery/pantry-pal-api-sub000/internal/store/dispatch"
)

func main() {
	logger := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// 2. Initialize the storage engine (runs migrations)
	mgr := dispatch.NewManager(cfg, logger)
	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := mgr.Init(initCtx); err != nil {
		cancel()
		logger.Fatal().Msgf("Failed to initialize storage: %v", err)
	}
	cancel()

	logger.Info().Str("backend", cfg.StorageBackend).Msg("🚀 Pantry store ready")

	// 3. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")

	if err := mgr.Close(); err != nil {
		logger.Fatal().Msgf("Failed to close storage: %v", err)
	}
	logger.Info().Msg("Store shut down gracefully")
}
