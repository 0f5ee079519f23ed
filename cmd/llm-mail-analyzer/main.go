package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-analyzer/internal/adapters/smtpingest"
	"github.com/mikey/llm-mail-analyzer/internal/api"
	"github.com/mikey/llm-mail-analyzer/internal/config"
	"github.com/mikey/llm-mail-analyzer/internal/core"
	"github.com/mikey/llm-mail-analyzer/internal/di"
	"github.com/mikey/llm-mail-analyzer/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	store core.AnalysisStore,
	cache core.DedupCache,
	llmClient core.LLMClient,
	batchScheduler *scheduler.Scheduler,
	server *api.Server,
	ingest *smtpingest.Ingest,
) error {
	defer logger.Sync()

	// The schema must exist before the first batch cycle or API request
	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.Migrate(migrateCtx); err != nil {
		logger.Error("Failed to run schema migration", zap.Error(err))
		return err
	}
	logger.Info("Schema migration complete")

	schedulerEnabled := cfg.GetBool("scheduler.enabled")
	if schedulerEnabled {
		batchScheduler.Start()
		logger.Info("Batch scheduler started")
	}

	smtpEnabled := cfg.GetBool("smtp.enabled")
	if smtpEnabled {
		if err := ingest.Start(); err != nil {
			logger.Error("Failed to start SMTP ingest", zap.Error(err))
			return err
		}
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Start()
	}()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down...", zap.String("signal", sig.String()))
	case err := <-serverErrCh:
		logger.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}

	if smtpEnabled {
		if err := ingest.Stop(); err != nil {
			logger.Error("Failed to stop SMTP ingest", zap.Error(err))
		}
	}

	if schedulerEnabled {
		batchScheduler.Stop()
	}

	// Close any resources that need closing
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
	if stopper, ok := cache.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close analysis store", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
