package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikey/mail-notify/internal/adapters/health"
	"github.com/mikey/mail-notify/internal/core"
	"github.com/mikey/mail-notify/internal/di"
	"github.com/mikey/mail-notify/internal/scheduler"
	"go.uber.org/zap"
)

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
	sched *scheduler.Scheduler,
	healthServer *health.Server,
	summarizer core.Summarizer,
) error {
	defer logger.Sync()

	if err := healthServer.Start(); err != nil {
		return fmt.Errorf("starting health server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The polling worker owns the mailbox and cache exclusively
	workerDone := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(workerDone)
	}()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop the worker; an in-flight cycle is bounded by its own timeouts
	cancel()
	<-workerDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop health server", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := summarizer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close summarizer", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
