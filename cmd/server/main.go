// Package main implements the fastdsl server: it wires the scheduling
// core (cache, scheduler, DSL) to a configured executor backend and
// exposes task submission and metrics over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fastdsl/core/internal/config"
	"github.com/fastdsl/core/internal/dsl"
	"github.com/fastdsl/core/internal/events"
	"github.com/fastdsl/core/internal/platform/executor"
	"github.com/fastdsl/core/internal/platform/logger"
	"github.com/fastdsl/core/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"workers", cfg.Scheduler.Workers,
		"cache_capacity", cfg.Cache.Capacity,
		"cache_enabled", cfg.Cache.Enabled,
		"llm_provider", cfg.LLM.Provider)

	ctx := context.Background()
	exec, err := executor.New(ctx, cfg.LLM, appLogger)
	if err != nil {
		return fmt.Errorf("failed to build executor: %w", err)
	}

	metrics := scheduler.NewInMemoryMetrics()
	emitter := events.NewInMemoryEmitter(appLogger)
	emitter.RegisterHandler(events.NewLogHandler(appLogger))

	d, err := dsl.New(
		dsl.Config{
			Workers:       cfg.Scheduler.Workers,
			CacheCapacity: cfg.Cache.Capacity,
			CacheEnabled:  cfg.Cache.Enabled,
		},
		exec,
		appLogger,
		dsl.WithMetrics(metrics),
		dsl.WithEmitter(emitter),
	)
	if err != nil {
		return fmt.Errorf("failed to create DSL: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newRouter(d, metrics, appLogger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		d.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		appLogger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	}

	// Drain queued and in-flight tasks before exiting
	d.Shutdown()
	appLogger.Info("shutdown complete")
	return nil
}
