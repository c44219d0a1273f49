// Package main implements the entry point for the ocrflow API server, which
// accepts document uploads and runs OCR conversion as asynchronous tasks
// behind a bounded in-process queue.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/lexhide/ocrflow/internal/config"
	"github.com/lexhide/ocrflow/internal/ocr"
	"github.com/lexhide/ocrflow/internal/platform/logger"
	"github.com/lexhide/ocrflow/internal/queue"
	"github.com/lexhide/ocrflow/internal/upload"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
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
		"log_level", cfg.Server.LogLevel,
		"max_concurrent_tasks", cfg.Queue.MaxConcurrentTasks)

	uploads, err := upload.NewHandler(cfg.Upload, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up upload handling: %w", err)
	}

	engine := queue.New(queue.Config{
		MaxConcurrentTasks: cfg.Queue.MaxConcurrentTasks,
		TaskTimeout:        cfg.Queue.TaskTimeout(),
		ResultCacheTTL:     cfg.Queue.ResultCacheTTL(),
		CleanupInterval:    cfg.Queue.CleanupInterval(),
	}, appLogger)

	ocrEngine := ocr.NewRemoteEngine(cfg.OCR, appLogger)
	engine.RegisterHandler(ocr.TaskTypeSingleFile, ocr.SingleFileHandler(ocrEngine, uploads.Cleanup, appLogger))
	engine.RegisterHandler(ocr.TaskTypeBatchFiles, ocr.BatchFilesHandler(ocrEngine, uploads.Cleanup, appLogger))

	if err := engine.Start(); err != nil {
		return fmt.Errorf("failed to start task engine: %w", err)
	}
	defer engine.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := newRouter(engine, uploads, appLogger)
	if err := serve(ctx, cfg.Server, router, appLogger); err != nil {
		return err
	}

	slog.Info("shutdown complete")
	return nil
}
