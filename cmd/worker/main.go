package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/edustack/content-engine/config"
	"github.com/edustack/content-engine/internal/repository"
	"github.com/edustack/content-engine/internal/service/ingest"
	"github.com/edustack/content-engine/pkg/logger"
	"github.com/edustack/content-engine/pkg/worker"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := repository.Open(config.GetDatabaseConfig())
	if err != nil {
		log.Error("Failed to connect database", logger.Error(err))
		os.Exit(1)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Error("Failed to migrate database", logger.Error(err))
		os.Exit(1)
	}

	ingestService, err := ingest.GetService(db, log)
	if err != nil {
		log.Error("Failed to get ingest service", logger.Error(err))
		os.Exit(1)
	}

	ingestWorker, err := worker.NewIngestWorker(worker.DefaultConfig(), ingestService, log)
	if err != nil {
		log.Error("Failed to create ingest worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ingestWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	ingestWorker.Stop()
	log.Info("Worker stopped")
}
