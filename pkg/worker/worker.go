// Package worker runs the asynq consumer side: the ingestion pipeline
// and the scheduled retention cleanup.
package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/edustack/content-engine/config"
	"github.com/edustack/content-engine/pkg/logger"
	"github.com/edustack/content-engine/pkg/queue"
)

type Worker interface {
	Start(ctx context.Context) error
	Stop() error
}

type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	Queues        map[string]int
	// Retention bounds how long stored objects and terminal rows are
	// kept before the daily cleanup removes them.
	Retention time.Duration
	// CleanupSpec is the cron expression for the cleanup job.
	CleanupSpec string
}

// DefaultConfig assembles worker settings from process configuration.
func DefaultConfig() *Config {
	redisCfg := config.GetRedisConfig()
	serverCfg := config.GetServerConfig()
	storageCfg := config.GetStorageConfig()

	return &Config{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
		Concurrency:   serverCfg.WorkerConcurrency,
		Queues: map[string]int{
			queue.QueueCritical: 6,
			queue.QueueDefault:  3,
			queue.QueueLow:      1,
		},
		Retention:   time.Duration(storageCfg.RetentionDays) * 24 * time.Hour,
		CleanupSpec: "0 3 * * *",
	}
}

// BaseWorker carries the asynq server plumbing shared by concrete
// workers.
type BaseWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger logger.Logger
}

func (w *BaseWorker) Stop() error {
	w.server.Shutdown()
	return nil
}
