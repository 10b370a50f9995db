package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/edustack/content-engine/internal/service/ingest"
	"github.com/edustack/content-engine/pkg/logger"
	"github.com/edustack/content-engine/pkg/queue"
)

// IngestWorker consumes ingestion tasks and schedules the daily
// retention cleanup.
type IngestWorker struct {
	BaseWorker
	scheduler *asynq.Scheduler
	service   ingest.Service
	cfg       *Config
}

func NewIngestWorker(cfg *Config, svc ingest.Service, log logger.Logger) (*IngestWorker, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      cfg.Queues,
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return time.Duration(1<<uint(n)) * time.Minute
		},
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})

	w := &IngestWorker{
		BaseWorker: BaseWorker{
			server: server,
			mux:    asynq.NewServeMux(),
			logger: log.Named("worker"),
		},
		scheduler: scheduler,
		service:   svc,
		cfg:       cfg,
	}

	w.mux.HandleFunc(queue.TaskTypeIngestUpload, w.handleIngestUpload)
	w.mux.HandleFunc(queue.TaskTypeCleanupUploads, w.handleCleanup)

	if _, err := scheduler.Register(
		cfg.CleanupSpec,
		asynq.NewTask(queue.TaskTypeCleanupUploads, nil),
		asynq.Queue(queue.QueueLow),
		asynq.MaxRetry(3),
	); err != nil {
		return nil, fmt.Errorf("register cleanup schedule: %w", err)
	}

	return w, nil
}

func (w *IngestWorker) handleIngestUpload(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("failed to unmarshal task envelope",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("unmarshal task envelope: %w", err)
	}

	w.logger.Info("received ingest task", logger.String("task_id", task.ID))
	return w.service.HandleIngestTask(ctx, &task)
}

func (w *IngestWorker) handleCleanup(ctx context.Context, t *asynq.Task) error {
	threshold := time.Now().UTC().Add(-w.cfg.Retention)
	w.logger.Info("running retention cleanup", logger.Time("threshold", threshold))
	return w.service.Cleanup(ctx, threshold)
}

func (w *IngestWorker) Start(ctx context.Context) error {
	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		if err := w.Stop(); err != nil {
			w.logger.Error("worker shutdown failed", logger.Error(err))
		}
	}()

	return nil
}

func (w *IngestWorker) Stop() error {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	return nil
}
