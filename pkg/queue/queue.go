package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/edustack/content-engine/config"
)

const (
	TaskTypeIngestUpload   = "ingest:upload"
	TaskTypeCleanupUploads = "cleanup:uploads"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type Priority int

const (
	PriorityCritical Priority = 1
	PriorityDefault  Priority = 2
	PriorityLow      Priority = 3
)

// Asynq queue names, highest priority first.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// queueNames in inspection order.
var queueNames = []string{QueueCritical, QueueDefault, QueueLow}

// ErrTaskNotFound is returned when a task ID matches nothing in redis
// or any queue. Callers can errors.Is against it without importing
// asynq.
var ErrTaskNotFound = asynq.ErrTaskNotFound

// Queue enqueues background work and tracks per-task status.
type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error)
	CancelTask(ctx context.Context, taskID string) error
	SaveStatus(ctx context.Context, status *TaskStatus) error
}

// Task is the envelope stored as the asynq payload.
type Task struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Priority  Priority        `json:"priority"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// IngestPayload drives one processing attempt for one upload.
type IngestPayload struct {
	UploadID string `json:"upload_id"`
	UserID   string `json:"user_id"`
	Force    bool   `json:"force"`
}

func NewIngestTask(uploadID, userID uuid.UUID, force bool) (*Task, error) {
	payload, err := json.Marshal(IngestPayload{
		UploadID: uploadID.String(),
		UserID:   userID.String(),
		Force:    force,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ingest payload: %w", err)
	}
	return &Task{
		ID:        uuid.NewString(),
		Type:      TaskTypeIngestUpload,
		Priority:  PriorityDefault,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type TaskStatus struct {
	TaskID     string     `json:"task_id"`
	Status     string     `json:"status"`
	Progress   float64    `json:"progress"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type QueueConfig struct {
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	MaxRetries     int
	RetryDelay     time.Duration
	ProcessTimeout time.Duration
}

// AsynqQueue is the redis-backed implementation. Worker processes
// write status milestones; the asynq inspector covers tasks whose
// status key has not been written yet.
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
	cfg       *QueueConfig
}

// GetQueue builds a queue from the process configuration.
func GetQueue() (*AsynqQueue, error) {
	redisCfg := config.GetRedisConfig()
	return NewAsynqQueue(&QueueConfig{
		RedisAddr:      redisCfg.Addr,
		RedisPassword:  redisCfg.Password,
		RedisDB:        redisCfg.DB,
		MaxRetries:     3,
		RetryDelay:     1 * time.Minute,
		ProcessTimeout: 10 * time.Minute,
	})
}

func NewAsynqQueue(cfg *QueueConfig) (*AsynqQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
		cfg: cfg,
	}, nil
}

func statusKey(taskID string) string {
	return fmt.Sprintf("upload_task:%s", taskID)
}

// Enqueue places the task on its priority queue and seeds a pending
// status so polling works before a worker picks it up.
func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	opts := []asynq.Option{
		asynq.ProcessIn(time.Second),
		asynq.MaxRetry(q.cfg.MaxRetries),
		asynq.Timeout(q.cfg.ProcessTimeout),
		asynq.TaskID(task.ID),
	}
	switch task.Priority {
	case PriorityCritical:
		opts = append(opts, asynq.Queue(QueueCritical))
	case PriorityDefault:
		opts = append(opts, asynq.Queue(QueueDefault))
	default:
		opts = append(opts, asynq.Queue(QueueLow))
	}

	t := asynq.NewTask(task.Type, payload, opts...)
	if _, err := q.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}

	return q.SaveStatus(ctx, &TaskStatus{
		TaskID:    task.ID,
		Status:    StatusPending,
		StartedAt: time.Now().UTC(),
	})
}

func (q *AsynqQueue) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	data, err := q.redis.Get(ctx, statusKey(taskID)).Bytes()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get status from redis: %w", err)
	}
	if err == nil {
		var status TaskStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("unmarshal status: %w", err)
		}
		return &status, nil
	}

	// No status key yet, ask the inspector.
	var info *asynq.TaskInfo
	var lastErr error
	for _, queueName := range queueNames {
		info, lastErr = q.inspector.GetTaskInfo(queueName, taskID)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("task %s not found in any queue: %w", taskID, lastErr)
	}

	status := convertTaskInfo(info)
	if err := q.SaveStatus(ctx, status); err != nil {
		return status, nil
	}
	return status, nil
}

func (q *AsynqQueue) CancelTask(ctx context.Context, taskID string) error {
	var lastErr error
	for _, queueName := range queueNames {
		if err := q.inspector.DeleteTask(queueName, taskID); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("cancel task: %w", lastErr)
}

// SaveStatus writes the status record with a 24h TTL.
func (q *AsynqQueue) SaveStatus(ctx context.Context, status *TaskStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := q.redis.Set(ctx, statusKey(status.TaskID), data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("save status: %w", err)
	}
	return nil
}

func (q *AsynqQueue) Close() error {
	if err := q.client.Close(); err != nil {
		return err
	}
	return q.redis.Close()
}

func convertTaskInfo(info *asynq.TaskInfo) *TaskStatus {
	status := &TaskStatus{
		TaskID:    info.ID,
		StartedAt: info.NextProcessAt,
	}

	switch info.State {
	case asynq.TaskStatePending, asynq.TaskStateScheduled:
		status.Status = StatusPending
	case asynq.TaskStateActive:
		status.Status = StatusRunning
		status.Progress = 0.5
	case asynq.TaskStateRetry:
		status.Status = StatusPending
		status.Error = info.LastErr
	case asynq.TaskStateCompleted:
		status.Status = StatusCompleted
		status.Progress = 1.0
		finished := info.CompletedAt
		status.FinishedAt = &finished
	case asynq.TaskStateArchived:
		status.Status = StatusFailed
		status.Error = info.LastErr
	default:
		status.Status = StatusPending
	}

	return status
}
