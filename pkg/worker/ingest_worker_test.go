package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/content-engine/internal/service/ingest"
	"github.com/edustack/content-engine/pkg/logger"
	"github.com/edustack/content-engine/pkg/queue"
)

// fakeService records the calls the worker delegates. Only the methods
// the worker touches are overridden.
type fakeService struct {
	ingest.Service
	handled []*queue.Task
	cleaned []time.Time
	err     error
}

func (f *fakeService) HandleIngestTask(_ context.Context, task *queue.Task) error {
	f.handled = append(f.handled, task)
	return f.err
}

func (f *fakeService) Cleanup(_ context.Context, threshold time.Time) error {
	f.cleaned = append(f.cleaned, threshold)
	return f.err
}

func newTestWorker(t *testing.T, cfg *Config, svc ingest.Service) *IngestWorker {
	t.Helper()
	w, err := NewIngestWorker(cfg, svc, logger.NewTestLogger())
	require.NoError(t, err)
	return w
}

func TestHandleIngestUpload_DeliversEnvelope(t *testing.T) {
	svc := &fakeService{}
	w := newTestWorker(t, nil, svc)

	envelope, err := queue.NewIngestTask(uuid.New(), uuid.New(), false)
	require.NoError(t, err)
	data, err := json.Marshal(envelope)
	require.NoError(t, err)

	err = w.handleIngestUpload(context.Background(), asynq.NewTask(queue.TaskTypeIngestUpload, data))
	require.NoError(t, err)

	require.Len(t, svc.handled, 1)
	assert.Equal(t, envelope.ID, svc.handled[0].ID)
	assert.Equal(t, queue.TaskTypeIngestUpload, svc.handled[0].Type)
	assert.JSONEq(t, string(envelope.Payload), string(svc.handled[0].Payload))
}

func TestHandleIngestUpload_BadEnvelope(t *testing.T) {
	svc := &fakeService{}
	w := newTestWorker(t, nil, svc)

	err := w.handleIngestUpload(context.Background(), asynq.NewTask(queue.TaskTypeIngestUpload, []byte("{")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal task envelope")
	assert.Empty(t, svc.handled)
}

func TestHandleIngestUpload_PropagatesServiceError(t *testing.T) {
	svc := &fakeService{err: errors.New("persist processing result: disk full")}
	w := newTestWorker(t, nil, svc)

	envelope, err := queue.NewIngestTask(uuid.New(), uuid.New(), false)
	require.NoError(t, err)
	data, err := json.Marshal(envelope)
	require.NoError(t, err)

	err = w.handleIngestUpload(context.Background(), asynq.NewTask(queue.TaskTypeIngestUpload, data))
	assert.ErrorIs(t, err, svc.err)
}

func TestHandleCleanup_UsesConfiguredRetention(t *testing.T) {
	svc := &fakeService{}
	cfg := DefaultConfig()
	cfg.Retention = 48 * time.Hour
	w := newTestWorker(t, cfg, svc)

	require.NoError(t, w.handleCleanup(context.Background(), asynq.NewTask(queue.TaskTypeCleanupUploads, nil)))

	require.Len(t, svc.cleaned, 1)
	assert.WithinDuration(t, time.Now().UTC().Add(-48*time.Hour), svc.cleaned[0], time.Minute)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotEmpty(t, cfg.RedisAddr)
	assert.Positive(t, cfg.Concurrency)
	assert.NotEmpty(t, cfg.CleanupSpec)
	assert.Positive(t, cfg.Retention)
	// Higher priority queues outweigh lower ones.
	assert.Greater(t, cfg.Queues[queue.QueueCritical], cfg.Queues[queue.QueueDefault])
	assert.Greater(t, cfg.Queues[queue.QueueDefault], cfg.Queues[queue.QueueLow])
}
