// Package ingest owns the per-upload lifecycle: accept bytes, create
// the processing record, run the worker-side extract/analyze pipeline,
// and flip the record to completed or failed exactly once per attempt.
package ingest

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/pkg/queue"
)

// Progress checkpoints reported while a worker runs one attempt.
const (
	ProgressFetched   = 0.2
	ProgressExtracted = 0.6
	ProgressAnalyzed  = 0.8
	ProgressDone      = 1.0
)

// ProgressFunc receives checkpoint fractions during Process.
type ProgressFunc func(progress float64)

// Request is one file submission.
type Request struct {
	UserID       uuid.UUID
	SubjectID    *uuid.UUID
	Filename     string
	DeclaredKind string
	SizeBytes    int64
	Body         io.Reader
}

// Receipt acknowledges an accepted submission: the persisted record in
// its processing state plus the queue task driving the attempt.
type Receipt struct {
	Upload *models.Upload
	TaskID string
}

// UploadStatus is the polling view. Error is non-empty after a failed
// attempt; Metadata is nil unless the upload completed.
type UploadStatus struct {
	ID          uuid.UUID               `json:"id"`
	Status      models.ProcessingStatus `json:"status"`
	Error       *string                 `json:"processing_error,omitempty"`
	ProcessedAt *time.Time              `json:"processed_at,omitempty"`
	Metadata    *models.UploadMetadata  `json:"metadata,omitempty"`
}

type Service interface {
	// Ingest validates and stores the file, creates the processing
	// record and enqueues the attempt. Returns immediately; the real
	// work happens on a worker.
	Ingest(ctx context.Context, req *Request) (*Receipt, error)

	// Reprocess re-enqueues an upload. Force resets completed or failed
	// back to processing; without force only failed uploads qualify.
	Reprocess(ctx context.Context, uploadID, userID uuid.UUID, force bool) (*Receipt, error)

	// Process runs one worker-side attempt: fetch bytes, extract,
	// analyze, then one atomic full-metadata write. Extraction and
	// storage-read failures mark the record failed and return normally;
	// only infrastructure errors (record missing, datastore write
	// failures) are returned for redelivery.
	Process(ctx context.Context, uploadID uuid.UUID, report ProgressFunc) (*models.Upload, error)

	// HandleIngestTask is the queue entrypoint wrapping Process with
	// task status checkpoints.
	HandleIngestTask(ctx context.Context, task *queue.Task) error

	// Status reads the persisted record for polling.
	Status(ctx context.Context, uploadID, userID uuid.UUID) (*UploadStatus, error)

	Get(ctx context.Context, uploadID, userID uuid.UUID) (*models.Upload, error)
	List(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.Upload, error)

	// Delete removes the record and its stored object.
	Delete(ctx context.Context, uploadID, userID uuid.UUID) error

	// TaskStatus reports queue-level progress for one task.
	TaskStatus(ctx context.Context, taskID string) (*queue.TaskStatus, error)
	CancelTask(ctx context.Context, taskID string) error

	// Cleanup sweeps stored objects and terminal rows older than the
	// retention threshold.
	Cleanup(ctx context.Context, threshold time.Time) error
}
