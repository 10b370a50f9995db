package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edustack/content-engine/config"
	"github.com/edustack/content-engine/internal/ai"
	"github.com/edustack/content-engine/internal/extractor"
	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/internal/repository"
	"github.com/edustack/content-engine/internal/utils/validator"
	"github.com/edustack/content-engine/pkg/logger"
	"github.com/edustack/content-engine/pkg/queue"
	"github.com/edustack/content-engine/pkg/storage"
)

const sniffLen = 512

type ingestService struct {
	uploads    repository.UploadRepo
	extractors *extractor.Registry
	analyzer   *ai.Analyzer
	store      storage.Storage
	queue      queue.Queue
	validator  *validator.UploadValidator
	logger     logger.Logger
}

func NewService(
	uploads repository.UploadRepo,
	extractors *extractor.Registry,
	analyzer *ai.Analyzer,
	store storage.Storage,
	q queue.Queue,
	v *validator.UploadValidator,
	log logger.Logger,
) Service {
	return &ingestService{
		uploads:    uploads,
		extractors: extractors,
		analyzer:   analyzer,
		store:      store,
		queue:      q,
		validator:  v,
		logger:     log.Named("ingest"),
	}
}

// GetService wires the service from process configuration.
func GetService(db *gorm.DB, log logger.Logger) (Service, error) {
	storageCfg := config.GetStorageConfig()

	store, err := storage.New(storageCfg.Provider, log)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}

	q, err := queue.GetQueue()
	if err != nil {
		return nil, fmt.Errorf("initialize queue: %w", err)
	}

	extractors, err := extractor.NewRegistry(log)
	if err != nil {
		return nil, fmt.Errorf("initialize extractors: %w", err)
	}

	client, err := ai.NewClient(context.Background(), config.GetAIConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("initialize ai client: %w", err)
	}

	v := validator.NewUploadValidator(log, &validator.UploadRules{
		MaxSizeBytes: storageCfg.MaxUploadSizeBytes(),
	})

	return NewService(
		repository.NewUploadRepo(db, log),
		extractors,
		ai.NewAnalyzer(client, log),
		store,
		q,
		v,
		log,
	), nil
}

func (s *ingestService) Ingest(ctx context.Context, req *Request) (*Receipt, error) {
	kind, err := s.validator.ValidateUpload(req.Filename, req.SizeBytes, req.DeclaredKind)
	if err != nil {
		return nil, err
	}

	body := bufio.NewReader(req.Body)
	head, _ := body.Peek(sniffLen)
	if err := s.validator.CheckContentType(head, kind); err != nil {
		return nil, err
	}

	id := uuid.New()
	key := storage.ObjectKey(id, req.Filename)
	if _, err := s.store.Store(ctx, body, key); err != nil {
		s.logger.Error("failed to store upload",
			logger.String("filename", req.Filename),
			logger.Error(err),
		)
		return nil, fmt.Errorf("store upload: %w", err)
	}

	upload := &models.Upload{
		ID:         id,
		UserID:     req.UserID,
		SubjectID:  req.SubjectID,
		Filename:   req.Filename,
		Kind:       kind,
		StorageKey: key,
		SizeBytes:  req.SizeBytes,
		Status:     models.StatusProcessing,
	}
	if err := s.uploads.Create(ctx, upload); err != nil {
		// No record means nothing references the object; drop it.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned object",
				logger.String("key", key), logger.Error(delErr))
		}
		return nil, fmt.Errorf("create upload record: %w", err)
	}

	task, err := queue.NewIngestTask(id, req.UserID, false)
	if err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		// The record exists but no worker will pick it up.
		msg := "failed to enqueue processing task: " + err.Error()
		if mErr := s.uploads.MarkFailed(ctx, id, msg); mErr != nil {
			s.logger.Error("failed to mark upload failed",
				logger.String("upload_id", id.String()), logger.Error(mErr))
		}
		return nil, fmt.Errorf("enqueue ingest task: %w", err)
	}

	s.logger.Info("upload accepted",
		logger.String("upload_id", id.String()),
		logger.String("task_id", task.ID),
		logger.String("kind", string(kind)),
		logger.Int64("size", req.SizeBytes),
	)

	return &Receipt{Upload: upload, TaskID: task.ID}, nil
}

func (s *ingestService) Reprocess(ctx context.Context, uploadID, userID uuid.UUID, force bool) (*Receipt, error) {
	upload, err := s.uploads.GetForUser(ctx, uploadID, userID)
	if err != nil {
		return nil, err
	}

	if !force && upload.Status != models.StatusFailed {
		return nil, models.NewValidationError(
			"upload is %s; reprocessing it requires force", upload.Status)
	}

	if err := s.uploads.MarkProcessing(ctx, uploadID); err != nil {
		return nil, fmt.Errorf("reset upload to processing: %w", err)
	}
	upload.Status = models.StatusProcessing
	upload.Error = nil

	task, err := queue.NewIngestTask(uploadID, userID, force)
	if err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		msg := "failed to enqueue processing task: " + err.Error()
		if mErr := s.uploads.MarkFailed(ctx, uploadID, msg); mErr != nil {
			s.logger.Error("failed to mark upload failed",
				logger.String("upload_id", uploadID.String()), logger.Error(mErr))
		}
		return nil, fmt.Errorf("enqueue ingest task: %w", err)
	}

	s.logger.Info("upload reprocess enqueued",
		logger.String("upload_id", uploadID.String()),
		logger.String("task_id", task.ID),
		logger.Bool("force", force),
	)

	return &Receipt{Upload: upload, TaskID: task.ID}, nil
}

// Process runs one attempt. Within a document extraction strictly
// precedes analysis, which strictly precedes the status flip; the flip
// is the last write and the publication point for readers.
func (s *ingestService) Process(ctx context.Context, uploadID uuid.UUID, report ProgressFunc) (*models.Upload, error) {
	if report == nil {
		report = func(float64) {}
	}

	upload, err := s.uploads.GetByID(ctx, uploadID)
	if err != nil {
		return nil, fmt.Errorf("load upload %s: %w", uploadID, err)
	}

	data, err := s.fetchObject(ctx, upload.StorageKey)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return s.fail(ctx, upload, fmt.Sprintf("fetch stored object: %v", err))
	}
	report(ProgressFetched)

	ex, err := s.extractors.ForKind(upload.Kind)
	if err != nil {
		return s.fail(ctx, upload, err.Error())
	}

	result, err := ex.Extract(ctx, data)
	if err != nil {
		// A cancelled attempt is redelivered, not recorded as failed.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return s.fail(ctx, upload, err.Error())
	}
	report(ProgressExtracted)

	var content *models.ContentMetadata
	if strings.TrimSpace(result.Text) != "" {
		content = s.analyzer.Analyze(ctx, result.Text)
	}
	report(ProgressAnalyzed)

	if err := s.uploads.ReplaceProcessingResult(ctx, uploadID, result, content); err != nil {
		return nil, fmt.Errorf("persist processing result: %w", err)
	}
	report(ProgressDone)

	upload, err = s.uploads.GetByID(ctx, uploadID)
	if err != nil {
		return nil, fmt.Errorf("reload upload %s: %w", uploadID, err)
	}

	s.logger.Info("upload processed",
		logger.String("upload_id", uploadID.String()),
		logger.String("kind", string(upload.Kind)),
		logger.Int("text_length", len(result.Text)),
	)

	return upload, nil
}

func (s *ingestService) fetchObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

// fail records the terminal failed state with the error text verbatim.
// The attempt itself returns normally: failure is communicated through
// the record, not re-raised.
func (s *ingestService) fail(ctx context.Context, upload *models.Upload, msg string) (*models.Upload, error) {
	s.logger.Warn("upload processing failed",
		logger.String("upload_id", upload.ID.String()),
		logger.String("kind", string(upload.Kind)),
		logger.String("error", msg),
	)
	if err := s.uploads.MarkFailed(ctx, upload.ID, msg); err != nil {
		return nil, fmt.Errorf("mark upload failed: %w", err)
	}
	upload.Status = models.StatusFailed
	upload.Error = &msg
	return upload, nil
}

func (s *ingestService) HandleIngestTask(ctx context.Context, task *queue.Task) error {
	if task == nil || len(task.Payload) == 0 {
		return fmt.Errorf("invalid task: missing payload")
	}

	var payload queue.IngestPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("decode ingest payload: %w", err)
	}
	uploadID, err := uuid.Parse(payload.UploadID)
	if err != nil {
		return fmt.Errorf("parse upload id %q: %w", payload.UploadID, err)
	}

	started := time.Now().UTC()
	s.saveTaskStatus(ctx, &queue.TaskStatus{
		TaskID:    task.ID,
		Status:    queue.StatusRunning,
		Progress:  0.1,
		StartedAt: started,
	})

	report := func(p float64) {
		s.saveTaskStatus(ctx, &queue.TaskStatus{
			TaskID:    task.ID,
			Status:    queue.StatusRunning,
			Progress:  p,
			StartedAt: started,
		})
	}

	upload, err := s.Process(ctx, uploadID, report)
	if err != nil {
		// Infrastructure failure: leave status to the queue so the
		// redelivered attempt starts clean.
		return err
	}

	finished := time.Now().UTC()
	final := &queue.TaskStatus{
		TaskID:     task.ID,
		Progress:   1.0,
		StartedAt:  started,
		FinishedAt: &finished,
	}
	if upload.Status == models.StatusFailed {
		final.Status = queue.StatusFailed
		if upload.Error != nil {
			final.Error = *upload.Error
		}
	} else {
		final.Status = queue.StatusCompleted
	}
	s.saveTaskStatus(ctx, final)

	s.logger.Info("ingest task finished",
		logger.String("task_id", task.ID),
		logger.String("upload_id", payload.UploadID),
		logger.String("status", string(upload.Status)),
		logger.Duration("elapsed", finished.Sub(started)),
	)
	return nil
}

func (s *ingestService) saveTaskStatus(ctx context.Context, st *queue.TaskStatus) {
	if err := s.queue.SaveStatus(ctx, st); err != nil {
		s.logger.Warn("failed to save task status",
			logger.String("task_id", st.TaskID), logger.Error(err))
	}
}

func (s *ingestService) Status(ctx context.Context, uploadID, userID uuid.UUID) (*UploadStatus, error) {
	upload, err := s.uploads.GetForUser(ctx, uploadID, userID)
	if err != nil {
		return nil, err
	}
	return &UploadStatus{
		ID:          upload.ID,
		Status:      upload.Status,
		Error:       upload.Error,
		ProcessedAt: upload.ProcessedAt,
		Metadata:    upload.Metadata(),
	}, nil
}

func (s *ingestService) Get(ctx context.Context, uploadID, userID uuid.UUID) (*models.Upload, error) {
	return s.uploads.GetForUser(ctx, uploadID, userID)
}

func (s *ingestService) List(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.Upload, error) {
	return s.uploads.ListForUser(ctx, userID, subjectID)
}

func (s *ingestService) Delete(ctx context.Context, uploadID, userID uuid.UUID) error {
	upload, err := s.uploads.GetForUser(ctx, uploadID, userID)
	if err != nil {
		return err
	}
	if err := s.uploads.Delete(ctx, uploadID, userID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, upload.StorageKey); err != nil {
		// Orphaned objects are swept by the retention cleanup.
		s.logger.Warn("failed to delete stored object",
			logger.String("key", upload.StorageKey), logger.Error(err))
	}

	s.logger.Info("upload deleted",
		logger.String("upload_id", uploadID.String()))
	return nil
}

func (s *ingestService) TaskStatus(ctx context.Context, taskID string) (*queue.TaskStatus, error) {
	return s.queue.GetTaskStatus(ctx, taskID)
}

func (s *ingestService) CancelTask(ctx context.Context, taskID string) error {
	if err := s.queue.CancelTask(ctx, taskID); err != nil {
		return fmt.Errorf("cancel task: %w", err)
	}
	s.logger.Info("task cancelled", logger.String("task_id", taskID))
	return nil
}

// Cleanup removes stored objects past the retention threshold along
// with failed and soft-deleted rows. Completed rows keep their
// extracted metadata; only their source bytes age out, so a force
// reprocess past retention fails with a fetch error.
func (s *ingestService) Cleanup(ctx context.Context, threshold time.Time) error {
	if err := s.store.CleanupBefore(ctx, threshold); err != nil {
		return fmt.Errorf("cleanup stored objects: %w", err)
	}

	failed, err := s.uploads.PurgeFailedBefore(ctx, threshold)
	if err != nil {
		return fmt.Errorf("purge failed uploads: %w", err)
	}
	deleted, err := s.uploads.PurgeDeletedBefore(ctx, threshold)
	if err != nil {
		return fmt.Errorf("purge deleted uploads: %w", err)
	}

	s.logger.Info("upload cleanup finished",
		logger.Time("threshold", threshold),
		logger.Int64("failed_purged", failed),
		logger.Int64("deleted_purged", deleted),
	)
	return nil
}
