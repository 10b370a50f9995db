package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/pkg/logger"
)

type UploadRepo interface {
	Create(ctx context.Context, upload *models.Upload) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Upload, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Upload, error)
	ListForUser(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.Upload, error)
	ListByIDsForUser(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]*models.Upload, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, processErr string) error
	ReplaceProcessingResult(ctx context.Context, id uuid.UUID, extraction *models.ExtractionResult, content *models.ContentMetadata) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	PurgeFailedBefore(ctx context.Context, threshold time.Time) (int64, error)
	PurgeDeletedBefore(ctx context.Context, threshold time.Time) (int64, error)
}

type uploadRepo struct {
	db     *gorm.DB
	logger logger.Logger
}

func NewUploadRepo(db *gorm.DB, log logger.Logger) UploadRepo {
	return &uploadRepo{db: db, logger: log.Named("uploads")}
}

func (r *uploadRepo) Create(ctx context.Context, upload *models.Upload) error {
	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(upload).Error
}

func (r *uploadRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Upload, error) {
	var upload models.Upload
	if err := r.db.WithContext(ctx).First(&upload, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &upload, nil
}

func (r *uploadRepo) GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Upload, error) {
	var upload models.Upload
	if err := r.db.WithContext(ctx).
		First(&upload, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &upload, nil
}

func (r *uploadRepo) ListForUser(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.Upload, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if subjectID != nil {
		query = query.Where("subject_id = ?", *subjectID)
	}

	var uploads []*models.Upload
	if err := query.Order("created_at DESC").Find(&uploads).Error; err != nil {
		return nil, err
	}
	return uploads, nil
}

func (r *uploadRepo) ListByIDsForUser(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]*models.Upload, error) {
	var uploads []*models.Upload
	if len(ids) == 0 {
		return uploads, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND user_id = ?", ids, userID).
		Find(&uploads).Error; err != nil {
		return nil, err
	}
	return uploads, nil
}

// MarkProcessing opens a new processing attempt, clearing any previous
// error.
func (r *uploadRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Upload{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": models.StatusProcessing,
			"error":  nil,
		}).Error
}

// MarkFailed closes the attempt as failed, storing the error text
// verbatim and clearing every metadata column in the same statement so
// no field survives from an earlier attempt.
func (r *uploadRepo) MarkFailed(ctx context.Context, id uuid.UUID, processErr string) error {
	return r.db.WithContext(ctx).Model(&models.Upload{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":           models.StatusFailed,
			"error":            processErr,
			"extracted_text":   nil,
			"page_count":       nil,
			"duration_seconds": nil,
			"width":            nil,
			"height":           nil,
			"summary":          nil,
			"keywords":         nil,
			"language":         nil,
			"processed_at":     nil,
		}).Error
}

// ReplaceProcessingResult closes the attempt as completed. Every
// metadata column is written in one UPDATE, absent fields as NULL, so
// the stored record always reflects exactly one attempt.
func (r *uploadRepo) ReplaceProcessingResult(ctx context.Context, id uuid.UUID, extraction *models.ExtractionResult, content *models.ContentMetadata) error {
	if extraction == nil {
		return fmt.Errorf("replace processing result: nil extraction")
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":           models.StatusCompleted,
		"error":            nil,
		"extracted_text":   extraction.Text,
		"page_count":       extraction.PageCount,
		"duration_seconds": extraction.DurationSeconds,
		"width":            nil,
		"height":           nil,
		"summary":          nil,
		"keywords":         nil,
		"language":         nil,
		"processed_at":     now,
	}
	if extraction.Dimensions != nil {
		updates["width"] = extraction.Dimensions.Width
		updates["height"] = extraction.Dimensions.Height
	}
	if content != nil {
		keywords := content.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		encoded, err := json.Marshal(keywords)
		if err != nil {
			return fmt.Errorf("marshal keywords: %w", err)
		}
		updates["summary"] = content.Summary
		updates["keywords"] = datatypes.JSON(encoded)
		updates["language"] = content.Language
	}

	return r.db.WithContext(ctx).Model(&models.Upload{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *uploadRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Upload{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PurgeFailedBefore hard-deletes failed rows whose last attempt is past
// the retention window.
func (r *uploadRepo) PurgeFailedBefore(ctx context.Context, threshold time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Unscoped().
		Where("status = ? AND updated_at < ?", models.StatusFailed, threshold).
		Delete(&models.Upload{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		r.logger.Info("purged failed uploads", logger.Int64("rows", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// PurgeDeletedBefore hard-deletes soft-deleted rows past the retention
// window.
func (r *uploadRepo) PurgeDeletedBefore(ctx context.Context, threshold time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", threshold).
		Delete(&models.Upload{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		r.logger.Info("purged deleted uploads", logger.Int64("rows", result.RowsAffected))
	}
	return result.RowsAffected, nil
}
