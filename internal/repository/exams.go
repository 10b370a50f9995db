package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/pkg/logger"
)

type ExamRepo interface {
	// Create persists the exam and any attached questions.
	Create(ctx context.Context, exam *models.Exam) error
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Exam, error)
	ListForUser(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.Exam, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type examRepo struct {
	db     *gorm.DB
	logger logger.Logger
}

func NewExamRepo(db *gorm.DB, log logger.Logger) ExamRepo {
	return &examRepo{db: db, logger: log.Named("exams")}
}

func (r *examRepo) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == uuid.Nil {
		exam.ID = uuid.New()
	}
	for i := range exam.Questions {
		if exam.Questions[i].ID == uuid.Nil {
			exam.Questions[i].ID = uuid.New()
		}
		exam.Questions[i].ExamID = exam.ID
	}
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepo) GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Exam, error) {
	var exam models.Exam
	if err := r.db.WithContext(ctx).
		Preload("Questions").
		First(&exam, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepo) ListForUser(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.Exam, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if subjectID != nil {
		query = query.Where("subject_id = ?", *subjectID)
	}

	var exams []*models.Exam
	if err := query.Order("created_at DESC").Find(&exams).Error; err != nil {
		return nil, err
	}
	return exams, nil
}

func (r *examRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Exam{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
