package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/pkg/logger"
)

type QuizRepo interface {
	// Create persists the quiz and any attached questions.
	Create(ctx context.Context, quiz *models.Quiz) error
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Quiz, error)
	ListForUser(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.Quiz, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type quizRepo struct {
	db     *gorm.DB
	logger logger.Logger
}

func NewQuizRepo(db *gorm.DB, log logger.Logger) QuizRepo {
	return &quizRepo{db: db, logger: log.Named("quizzes")}
}

func (r *quizRepo) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == uuid.Nil {
		quiz.ID = uuid.New()
	}
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == uuid.Nil {
			quiz.Questions[i].ID = uuid.New()
		}
		quiz.Questions[i].QuizID = quiz.ID
	}
	return r.db.WithContext(ctx).Create(quiz).Error
}

func (r *quizRepo) GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).
		Preload("Questions").
		First(&quiz, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepo) ListForUser(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.Quiz, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if subjectID != nil {
		query = query.Where("subject_id = ?", *subjectID)
	}

	var quizzes []*models.Quiz
	if err := query.Order("created_at DESC").Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *quizRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Quiz{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
