package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/pkg/logger"
)

type ConceptMapRepo interface {
	// Create persists the bare map row without nodes or connections.
	Create(ctx context.Context, conceptMap *models.ConceptMap) error
	// CreateNodes batch-inserts nodes that already carry database IDs.
	CreateNodes(ctx context.Context, nodes []*models.ConceptNode) error
	// CreateConnections batch-inserts connections between persisted nodes.
	CreateConnections(ctx context.Context, connections []*models.ConceptConnection) error
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.ConceptMap, error)
	ListForUser(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.ConceptMap, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type conceptMapRepo struct {
	db     *gorm.DB
	logger logger.Logger
}

func NewConceptMapRepo(db *gorm.DB, log logger.Logger) ConceptMapRepo {
	return &conceptMapRepo{db: db, logger: log.Named("conceptmaps")}
}

func (r *conceptMapRepo) Create(ctx context.Context, conceptMap *models.ConceptMap) error {
	if conceptMap.ID == uuid.Nil {
		conceptMap.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit("Nodes", "Edges").Create(conceptMap).Error
}

func (r *conceptMapRepo) CreateNodes(ctx context.Context, nodes []*models.ConceptNode) error {
	if len(nodes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(nodes).Error
}

func (r *conceptMapRepo) CreateConnections(ctx context.Context, connections []*models.ConceptConnection) error {
	if len(connections) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(connections).Error
}

func (r *conceptMapRepo) GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.ConceptMap, error) {
	var conceptMap models.ConceptMap
	if err := r.db.WithContext(ctx).
		Preload("Nodes").
		Preload("Edges").
		First(&conceptMap, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &conceptMap, nil
}

func (r *conceptMapRepo) ListForUser(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.ConceptMap, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if subjectID != nil {
		query = query.Where("subject_id = ?", *subjectID)
	}

	var maps []*models.ConceptMap
	if err := query.Order("created_at DESC").Find(&maps).Error; err != nil {
		return nil, err
	}
	return maps, nil
}

func (r *conceptMapRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.ConceptMap{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
