package projects

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/agencyops-backend/pkg/db/models"
)

// Repository persists delivery projects.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, project *models.Project) error
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Project, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the project together with any milestones attached to it.
func (r *repository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	for i := range project.Milestones {
		if project.Milestones[i].ID == uuid.Nil {
			project.Milestones[i].ID = uuid.New()
		}
		project.Milestones[i].ProjectID = project.ID
	}
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}
