package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/agencyops-backend/pkg/db/models"
)

// Repository reads and maintains the service catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBySlug(ctx context.Context, slug string) (*models.Service, error)
	FindByMonthlyPriceID(ctx context.Context, priceID string) (*models.Service, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	ListActive(ctx context.Context) ([]models.Service, error)
	UpsertBySlug(ctx context.Context, service *models.Service) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Service, error) {
	return r.findOne(ctx, "slug = ?", slug)
}

// FindByMonthlyPriceID resolves the service billed by a recurring Stripe price.
func (r *repository) FindByMonthlyPriceID(ctx context.Context, priceID string) (*models.Service, error) {
	if priceID == "" {
		return nil, nil
	}
	return r.findOne(ctx, "stripe_monthly_price_id = ?", priceID)
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) ListActive(ctx context.Context) ([]models.Service, error) {
	var services []models.Service
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

// UpsertBySlug inserts the service or refreshes every column except id and
// slug on the row that already owns the slug.
func (r *repository) UpsertBySlug(ctx context.Context, service *models.Service) error {
	if service.ID == uuid.Nil {
		service.ID = uuid.New()
	}
	service.UpdatedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"description",
				"setup_price_cents",
				"monthly_price_cents",
				"stripe_setup_price_id",
				"stripe_monthly_price_id",
				"active",
				"sort_order",
				"updated_at",
			}),
		}).
		Create(service).Error
	if err != nil {
		return err
	}
	// On conflict the generated id was discarded; load the stored row.
	return r.db.WithContext(ctx).Where("slug = ?", service.Slug).First(service).Error
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*models.Service, error) {
	var service models.Service
	err := r.db.WithContext(ctx).Where(query, arg).First(&service).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &service, nil
}
