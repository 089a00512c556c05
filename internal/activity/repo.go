package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/agencyops-backend/pkg/db/models"
	"github.com/angelmondragon/agencyops-backend/pkg/enums"
)

// Repository appends to and reads the client activity log. Entries are never
// updated or deleted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, clientID uuid.UUID, kind enums.ActivityType, message string) (*models.ActivityLogEntry, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]models.ActivityLogEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an activity log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, clientID uuid.UUID, kind enums.ActivityType, message string) (*models.ActivityLogEntry, error) {
	entry := &models.ActivityLogEntry{
		ID:        uuid.New(),
		ClientID:  clientID,
		Type:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *repository) ListByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]models.ActivityLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []models.ActivityLogEntry
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
