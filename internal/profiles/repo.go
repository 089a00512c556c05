package profiles

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/agencyops-backend/pkg/db/models"
)

// Repository reads the profiles mirrored from the auth provider.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// FindByEmail matches case-insensitively; signup and checkout forms do not
// agree on casing.
func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var profile models.Profile
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", email).
		Order("created_at ASC").
		First(&profile).Error
	return found(&profile, err)
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	return found(&profile, err)
}

func found(p *models.Profile, err error) (*models.Profile, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
