package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/agencyops-backend/pkg/enums"
)

// Profile mirrors an authenticated user. Rows are written by the auth
// provider's signup trigger; this service only reads them.
type Profile struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Email     string            `gorm:"column:email;not null"`
	FullName  *string           `gorm:"column:full_name"`
	Role      enums.ProfileRole `gorm:"column:role;not null;default:'client'"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
