package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/agencyops-backend/pkg/enums"
)

// ActivityLogEntry is an append-only audit row shown in the client portal.
type ActivityLogEntry struct {
	ID        uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID  uuid.UUID          `gorm:"column:client_id;type:uuid;not null;index"`
	Type      enums.ActivityType `gorm:"column:type;not null"`
	Message   string             `gorm:"column:message;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (ActivityLogEntry) TableName() string {
	return "activity_log"
}
