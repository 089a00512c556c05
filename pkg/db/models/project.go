package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/agencyops-backend/pkg/enums"
)

// Project is the delivery work opened when an order completes.
type Project struct {
	ID                      uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID                uuid.UUID           `gorm:"column:client_id;type:uuid;not null;index"`
	ServiceID               uuid.UUID           `gorm:"column:service_id;type:uuid;not null"`
	OrderID                 *uuid.UUID          `gorm:"column:order_id;type:uuid"`
	Name                    string              `gorm:"column:name;not null"`
	Status                  enums.ProjectStatus `gorm:"column:status;type:project_status;not null;default:'onboarding'"`
	StartDate               *time.Time          `gorm:"column:start_date;type:date"`
	EstimatedCompletionDate *time.Time          `gorm:"column:estimated_completion_date;type:date"`
	Milestones              []ProjectMilestone  `gorm:"foreignKey:ProjectID"`
	CreatedAt               time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// ProjectMilestone is owned by its project.
type ProjectMilestone struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProjectID   uuid.UUID  `gorm:"column:project_id;type:uuid;not null;index"`
	Title       string     `gorm:"column:title;not null"`
	SortOrder   int        `gorm:"column:sort_order;not null;default:0"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
