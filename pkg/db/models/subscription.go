package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/agencyops-backend/pkg/enums"
)

// Subscription persists Stripe subscription state per client and service.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID             uuid.UUID                `gorm:"column:client_id;type:uuid;not null;index"`
	ServiceID            uuid.UUID                `gorm:"column:service_id;type:uuid;not null"`
	StripeSubscriptionID string                   `gorm:"column:stripe_subscription_id;not null;unique"`
	Status               enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'active'"`
	CurrentPeriodStart   *time.Time               `gorm:"column:current_period_start"`
	CurrentPeriodEnd     *time.Time               `gorm:"column:current_period_end"`
	CancelledAt          *time.Time               `gorm:"column:cancelled_at"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
