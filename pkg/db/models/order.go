package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/agencyops-backend/pkg/enums"
)

// Order records one completed checkout session.
type Order struct {
	ID                      uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID                uuid.UUID         `gorm:"column:client_id;type:uuid;not null;index"`
	ServiceID               uuid.UUID         `gorm:"column:service_id;type:uuid;not null"`
	Status                  enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	AmountCents             int64             `gorm:"column:amount_cents;not null"`
	StripeCheckoutSessionID string            `gorm:"column:stripe_checkout_session_id;not null;unique"`
	StripePaymentIntentID   *string           `gorm:"column:stripe_payment_intent_id"`
	Metadata                map[string]string `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt               time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
