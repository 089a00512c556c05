package models

import (
	"time"

	"github.com/google/uuid"
)

// Service is a catalog entry sold through Stripe checkout. Slug is the stable
// key carried in checkout metadata.
type Service struct {
	ID                   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Slug                 string    `gorm:"column:slug;not null;unique"`
	Name                 string    `gorm:"column:name;not null"`
	Description          *string   `gorm:"column:description"`
	SetupPriceCents      *int64    `gorm:"column:setup_price_cents"`
	MonthlyPriceCents    *int64    `gorm:"column:monthly_price_cents"`
	StripeSetupPriceID   *string   `gorm:"column:stripe_setup_price_id"`
	StripeMonthlyPriceID *string   `gorm:"column:stripe_monthly_price_id"`
	Active               bool      `gorm:"column:active;not null"`
	SortOrder            int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
