package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is the business record that owns orders, projects, subscriptions and
// activity. A nil UserID marks a pending client created by a purchase made
// before the buyer signed up.
type Client struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           *uuid.UUID `gorm:"column:user_id;type:uuid;unique"`
	StripeCustomerID *string    `gorm:"column:stripe_customer_id"`
	BusinessEmail    string     `gorm:"column:business_email;not null"`
	BusinessName     *string    `gorm:"column:business_name"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsPending reports whether the client is not yet linked to a user.
func (c *Client) IsPending() bool {
	return c != nil && c.UserID == nil
}
