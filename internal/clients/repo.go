package clients

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/agencyops-backend/pkg/db/models"
)

// PendingEmailConstraint guards one pending client per business email.
const PendingEmailConstraint = "clients_pending_business_email_key"

// Repository persists clients.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Client, error)
	FindPendingByEmail(ctx context.Context, email string) (*models.Client, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	BackfillStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a client repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	return r.findOne(ctx, r.db.Where("id = ?", id))
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Client, error) {
	return r.findOne(ctx, r.db.Where("user_id = ?", userID))
}

// FindPendingByEmail only matches clients that are not linked to a user yet.
func (r *repository) FindPendingByEmail(ctx context.Context, email string) (*models.Client, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return r.findOne(ctx, r.db.Where("business_email = ? AND user_id IS NULL", email))
}

func (r *repository) FindByStripeCustomerID(ctx context.Context, customerID string) (*models.Client, error) {
	if customerID == "" {
		return nil, nil
	}
	return r.findOne(ctx, r.db.Where("stripe_customer_id = ?", customerID).Order("created_at ASC"))
}

func (r *repository) Create(ctx context.Context, client *models.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	client.BusinessEmail = NormalizeEmail(client.BusinessEmail)
	return r.db.WithContext(ctx).Create(client).Error
}

// BackfillStripeCustomerID sets the customer id only while the column is still
// null and reports whether a row changed.
func (r *repository) BackfillStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) (bool, error) {
	if customerID == "" {
		return false, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ? AND stripe_customer_id IS NULL", id).
		Updates(map[string]any{
			"stripe_customer_id": customerID,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) findOne(ctx context.Context, q *gorm.DB) (*models.Client, error) {
	var client models.Client
	err := q.WithContext(ctx).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// NormalizeEmail is the canonical form stored in business_email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
