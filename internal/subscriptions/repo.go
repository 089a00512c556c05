package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/agencyops-backend/pkg/db/models"
	"github.com/angelmondragon/agencyops-backend/pkg/enums"
)

// Repository persists subscriptions keyed by their Stripe subscription id.
// A cancelled subscription never leaves that state through this repository.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	MarkCancelled(ctx context.Context, stripeSubscriptionID string, at time.Time) (bool, error)
	MarkPastDue(ctx context.Context, stripeSubscriptionID string) (bool, error)
	MarkActiveIfPastDue(ctx context.Context, stripeSubscriptionID string) (bool, error)
	FindByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)
	ListByStatus(ctx context.Context, status *enums.SubscriptionStatus, limit int) ([]models.Subscription, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscriptions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert inserts or refreshes the row for sub.StripeSubscriptionID and returns
// the stored state. An existing cancelled row keeps its status.
func (r *repository) Upsert(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	now := time.Now().UTC()
	sub.UpdatedAt = now
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_subscription_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status": gorm.Expr(
					"CASE WHEN subscriptions.status = ? THEN subscriptions.status ELSE excluded.status END",
					enums.SubscriptionStatusCancelled,
				),
				"client_id":            gorm.Expr("excluded.client_id"),
				"service_id":           gorm.Expr("excluded.service_id"),
				"current_period_start": gorm.Expr("excluded.current_period_start"),
				"current_period_end":   gorm.Expr("excluded.current_period_end"),
				"updated_at":           gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(sub).Error
	if err != nil {
		return nil, err
	}
	return r.FindByStripeID(ctx, sub.StripeSubscriptionID)
}

func (r *repository) MarkCancelled(ctx context.Context, stripeSubscriptionID string, at time.Time) (bool, error) {
	return r.transition(ctx, stripeSubscriptionID,
		"status <> ?", enums.SubscriptionStatusCancelled,
		map[string]any{
			"status":       enums.SubscriptionStatusCancelled,
			"cancelled_at": at.UTC(),
		})
}

// MarkPastDue reports false when the row is unknown, cancelled or already past due.
func (r *repository) MarkPastDue(ctx context.Context, stripeSubscriptionID string) (bool, error) {
	return r.transition(ctx, stripeSubscriptionID,
		"status NOT IN ?", []enums.SubscriptionStatus{enums.SubscriptionStatusCancelled, enums.SubscriptionStatusPastDue},
		map[string]any{"status": enums.SubscriptionStatusPastDue})
}

func (r *repository) MarkActiveIfPastDue(ctx context.Context, stripeSubscriptionID string) (bool, error) {
	return r.transition(ctx, stripeSubscriptionID,
		"status = ?", enums.SubscriptionStatusPastDue,
		map[string]any{"status": enums.SubscriptionStatusActive})
}

func (r *repository) transition(ctx context.Context, stripeSubscriptionID, guard string, guardArg any, updates map[string]any) (bool, error) {
	if stripeSubscriptionID == "" {
		return false, nil
	}
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Where(guard, guardArg).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByStatus returns the newest subscriptions first; a nil status lists all.
func (r *repository) ListByStatus(ctx context.Context, status *enums.SubscriptionStatus, limit int) ([]models.Subscription, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Model(&models.Subscription{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var subs []models.Subscription
	if err := q.Order("updated_at DESC").Limit(limit).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
