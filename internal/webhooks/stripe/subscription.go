package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/agencyops-backend/pkg/db/models"
	"github.com/angelmondragon/agencyops-backend/pkg/enums"
)

func (s *Service) handleSubscriptionChanged(ctx context.Context, event *stripe.Event) (Outcome, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil || sub.ID == "" {
		return s.noop(ctx, "subscription payload malformed")
	}
	ctx = s.logg.WithField(ctx, "stripe_subscription_id", sub.ID)

	if sub.Customer == nil || sub.Customer.ID == "" {
		return s.noop(ctx, "subscription has no customer")
	}
	client, err := s.clients.FindByStripeCustomerID(ctx, sub.Customer.ID)
	if err != nil {
		return OutcomeNoop, storeError(err, "lookup client by customer")
	}
	if client == nil {
		return s.noop(s.logg.WithField(ctx, "stripe_customer_id", sub.Customer.ID), "subscription for unknown stripe customer")
	}
	ctx = s.logg.WithClientID(ctx, client.ID.String())

	priceID := recurringPriceID(&sub)
	service, err := s.catalog.FindByMonthlyPriceID(ctx, priceID)
	if err != nil {
		return OutcomeNoop, storeError(err, "lookup service by price")
	}
	if service == nil {
		return s.noop(s.logg.WithField(ctx, "price_id", priceID), "subscription price matches no service")
	}

	start, end := periodBounds(&sub)
	status := deriveStatus(&sub)

	var stored *models.Subscription
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.subs.WithTx(tx)
		prior, err := repo.FindByStripeID(ctx, sub.ID)
		if err != nil {
			return err
		}
		stored, err = repo.Upsert(ctx, &models.Subscription{
			ClientID:             client.ID,
			ServiceID:            service.ID,
			StripeSubscriptionID: sub.ID,
			Status:               status,
			CurrentPeriodStart:   start,
			CurrentPeriodEnd:     end,
		})
		if err != nil || prior != nil {
			return err
		}
		_, err = s.activity.WithTx(tx).Append(ctx, client.ID, enums.ActivityTypeSubscription,
			fmt.Sprintf("Subscription started: %s", service.Name))
		return err
	})
	if err != nil {
		return OutcomeNoop, storeError(err, "upsert subscription")
	}

	s.logg.Info(s.logg.WithField(ctx, "status", string(stored.Status)), "subscription reconciled")
	return OutcomeApplied, nil
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) (Outcome, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil || sub.ID == "" {
		return s.noop(ctx, "subscription payload malformed")
	}
	ctx = s.logg.WithField(ctx, "stripe_subscription_id", sub.ID)

	at := s.now().UTC()
	if sub.CanceledAt > 0 {
		at = time.Unix(sub.CanceledAt, 0).UTC()
	}

	changed := false
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.subs.WithTx(tx)
		var err error
		changed, err = repo.MarkCancelled(ctx, sub.ID, at)
		if err != nil || !changed {
			return err
		}
		stored, err := repo.FindByStripeID(ctx, sub.ID)
		if err != nil || stored == nil {
			return err
		}
		_, err = s.activity.WithTx(tx).Append(ctx, stored.ClientID, enums.ActivityTypeSubscription,
			fmt.Sprintf("Subscription cancelled: %s", s.serviceName(ctx, tx, stored.ServiceID)))
		return err
	})
	if err != nil {
		return OutcomeNoop, storeError(err, "cancel subscription")
	}
	if !changed {
		s.logg.Info(ctx, "subscription unknown or already cancelled")
		return OutcomeNoop, nil
	}

	s.logg.Info(ctx, "subscription cancelled")
	return OutcomeApplied, nil
}

// deriveStatus checks active and past_due before a scheduled cancellation, so
// an active subscription set to cancel at period end stays active until Stripe
// reports otherwise.
func deriveStatus(sub *stripe.Subscription) enums.SubscriptionStatus {
	switch {
	case sub.Status == stripe.SubscriptionStatusActive:
		return enums.SubscriptionStatusActive
	case sub.Status == stripe.SubscriptionStatusPastDue:
		return enums.SubscriptionStatusPastDue
	case sub.CancelAtPeriodEnd, sub.Status == stripe.SubscriptionStatusCanceled:
		return enums.SubscriptionStatusCancelled
	case sub.Status == stripe.SubscriptionStatusPaused:
		return enums.SubscriptionStatusPaused
	default:
		return enums.SubscriptionStatusActive
	}
}

func recurringPriceID(sub *stripe.Subscription) string {
	if sub.Items == nil {
		return ""
	}
	for _, item := range sub.Items.Data {
		if item != nil && item.Price != nil && item.Price.ID != "" {
			return item.Price.ID
		}
	}
	return ""
}

// periodBounds reads the billing period from the first item; Stripe moved the
// period fields from the subscription onto its items.
func periodBounds(sub *stripe.Subscription) (*time.Time, *time.Time) {
	if sub.Items == nil {
		return nil, nil
	}
	for _, item := range sub.Items.Data {
		if item == nil || item.CurrentPeriodEnd == 0 {
			continue
		}
		return unixPtr(item.CurrentPeriodStart), unixPtr(item.CurrentPeriodEnd)
	}
	return nil, nil
}

func unixPtr(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

// serviceName is best effort; it only decorates log and activity text.
func (s *Service) serviceName(ctx context.Context, tx *gorm.DB, id uuid.UUID) string {
	service, err := s.catalog.WithTx(tx).FindByID(ctx, id)
	if err != nil || service == nil {
		return "service"
	}
	return service.Name
}
