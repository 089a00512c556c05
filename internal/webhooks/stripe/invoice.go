package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/agencyops-backend/internal/notifications"
	"github.com/angelmondragon/agencyops-backend/pkg/db/models"
	"github.com/angelmondragon/agencyops-backend/pkg/enums"
)

func (s *Service) handleInvoicePaymentFailed(ctx context.Context, event *stripe.Event) (Outcome, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return s.noop(ctx, "invoice payload malformed")
	}
	subID := invoiceSubscriptionID(event, &inv)
	if subID == "" {
		s.logg.Info(ctx, "failed invoice is not tied to a subscription")
		return OutcomeNoop, nil
	}
	ctx = s.logg.WithField(ctx, "stripe_subscription_id", subID)

	var (
		stored      *models.Subscription
		client      *models.Client
		serviceName string
		transition  bool
	)
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.subs.WithTx(tx)
		var err error
		transition, err = repo.MarkPastDue(ctx, subID)
		if err != nil {
			return err
		}
		stored, err = repo.FindByStripeID(ctx, subID)
		if err != nil || stored == nil {
			return err
		}
		if transition {
			if _, err := s.activity.WithTx(tx).Append(ctx, stored.ClientID, enums.ActivityTypePaymentFailed,
				"Subscription payment failed"); err != nil {
				return err
			}
		}
		// Lookups below only feed the notification; their failures must not
		// undo the status change.
		client, _ = s.clients.WithTx(tx).FindByID(ctx, stored.ClientID)
		serviceName = s.serviceName(ctx, tx, stored.ServiceID)
		return nil
	})
	if err != nil {
		return OutcomeNoop, storeError(err, "mark subscription past due")
	}
	if stored == nil {
		return s.noop(ctx, "failed invoice references unknown subscription")
	}

	outcome := OutcomeNoop
	if transition {
		outcome = OutcomeApplied
		s.logg.Info(ctx, "subscription marked past due")
	}

	if stored.Status == enums.SubscriptionStatusCancelled {
		s.logg.Info(ctx, "payment failure notification skipped: subscription cancelled")
		return outcome, nil
	}
	if client == nil || client.BusinessEmail == "" {
		s.logg.Warn(ctx, "payment failure notification skipped: client not resolvable")
		return outcome, nil
	}

	notifyErr := s.notifier.PaymentFailed(ctx, notifications.PaymentFailed{
		CustomerEmail:    client.BusinessEmail,
		ServiceName:      serviceName,
		AmountDueCents:   inv.AmountDue,
		Currency:         string(inv.Currency),
		HostedInvoiceURL: inv.HostedInvoiceURL,
	})
	s.reportNotificationFailures(ctx, "payment_failed", notifyErr)
	return outcome, nil
}

// handleInvoicePaid moves a past-due subscription back to active once Stripe
// collects the outstanding invoice.
func (s *Service) handleInvoicePaid(ctx context.Context, event *stripe.Event) (Outcome, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return s.noop(ctx, "invoice payload malformed")
	}
	subID := invoiceSubscriptionID(event, &inv)
	if subID == "" {
		return OutcomeNoop, nil
	}
	ctx = s.logg.WithField(ctx, "stripe_subscription_id", subID)

	changed, err := s.subs.MarkActiveIfPastDue(ctx, subID)
	if err != nil {
		return OutcomeNoop, storeError(err, "reactivate subscription")
	}
	if !changed {
		return OutcomeNoop, nil
	}
	s.logg.Info(ctx, fmt.Sprintf("subscription reactivated after invoice %s paid", inv.ID))
	return OutcomeApplied, nil
}

// invoiceSubscriptionID reads the subscription from the invoice parent and
// falls back to the top-level field older API versions send.
func invoiceSubscriptionID(event *stripe.Event, inv *stripe.Invoice) string {
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil &&
		inv.Parent.SubscriptionDetails.Subscription != nil {
		if id := inv.Parent.SubscriptionDetails.Subscription.ID; id != "" {
			return id
		}
	}
	if event.Data == nil {
		return ""
	}
	return event.GetObjectValue("subscription")
}
