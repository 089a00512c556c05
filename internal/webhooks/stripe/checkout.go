package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/agencyops-backend/internal/clients"
	"github.com/angelmondragon/agencyops-backend/internal/notifications"
	"github.com/angelmondragon/agencyops-backend/pkg/db/models"
	"github.com/angelmondragon/agencyops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/agencyops-backend/pkg/errors"
)

// MetadataServiceSlug is the checkout session metadata key naming the purchased service.
const MetadataServiceSlug = "service_slug"

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) (Outcome, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil || session.ID == "" {
		return s.noop(ctx, "checkout session payload malformed")
	}
	ctx = s.logg.WithField(ctx, "checkout_session_id", session.ID)

	slug := session.Metadata[MetadataServiceSlug]
	if slug == "" {
		return s.noop(ctx, "checkout session has no service_slug metadata; not created by this system")
	}
	ctx = s.logg.WithField(ctx, "service_slug", slug)

	service, err := s.catalog.FindBySlug(ctx, slug)
	if err != nil {
		return OutcomeNoop, storeError(err, "lookup service")
	}
	if service == nil {
		s.logg.Error(ctx, "checkout references unknown service", pkgerrors.New(pkgerrors.CodeNotFound, "service not found"))
		return OutcomeNoop, nil
	}

	existing, err := s.orders.FindBySessionID(ctx, session.ID)
	if err != nil {
		return OutcomeNoop, storeError(err, "lookup order")
	}
	if existing != nil {
		s.logg.Info(ctx, "checkout session already reconciled")
		return OutcomeNoop, nil
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}

	email := checkoutEmail(&session)
	if email == "" && s.customers != nil && customerID != "" {
		email, err = s.customers.CustomerEmail(ctx, customerID)
		if err != nil {
			return OutcomeNoop, err
		}
		email = clients.NormalizeEmail(email)
	}
	if email == "" {
		err := pkgerrors.New(pkgerrors.CodeInternal, "checkout session has no customer email")
		s.logg.Error(ctx, "cannot resolve client for checkout", err)
		return OutcomeNoop, err
	}

	client, err := s.resolveClient(ctx, email, customerID, checkoutName(&session))
	if err != nil {
		return OutcomeNoop, err
	}
	ctx = s.logg.WithClientID(ctx, client.ID.String())

	amount := orderAmount(&session, service)
	currency := string(session.Currency)

	order := &models.Order{
		ClientID:                client.ID,
		ServiceID:               service.ID,
		Status:                  enums.OrderStatusPaid,
		AmountCents:             amount,
		StripeCheckoutSessionID: session.ID,
		Metadata:                session.Metadata,
	}
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		pi := session.PaymentIntent.ID
		order.StripePaymentIntentID = &pi
	}

	created := false
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		inserted, err := s.orders.WithTx(tx).CreateIfAbsent(ctx, order)
		if err != nil || !inserted {
			return err
		}
		created = true

		msg := fmt.Sprintf("Purchased %s (%s)", service.Name, notifications.FormatMoney(amount, currency))
		if _, err := s.activity.WithTx(tx).Append(ctx, client.ID, enums.ActivityTypePurchase, msg); err != nil {
			return err
		}

		orderID := order.ID
		return s.projects.WithTx(tx).Create(ctx, &models.Project{
			ClientID:  client.ID,
			ServiceID: service.ID,
			OrderID:   &orderID,
			Name:      service.Name,
			Status:    enums.ProjectStatusOnboarding,
		})
	})
	if err != nil {
		return OutcomeNoop, storeError(err, "record checkout")
	}
	if !created {
		s.logg.Info(ctx, "checkout session reconciled by a concurrent delivery")
		return OutcomeNoop, nil
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"amount_cents": amount,
	}), "checkout reconciled")

	notifyErr := s.notifier.OrderPlaced(ctx, notifications.OrderPlaced{
		CustomerEmail: email,
		CustomerName:  checkoutName(&session),
		ServiceName:   service.Name,
		SessionID:     session.ID,
		AmountCents:   amount,
		Currency:      currency,
	})
	s.reportNotificationFailures(ctx, "order_placed", notifyErr)

	return OutcomeApplied, nil
}

func (s *Service) reportNotificationFailures(ctx context.Context, kind string, err error) {
	for _, e := range multierr.Errors(err) {
		s.metrics.IncNotificationFailure(kind)
		s.logg.Warn(s.logg.WithField(ctx, "notification_error", e.Error()), "notification failed")
	}
}

func checkoutEmail(session *stripe.CheckoutSession) string {
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		return clients.NormalizeEmail(session.CustomerDetails.Email)
	}
	if session.CustomerEmail != "" {
		return clients.NormalizeEmail(session.CustomerEmail)
	}
	if session.Customer != nil && session.Customer.Email != "" {
		return clients.NormalizeEmail(session.Customer.Email)
	}
	return ""
}

func checkoutName(session *stripe.CheckoutSession) string {
	if session.CustomerDetails != nil {
		return session.CustomerDetails.Name
	}
	return ""
}

// orderAmount prefers the charged total. A zero total is treated as missing
// and falls back to the configured setup price.
func orderAmount(session *stripe.CheckoutSession, service *models.Service) int64 {
	if session.AmountTotal > 0 {
		return session.AmountTotal
	}
	if service.SetupPriceCents != nil {
		return *service.SetupPriceCents
	}
	return 0
}
