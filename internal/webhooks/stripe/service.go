package stripewebhook

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/agencyops-backend/internal/activity"
	"github.com/angelmondragon/agencyops-backend/internal/catalog"
	"github.com/angelmondragon/agencyops-backend/internal/clients"
	"github.com/angelmondragon/agencyops-backend/internal/notifications"
	"github.com/angelmondragon/agencyops-backend/internal/orders"
	"github.com/angelmondragon/agencyops-backend/internal/profiles"
	"github.com/angelmondragon/agencyops-backend/internal/projects"
	"github.com/angelmondragon/agencyops-backend/internal/subscriptions"
	pkgerrors "github.com/angelmondragon/agencyops-backend/pkg/errors"
	"github.com/angelmondragon/agencyops-backend/pkg/logger"
	"github.com/angelmondragon/agencyops-backend/pkg/metrics"
)

// Outcome describes what reconciling one event did to stored state.
type Outcome string

const (
	OutcomeApplied Outcome = metrics.OutcomeApplied
	OutcomeNoop    Outcome = metrics.OutcomeNoop
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	OrderPlaced(ctx context.Context, evt notifications.OrderPlaced) error
	PaymentFailed(ctx context.Context, evt notifications.PaymentFailed) error
}

type customerLookup interface {
	CustomerEmail(ctx context.Context, customerID string) (string, error)
}

type ServiceParams struct {
	Catalog           catalog.Repository
	Clients           clients.Repository
	Profiles          profiles.Repository
	Orders            orders.Repository
	Projects          projects.Repository
	Subscriptions     subscriptions.Repository
	Activity          activity.Repository
	TransactionRunner txRunner
	Notifier          notifier
	// Customers is optional; it recovers the buyer email when a session omits it.
	Customers customerLookup
	Metrics   *metrics.WebhookMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

// Service reconciles Stripe events into clients, orders, projects,
// subscriptions and the activity log. Every handler is safe to replay.
type Service struct {
	catalog   catalog.Repository
	clients   clients.Repository
	profiles  profiles.Repository
	orders    orders.Repository
	projects  projects.Repository
	subs      subscriptions.Repository
	activity  activity.Repository
	txRunner  txRunner
	notifier  notifier
	customers customerLookup
	metrics   *metrics.WebhookMetrics
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	required := map[string]bool{
		"catalog repo":       params.Catalog != nil,
		"clients repo":       params.Clients != nil,
		"profiles repo":      params.Profiles != nil,
		"orders repo":        params.Orders != nil,
		"projects repo":      params.Projects != nil,
		"subscriptions repo": params.Subscriptions != nil,
		"activity repo":      params.Activity != nil,
		"transaction runner": params.TransactionRunner != nil,
		"notifier":           params.Notifier != nil,
	}
	for name, ok := range required {
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, name+" required")
		}
	}

	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		catalog:   params.Catalog,
		clients:   params.Clients,
		profiles:  params.Profiles,
		orders:    params.Orders,
		projects:  params.Projects,
		subs:      params.Subscriptions,
		activity:  params.Activity,
		txRunner:  params.TransactionRunner,
		notifier:  params.Notifier,
		customers: params.Customers,
		metrics:   params.Metrics,
		logg:      logg,
		now:       now,
	}, nil
}

// HandleEvent applies the state change implied by event. Missing references
// and malformed payloads are logged no-ops; only store failures return an
// error, so Stripe redelivers the event.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (Outcome, error) {
	if event == nil {
		return OutcomeNoop, pkgerrors.New(pkgerrors.CodeValidation, "stripe event required")
	}
	ctx = s.logg.WithEvent(ctx, event.ID, string(event.Type))

	if event.Data == nil || len(event.Data.Raw) == 0 {
		s.logg.Warn(ctx, "stripe event without data object ignored")
		return OutcomeNoop, nil
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case stripe.EventTypeCustomerSubscriptionCreated, stripe.EventTypeCustomerSubscriptionUpdated:
		return s.handleSubscriptionChanged(ctx, event)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	case stripe.EventTypeInvoicePaymentFailed:
		return s.handleInvoicePaymentFailed(ctx, event)
	case stripe.EventTypeInvoicePaid:
		return s.handleInvoicePaid(ctx, event)
	default:
		s.logg.Info(ctx, "unhandled stripe event type")
		return OutcomeNoop, nil
	}
}

func (s *Service) noop(ctx context.Context, msg string) (Outcome, error) {
	s.logg.Warn(ctx, msg)
	return OutcomeNoop, nil
}

func storeError(err error, msg string) error {
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
