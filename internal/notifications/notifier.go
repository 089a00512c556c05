package notifications

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/agencyops-backend/pkg/mailer"
)

// OrderPlaced carries what the purchase emails need.
type OrderPlaced struct {
	CustomerEmail string
	CustomerName  string
	ServiceName   string
	SessionID     string
	AmountCents   int64
	Currency      string
	PortalURL     string
}

// PaymentFailed carries what the dunning email needs.
type PaymentFailed struct {
	CustomerEmail    string
	ServiceName      string
	AmountDueCents   int64
	Currency         string
	HostedInvoiceURL string
}

// Notifier sends the reconciler's transactional emails. Each email is sent
// independently; a failed one never prevents the next.
type Notifier struct {
	sender     mailer.Sender
	adminEmail string
	portalURL  string
}

func NewNotifier(sender mailer.Sender, adminEmail, portalURL string) *Notifier {
	return &Notifier{sender: sender, adminEmail: adminEmail, portalURL: portalURL}
}

// OrderPlaced sends the customer confirmation and the admin alert and returns
// every failure combined.
func (n *Notifier) OrderPlaced(ctx context.Context, evt OrderPlaced) error {
	if evt.PortalURL == "" {
		evt.PortalURL = n.portalURL
	}

	var errs error
	errs = multierr.Append(errs, n.send(ctx, "order_confirmation", evt.CustomerEmail,
		fmt.Sprintf("Order confirmed: %s", evt.ServiceName), evt))

	if n.adminEmail != "" {
		errs = multierr.Append(errs, n.send(ctx, "admin_purchase_alert", n.adminEmail,
			fmt.Sprintf("New purchase: %s (%s)", evt.ServiceName, FormatMoney(evt.AmountCents, evt.Currency)), evt))
	}
	return errs
}

func (n *Notifier) PaymentFailed(ctx context.Context, evt PaymentFailed) error {
	return n.send(ctx, "payment_failed", evt.CustomerEmail,
		fmt.Sprintf("Action needed: payment failed for %s", evt.ServiceName), evt)
}

func (n *Notifier) send(ctx context.Context, kind, to, subject string, data any) error {
	html, err := render(kind, data)
	if err != nil {
		return err
	}
	res := n.sender.Send(ctx, mailer.Message{
		To:      []string{to},
		Subject: subject,
		HTML:    html,
		Tags:    map[string]string{"kind": kind},
	})
	if !res.Success() {
		return fmt.Errorf("%s to %s: %w", kind, to, res.Err)
	}
	return nil
}
