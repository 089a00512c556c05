package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/agencyops-backend/pkg/mailer"
)

type recordingSender struct {
	sent   []mailer.Message
	failTo map[string]bool
}

func (r *recordingSender) Send(_ context.Context, msg mailer.Message) mailer.Result {
	r.sent = append(r.sent, msg)
	if r.failTo[msg.To[0]] {
		return mailer.Result{Err: errors.New("boom")}
	}
	return mailer.Result{ID: "email"}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,495.00", FormatMoney(149500, "usd"))
	assert.Equal(t, "£0.99", FormatMoney(99, "GBP"))
	assert.Equal(t, "1,000,000.00 JPY", FormatMoney(100000000, "jpy"))
	assert.Equal(t, "12.50", FormatMoney(1250, ""))
	assert.Equal(t, "-$5.00", FormatMoney(-500, "usd"))
}

func TestOrderPlacedSendsBothEmails(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, "ops@agency.test", "https://agency.test/portal")

	err := n.OrderPlaced(context.Background(), OrderPlaced{
		CustomerEmail: "a@b.com",
		ServiceName:   "GBP Optimization",
		SessionID:     "cs_test_1",
		AmountCents:   149500,
		Currency:      "usd",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 2)

	assert.Equal(t, []string{"a@b.com"}, sender.sent[0].To)
	assert.Contains(t, sender.sent[0].HTML, "$1,495.00")
	assert.Contains(t, sender.sent[0].HTML, "https://agency.test/portal")
	assert.Equal(t, []string{"ops@agency.test"}, sender.sent[1].To)
	assert.Equal(t, "New purchase: GBP Optimization ($1,495.00)", sender.sent[1].Subject)
}

func TestOrderPlacedIsolatesFailures(t *testing.T) {
	sender := &recordingSender{failTo: map[string]bool{"a@b.com": true, "ops@agency.test": true}}
	n := NewNotifier(sender, "ops@agency.test", "")

	err := n.OrderPlaced(context.Background(), OrderPlaced{CustomerEmail: "a@b.com", ServiceName: "SEO"})
	require.Error(t, err)
	assert.Len(t, sender.sent, 2)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestOrderPlacedSkipsAdminWithoutAddress(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, "", "")

	require.NoError(t, n.OrderPlaced(context.Background(), OrderPlaced{CustomerEmail: "a@b.com", ServiceName: "SEO"}))
	assert.Len(t, sender.sent, 1)
}

func TestPaymentFailedEscapesContent(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, "", "")

	err := n.PaymentFailed(context.Background(), PaymentFailed{
		CustomerEmail:    "a@b.com",
		ServiceName:      "<script>x</script>",
		AmountDueCents:   29900,
		Currency:         "usd",
		HostedInvoiceURL: "https://invoice.stripe.com/i/1",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.NotContains(t, sender.sent[0].HTML, "<script>")
	assert.Contains(t, sender.sent[0].HTML, "$299.00")
	assert.Contains(t, sender.sent[0].HTML, "https://invoice.stripe.com/i/1")
}
