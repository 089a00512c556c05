package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"usd": "$",
	"cad": "$",
	"aud": "$",
	"gbp": "£",
	"eur": "€",
}

// FormatMoney renders minor units as a fixed two-decimal amount, e.g. 149500 usd -> $1,495.00.
func FormatMoney(cents int64, currency string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	amount := decimal.New(cents, -2)

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	formatted := groupThousands(whole) + "." + frac

	if symbol, ok := currencySymbols[currency]; ok {
		return sign + symbol + formatted
	}
	if currency == "" {
		return sign + formatted
	}
	return fmt.Sprintf("%s%s %s", sign, formatted, strings.ToUpper(currency))
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

var templates = template.Must(template.New("emails").Funcs(template.FuncMap{
	"money": FormatMoney,
}).Parse(`
{{define "order_confirmation"}}<h1>Thanks for your order</h1>
<p>We received your payment of <strong>{{money .AmountCents .Currency}}</strong> for <strong>{{.ServiceName}}</strong>.</p>
<p>Your onboarding project is open. We will reach out within one business day to schedule kickoff.</p>
{{if .PortalURL}}<p><a href="{{.PortalURL}}">Open your client portal</a></p>{{end}}
<p style="color:#888">Reference: {{.SessionID}}</p>{{end}}

{{define "admin_purchase_alert"}}<h2>New purchase</h2>
<ul>
<li>Service: {{.ServiceName}}</li>
<li>Amount: {{money .AmountCents .Currency}}</li>
<li>Customer: {{.CustomerEmail}}{{if .CustomerName}} ({{.CustomerName}}){{end}}</li>
<li>Checkout session: {{.SessionID}}</li>
</ul>{{end}}

{{define "payment_failed"}}<h1>Your payment did not go through</h1>
<p>We could not collect {{if .AmountDueCents}}<strong>{{money .AmountDueCents .Currency}}</strong> {{end}}for your <strong>{{.ServiceName}}</strong> subscription.</p>
<p>Please update your payment method to keep the service running.</p>
{{if .HostedInvoiceURL}}<p><a href="{{.HostedInvoiceURL}}">Pay invoice</a></p>{{end}}{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
