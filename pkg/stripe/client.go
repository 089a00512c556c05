package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/agencyops-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/agencyops-backend/pkg/errors"
	"github.com/angelmondragon/agencyops-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errSecretRequired   = errors.New("stripe webhook secret is required in production")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Client holds the webhook signing secret and, when an API key is configured,
// the credentials used for customer lookups.
type Client struct {
	environment   string
	signingSecret string
	apiEnabled    bool
}

// NewClient validates the Stripe configuration. Without a signing secret the
// client runs unverified, which requireSecret forbids.
func NewClient(ctx context.Context, cfg config.StripeConfig, requireSecret bool, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	signingSecret := strings.TrimSpace(cfg.WebhookSecret)
	if signingSecret == "" && requireSecret {
		return nil, errSecretRequired
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey != "" {
		if err := validateAPIKey(env, apiKey); err != nil {
			return nil, err
		}
		stripe.Key = apiKey
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"stripe_env":       env,
			"webhook_verified": signingSecret != "",
			"api_enabled":      apiKey != "",
		})
		logg.Info(ctx, "stripe client initialized")
	}

	return &Client{
		environment:   env,
		signingSecret: signingSecret,
		apiEnabled:    apiKey != "",
	}, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// Verifies reports whether webhook payloads are signature checked.
func (c *Client) Verifies() bool {
	return c != nil && c.signingSecret != ""
}

// ConstructEvent verifies the Stripe-Signature header and decodes the event.
// Without a signing secret the payload is decoded as-is.
func (c *Client) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	if !c.Verifies() {
		var event stripe.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return stripe.Event{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode stripe event")
		}
		return event, nil
	}

	if strings.TrimSpace(sigHeader) == "" {
		return stripe.Event{}, pkgerrors.New(pkgerrors.CodeInvalidSignature, "stripe signature missing")
	}
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, c.signingSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, pkgerrors.Wrap(pkgerrors.CodeInvalidSignature, err, "verify stripe signature")
	}
	return event, nil
}

// CustomerEmail fetches the email on a Stripe customer. It returns "" without
// error when no API key is configured.
func (c *Client) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	if c == nil || !c.apiEnabled || customerID == "" {
		return "", nil
	}
	params := &stripe.CustomerParams{}
	params.Context = ctx
	cust, err := customer.Get(customerID, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe customer")
	}
	if cust == nil || cust.Deleted {
		return "", nil
	}
	return cust.Email, nil
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	prefixes := map[string][]string{
		testEnv: {"sk_test", "rk_test"},
		liveEnv: {"sk_live", "rk_live"},
	}
	for _, prefix := range prefixes[env] {
		if strings.HasPrefix(key, prefix) {
			return nil
		}
	}
	return fmt.Errorf("stripe environment %q requires a %s secret key", env, env)
}
