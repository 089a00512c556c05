package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/agencyops-backend/api/responses"
	stripewebhook "github.com/angelmondragon/agencyops-backend/internal/webhooks/stripe"
	pkgerrors "github.com/angelmondragon/agencyops-backend/pkg/errors"
	"github.com/angelmondragon/agencyops-backend/pkg/logger"
	"github.com/angelmondragon/agencyops-backend/pkg/metrics"
)

// DefaultMaxBodyBytes caps webhook payloads; Stripe events are well below it.
const DefaultMaxBodyBytes int64 = 1 << 20

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) (stripewebhook.Outcome, error)
}

type eventVerifier interface {
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
	Verifies() bool
}

type eventGuard interface {
	Claim(ctx context.Context, eventID string) (stripewebhook.ClaimState, error)
	Complete(ctx context.Context, eventID string) error
	Release(ctx context.Context, eventID string) error
}

type StripeWebhookParams struct {
	Service  StripeWebhookService
	Verifier eventVerifier
	// Guard is optional; without it every delivery reaches the service.
	Guard        eventGuard
	Metrics      *metrics.WebhookMetrics
	Logger       *logger.Logger
	MaxBodyBytes int64
}

type ackResponse struct {
	Received bool `json:"received"`
}

// StripeWebhook verifies and reconciles Stripe payment events. Handled and
// ignored events are acknowledged with 200; bad signatures get 400, an event
// still in flight on another delivery gets 409 and internal failures get 5xx,
// so Stripe retries everything that was not reconciled.
func StripeWebhook(params StripeWebhookParams) http.HandlerFunc {
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	maxBytes := params.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()

		if params.Service == nil || params.Verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe webhook not configured"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payload too large"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if !params.Verifier.Verifies() {
			logg.Warn(ctx, "STRIPE WEBHOOK SIGNATURE VERIFICATION DISABLED: no signing secret configured, payload accepted unverified")
		}

		event, err := params.Verifier.ConstructEvent(payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			params.Metrics.ObserveEvent("unknown", metrics.OutcomeRejected, time.Since(start))
			responses.WriteError(ctx, logg, w, err)
			return
		}
		eventType := string(event.Type)
		ctx = logg.WithEvent(ctx, event.ID, eventType)

		owned := false
		if params.Guard != nil && event.ID != "" {
			state, err := params.Guard.Claim(ctx, event.ID)
			switch {
			case err != nil:
				// The database keys still make the replay safe.
				logg.Warn(logg.WithField(ctx, "guard_error", err.Error()), "event guard unavailable, processing anyway")
			case state == stripewebhook.ClaimDone:
				params.Metrics.ObserveEvent(eventType, metrics.OutcomeDuplicate, time.Since(start))
				logg.Info(ctx, "stripe event already processed")
				responses.WriteJSON(w, http.StatusOK, ackResponse{Received: true})
				return
			case state == stripewebhook.ClaimInFlight:
				params.Metrics.ObserveEvent(eventType, metrics.OutcomeInFlight, time.Since(start))
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "stripe event is still being processed"))
				return
			default:
				owned = true
			}
		}

		completed := false
		if owned {
			// Runs on errors and panics alike. The request context may already
			// be cancelled, so the release is detached from it.
			defer func() {
				if completed {
					return
				}
				if err := params.Guard.Release(context.WithoutCancel(ctx), event.ID); err != nil {
					logg.Warn(logg.WithField(ctx, "guard_error", err.Error()), "release event guard failed")
				}
			}()
		}

		outcome, err := params.Service.HandleEvent(ctx, &event)
		if err != nil {
			params.Metrics.ObserveEvent(eventType, metrics.OutcomeFailed, time.Since(start))
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if owned {
			if err := params.Guard.Complete(context.WithoutCancel(ctx), event.ID); err != nil {
				logg.Warn(logg.WithField(ctx, "guard_error", err.Error()), "complete event guard failed")
			} else {
				completed = true
			}
		}

		params.Metrics.ObserveEvent(eventType, string(outcome), time.Since(start))
		responses.WriteJSON(w, http.StatusOK, ackResponse{Received: true})
	}
}
