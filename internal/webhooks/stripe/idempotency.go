package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/agencyops-backend/pkg/redis"
)

// EventScope namespaces Stripe event ids in the idempotency store.
const EventScope = "stripe_event"

const (
	claimProcessing = "processing"
	claimDone       = "done"
)

// ClaimState reports what a delivery found when it claimed an event id.
type ClaimState int

const (
	// ClaimAcquired means this delivery owns the event and must Complete or
	// Release it.
	ClaimAcquired ClaimState = iota
	// ClaimInFlight means another delivery is reconciling the event now.
	ClaimInFlight
	// ClaimDone means the event was reconciled within the done TTL.
	ClaimDone
)

// EventGuard short-circuits Stripe event ids that were already reconciled.
// A claim is held as "processing" for the short in-flight TTL and only becomes
// "done" for the long TTL after Complete, so a delivery that dies mid-flight
// leaves at most a short window before Stripe's retries are processed again.
// The database keys remain the source of truth.
type EventGuard struct {
	store       redis.IdempotencyStore
	inFlightTTL time.Duration
	doneTTL     time.Duration
}

func NewEventGuard(store redis.IdempotencyStore, inFlightTTL, doneTTL time.Duration) (*EventGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if inFlightTTL <= 0 || doneTTL <= 0 {
		return nil, errors.New("ttls must be positive")
	}
	return &EventGuard{store: store, inFlightTTL: inFlightTTL, doneTTL: doneTTL}, nil
}

// Claim marks eventID as processing when nobody holds it.
func (g *EventGuard) Claim(ctx context.Context, eventID string) (ClaimState, error) {
	if eventID == "" {
		return ClaimInFlight, errors.New("event id is required")
	}
	key := g.store.IdempotencyKey(EventScope, eventID)
	claimed, err := g.store.SetNX(ctx, key, claimProcessing, g.inFlightTTL)
	if err != nil {
		return ClaimInFlight, fmt.Errorf("claim stripe event: %w", err)
	}
	if claimed {
		return ClaimAcquired, nil
	}

	val, err := g.store.Get(ctx, key)
	switch {
	case redis.IsNil(err):
		// Expired between the two calls; let Stripe retry.
		return ClaimInFlight, nil
	case err != nil:
		return ClaimInFlight, fmt.Errorf("read stripe event claim: %w", err)
	case val == claimDone:
		return ClaimDone, nil
	default:
		return ClaimInFlight, nil
	}
}

// Complete records eventID as reconciled for the done TTL.
func (g *EventGuard) Complete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	if err := g.store.Set(ctx, g.store.IdempotencyKey(EventScope, eventID), claimDone, g.doneTTL); err != nil {
		return fmt.Errorf("complete stripe event: %w", err)
	}
	return nil
}

// Release forgets eventID so a redelivery is processed again.
func (g *EventGuard) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(EventScope, eventID))
}
