package stripewebhook

import (
	"context"
	"strings"

	"github.com/angelmondragon/agencyops-backend/pkg/db"
	"github.com/angelmondragon/agencyops-backend/pkg/db/models"
)

// resolveClient finds or creates the client paying with email. A matching
// profile gets its user-linked client; otherwise the pending client for the
// email is reused or created. The Stripe customer id is only ever backfilled.
func (s *Service) resolveClient(ctx context.Context, email, customerID, name string) (*models.Client, error) {
	profile, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		return nil, storeError(err, "lookup profile")
	}

	var (
		client *models.Client
		find   func() (*models.Client, error)
	)
	draft := &models.Client{BusinessEmail: email}
	if customerID != "" {
		draft.StripeCustomerID = &customerID
	}
	if name = strings.TrimSpace(name); name != "" {
		draft.BusinessName = &name
	}

	if profile != nil {
		userID := profile.ID
		draft.UserID = &userID
		find = func() (*models.Client, error) { return s.clients.FindByUserID(ctx, userID) }
	} else {
		find = func() (*models.Client, error) { return s.clients.FindPendingByEmail(ctx, email) }
	}

	client, err = find()
	if err != nil {
		return nil, storeError(err, "lookup client")
	}
	if client == nil {
		client, err = s.createClient(ctx, draft, find)
		if err != nil {
			return nil, err
		}
		s.logg.Info(s.logg.WithField(ctx, "pending", client.IsPending()), "client created from checkout")
		return client, nil
	}

	if client.StripeCustomerID == nil && customerID != "" {
		changed, err := s.clients.BackfillStripeCustomerID(ctx, client.ID, customerID)
		if err != nil {
			return nil, storeError(err, "backfill stripe customer id")
		}
		if changed {
			client.StripeCustomerID = &customerID
		}
	}
	return client, nil
}

// createClient inserts draft; losing a race on the unique keys falls back to
// the row the other delivery created.
func (s *Service) createClient(ctx context.Context, draft *models.Client, find func() (*models.Client, error)) (*models.Client, error) {
	err := s.clients.Create(ctx, draft)
	if err == nil {
		return draft, nil
	}
	if !db.IsUniqueViolation(err, "") {
		return nil, storeError(err, "create client")
	}

	existing, findErr := find()
	if findErr != nil {
		return nil, storeError(findErr, "reload client")
	}
	if existing == nil {
		return nil, storeError(err, "create client")
	}
	return existing, nil
}
