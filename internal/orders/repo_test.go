package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/agencyops-backend/pkg/db/dbtest"
	"github.com/angelmondragon/agencyops-backend/pkg/db/models"
	"github.com/angelmondragon/agencyops-backend/pkg/enums"
)

func newOrder(clientID uuid.UUID, sessionID string, amount int64) *models.Order {
	return &models.Order{
		ClientID:                clientID,
		ServiceID:               uuid.New(),
		Status:                  enums.OrderStatusPaid,
		AmountCents:             amount,
		StripeCheckoutSessionID: sessionID,
		Metadata:                map[string]string{"service_slug": "gbp-optimization"},
	}
}

func TestCreateIfAbsentIsKeyedBySession(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t).DB())
	clientID := uuid.New()

	created, err := repo.CreateIfAbsent(ctx, newOrder(clientID, "cs_test_1", 149500))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(ctx, newOrder(clientID, "cs_test_1", 1))
	require.NoError(t, err)
	assert.False(t, created)

	stored, err := repo.FindBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(149500), stored.AmountCents)
	assert.Equal(t, enums.OrderStatusPaid, stored.Status)
	assert.Equal(t, "gbp-optimization", stored.Metadata["service_slug"])

	list, err := repo.ListByClient(ctx, clientID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFindBySessionIDMissing(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())

	order, err := repo.FindBySessionID(context.Background(), "cs_missing")
	require.NoError(t, err)
	assert.Nil(t, order)
}
