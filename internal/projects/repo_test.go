package projects

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

func TestCreateWithMilestones(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t).DB())
	clientID := uuid.New()

	project := &models.Project{
		ClientID:  clientID,
		ServiceID: uuid.New(),
		Name:      "Google Business Profile Optimization",
		Status:    enums.ProjectStatusOnboarding,
		Milestones: []models.ProjectMilestone{
			{Title: "Kickoff call", SortOrder: 1},
			{Title: "Audit", SortOrder: 0},
		},
	}
	require.NoError(t, repo.Create(ctx, project))

	list, err := repo.ListByClient(ctx, clientID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, enums.ProjectStatusOnboarding, list[0].Status)
	assert.Nil(t, list[0].OrderID)
	require.Len(t, list[0].Milestones, 2)
	assert.Equal(t, "Audit", list[0].Milestones[0].Title)
}
