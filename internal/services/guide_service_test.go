package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourdesk/travel-backend/internal/models"
)

func TestListTourGuides(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, models.RoleUser, true)
	first := env.addUser(t, models.RoleAgent, true)
	env.addUser(t, models.RoleAgent, false)
	env.addUser(t, models.RoleAgent, true)
	env.addRequest(t, owner.ID, models.RequestStatusAssigned, int64Ptr(first.ID))
	ctx := context.Background()

	guides, total, err := env.guides.ListTourGuides(ctx, adminActor(1), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, guides, 2)
	assert.Equal(t, first.ID, guides[0].ID)
	assert.Equal(t, 1, guides[0].ActiveRequests)

	guides, _, err = env.guides.ListTourGuides(ctx, adminActor(1), 2, 2)
	require.NoError(t, err)
	assert.Len(t, guides, 1)

	_, _, err = env.guides.ListTourGuides(ctx, userActor(owner.ID), 1, 10)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetTourGuide(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, models.RoleUser, true)
	guide := env.addUser(t, models.RoleAgent, true)
	env.addRequest(t, owner.ID, models.RequestStatusCompleted, int64Ptr(guide.ID))
	env.addRequest(t, owner.ID, models.RequestStatusInProgress, int64Ptr(guide.ID))
	ctx := context.Background()

	got, err := env.guides.GetTourGuide(ctx, adminActor(1), guide.ID)
	require.NoError(t, err)
	assert.Equal(t, guide.Email, got.Email)
	assert.Equal(t, 2, got.TotalRequests)
	assert.Equal(t, 1, got.ActiveRequests)
	assert.Equal(t, 1, got.CompletedRequests)

	_, err = env.guides.GetTourGuide(ctx, adminActor(1), owner.ID)
	assert.ErrorIs(t, err, ErrNotFound, "customers are not tour guides")

	_, err = env.guides.GetTourGuide(ctx, agentActor(guide.ID), guide.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestToggleActive(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, models.RoleUser, true)
	guide := env.addUser(t, models.RoleAgent, true)
	assigned := env.addRequest(t, owner.ID, models.RequestStatusAssigned, int64Ptr(guide.ID))
	pending := env.addRequest(t, owner.ID, models.RequestStatusPending, nil)
	ctx := context.Background()

	toggled, err := env.guides.ToggleActive(ctx, adminActor(1), guide.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	// Existing assignments survive; new ones are refused.
	assert.Equal(t, guide.ID, *env.request(assigned.ID).TourGuideID)
	_, err = env.assignments.Assign(ctx, adminActor(1), pending.ID, guide.ID)
	assert.ErrorIs(t, err, ErrGuideInactive)

	toggled, err = env.guides.ToggleActive(ctx, adminActor(1), guide.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Active)

	_, err = env.assignments.Assign(ctx, adminActor(1), pending.ID, guide.ID)
	assert.NoError(t, err)

	_, err = env.guides.ToggleActive(ctx, adminActor(1), owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.guides.ToggleActive(ctx, userActor(owner.ID), guide.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
