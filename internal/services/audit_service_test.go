package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourdesk/travel-backend/internal/models"
)

const chromeOnMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestAuditRecord(t *testing.T) {
	env := newTestEnv(t)
	requestID := int64(7)
	actor := Actor{UserID: 3, Role: models.RoleAdmin, IPAddress: "203.0.113.9", UserAgent: chromeOnMac}

	err := env.audit.Record(context.Background(), actor, ActivityEvent{
		Action:     models.ActionStatusChange,
		RequestID:  &requestID,
		FromStatus: "assigned",
		ToStatus:   "cancelled",
		Note:       strPtr("customer called"),
	})
	require.NoError(t, err)

	entries, err := env.audit.ListForRequest(context.Background(), requestID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, int64(3), entry.ActorID)
	assert.Equal(t, models.RoleAdmin, entry.ActorRole)
	assert.Equal(t, "assigned", *entry.FromStatus)
	assert.Equal(t, "cancelled", *entry.ToStatus)
	assert.Equal(t, "customer called", *entry.Note)
	assert.Equal(t, "203.0.113.9", *entry.IPAddress)
	assert.Equal(t, testNow, entry.CreatedAt)
	assert.Nil(t, entry.BookingID)
	assert.Equal(t, "desktop", entry.DeviceInfo["device_type"])
}

func TestAuditRecord_OptionalFields(t *testing.T) {
	env := newTestEnv(t)
	bookingID := int64(9)

	require.NoError(t, env.audit.Record(context.Background(), SystemActor, ActivityEvent{
		Action:    models.ActionCreate,
		BookingID: &bookingID,
		ToStatus:  "pending",
	}))

	entries, err := env.audit.ListForBooking(context.Background(), bookingID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].FromStatus)
	assert.Nil(t, entries[0].IPAddress)
	assert.Nil(t, entries[0].DeviceInfo)
}

func TestAuditRecord_Failure(t *testing.T) {
	env := newTestEnv(t)
	env.db.failActivity = true
	event := ActivityEvent{Action: models.ActionCancel, ToStatus: "cancelled"}

	err := env.audit.Record(context.Background(), adminActor(1), event)
	assert.ErrorIs(t, err, ErrAuditWriteFailure)
	assert.ErrorIs(t, err, errStoreDown)

	assert.NotPanics(t, func() {
		env.audit.SafeRecord(context.Background(), adminActor(1), event)
	})
}

func TestAuditRecord_Disabled(t *testing.T) {
	env := newTestEnv(t)
	audit := NewAuditService(memActivity{db: env.db}, fixedClock{now: testNow}, quietLogger(), false)

	require.NoError(t, audit.Record(context.Background(), adminActor(1), ActivityEvent{Action: models.ActionCreate}))
	assert.Empty(t, env.db.activity)
}

func TestStateChangesSurviveAuditFailure(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, models.RoleUser, true)
	guide := env.addUser(t, models.RoleAgent, true)
	req := env.addRequest(t, owner.ID, models.RequestStatusPending, nil)
	env.db.failActivity = true

	assigned, err := env.assignments.Assign(context.Background(), adminActor(1), req.ID, guide.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAssigned, assigned.Status)
	assert.Equal(t, models.RequestStatusAssigned, env.request(req.ID).Status)
}
