package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourdesk/travel-backend/internal/models"
)

func TestCronService_StartAndStatus(t *testing.T) {
	env := newTestEnv(t)
	cronSvc := NewCronService(env.bookings, "", quietLogger())
	assert.Equal(t, DefaultBookingSweepSchedule, cronSvc.schedule)
	assert.Equal(t, "0 0 2 * * *", cronSvc.schedule, "sweeps once a night")

	status := cronSvc.GetJobStatus()
	assert.Equal(t, false, status["running"])
	assert.Equal(t, 0, status["job_count"])

	require.NoError(t, cronSvc.Start())
	defer cronSvc.Stop()

	status = cronSvc.GetJobStatus()
	assert.Equal(t, true, status["running"])
	assert.Equal(t, 1, status["job_count"])
}

func TestCronService_InvalidSchedule(t *testing.T) {
	env := newTestEnv(t)
	cronSvc := NewCronService(env.bookings, "every tuesday", quietLogger())

	assert.Error(t, cronSvc.Start())
}

func TestCronService_RunBookingSweepNow(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.addPackage(t, 10, 100, true)
	booking := env.addBooking(t, pkg, 2, 2, models.BookingStatusConfirmed, testNow.AddDate(0, 0, -10))

	NewCronService(env.bookings, "", quietLogger()).RunBookingSweepNow()

	assert.Equal(t, models.BookingStatusCompleted, env.booking(booking.ID).Status)
}
