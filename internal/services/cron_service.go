package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultBookingSweepSchedule runs the booking completion sweep nightly at 02:00.
// Cron format: second minute hour day month weekday
const DefaultBookingSweepSchedule = "0 0 2 * * *"

// sweepTimeout bounds one run of a scheduled job
const sweepTimeout = 5 * time.Minute

// CronService manages scheduled background jobs
type CronService struct {
	cron       *cron.Cron
	bookingSvc *BookingService
	schedule   string
	logger     *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(bookingSvc *BookingService, schedule string, logger *logrus.Logger) *CronService {
	if schedule == "" {
		schedule = DefaultBookingSweepSchedule
	}
	return &CronService{
		cron:       cron.New(cron.WithSeconds()),
		bookingSvc: bookingSvc,
		schedule:   schedule,
		logger:     logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.completeDepartedBookingsJob); err != nil {
		return fmt.Errorf("failed to schedule booking sweep: %w", err)
	}
	s.logger.WithField("schedule", s.schedule).Info("Scheduled: complete departed bookings")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// RunBookingSweepNow runs the booking completion sweep immediately
func (s *CronService) RunBookingSweepNow() {
	s.completeDepartedBookingsJob()
}

func (s *CronService) completeDepartedBookingsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	startTime := time.Now()
	completed, err := s.bookingSvc.CompleteDepartedBookings(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Failed to complete departed bookings")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"completed": completed,
		"duration":  time.Since(startTime).String(),
	}).Info("[CRON] Completed departed bookings")
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
