package services

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/models"
	"github.com/tourdesk/travel-backend/internal/utils"
)

// AuditService appends status changes and assignments to the activity trail
type AuditService struct {
	store   ActivityStore
	clock   Clock
	logger  *logrus.Logger
	enabled bool
}

// NewAuditService creates a new audit service
func NewAuditService(store ActivityStore, clock Clock, logger *logrus.Logger, enabled bool) *AuditService {
	return &AuditService{
		store:   store,
		clock:   clock,
		logger:  logger,
		enabled: enabled,
	}
}

// ActivityEvent describes one state-changing operation
type ActivityEvent struct {
	Action     string
	RequestID  *int64
	BookingID  *int64
	FromStatus string
	ToStatus   string
	Note       *string
}

// Record appends an entry for event. A storage failure is returned as
// AuditWriteFailure; callers treat it as non-fatal.
func (s *AuditService) Record(ctx context.Context, actor Actor, event ActivityEvent) error {
	if !s.enabled {
		return nil
	}

	entry := &models.ActivityLogEntry{
		ActorID:   actor.UserID,
		ActorRole: actor.Role,
		Action:    event.Action,
		RequestID: event.RequestID,
		BookingID: event.BookingID,
		Note:      event.Note,
		CreatedAt: s.clock.Now(),
	}
	if event.FromStatus != "" {
		from := event.FromStatus
		entry.FromStatus = &from
	}
	if event.ToStatus != "" {
		to := event.ToStatus
		entry.ToStatus = &to
	}
	if actor.IPAddress != "" {
		ip := actor.IPAddress
		entry.IPAddress = &ip
	}
	if actor.UserAgent != "" {
		entry.DeviceInfo = deviceInfoMap(utils.ParseUserAgent(actor.UserAgent))
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		return &DomainError{Kind: KindAuditWriteFailure, Entity: EntityActivity, Detail: event.Action, Err: err}
	}
	return nil
}

// SafeRecord records event and logs instead of returning a failure
func (s *AuditService) SafeRecord(ctx context.Context, actor Actor, event ActivityEvent) {
	if err := s.Record(ctx, actor, event); err != nil {
		s.logger.WithFields(logrus.Fields{
			"action":     event.Action,
			"actor_id":   actor.UserID,
			"request_id": event.RequestID,
			"booking_id": event.BookingID,
			"error":      err,
		}).Warn("AUDIT ERROR: failed to record activity")
	}
}

// ListForRequest returns the activity history of a travel request, oldest first
func (s *AuditService) ListForRequest(ctx context.Context, requestID int64) ([]models.ActivityLogEntry, error) {
	return s.store.ListByRequest(ctx, requestID)
}

// ListForBooking returns the activity history of a booking, oldest first
func (s *AuditService) ListForBooking(ctx context.Context, bookingID int64) ([]models.ActivityLogEntry, error) {
	return s.store.ListByBooking(ctx, bookingID)
}

func deviceInfoMap(info utils.DeviceInfo) models.JSONMap {
	b, err := json.Marshal(info)
	if err != nil {
		return nil
	}
	var m models.JSONMap
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
