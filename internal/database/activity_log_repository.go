package database

import (
	"context"
	"fmt"

	"github.com/tourdesk/travel-backend/internal/models"
)

const activitySelect = `
	SELECT
		a.id, a.actor_id, a.actor_role, u.name AS actor_name, a.action,
		a.request_id, a.booking_id, a.from_status, a.to_status, a.note,
		a.ip_address, a.device_info, a.created_at
	FROM activity_logs a
	LEFT JOIN users u ON u.id = a.actor_id
`

// ActivityLogRepository handles the append-only activity trail
type ActivityLogRepository struct {
	db DB
}

// NewActivityLogRepository creates a new activity log repository
func NewActivityLogRepository(db DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Insert appends an entry and sets its ID
func (r *ActivityLogRepository) Insert(ctx context.Context, entry *models.ActivityLogEntry) error {
	query := `
		INSERT INTO activity_logs (
			actor_id, actor_role, action, request_id, booking_id,
			from_status, to_status, note, ip_address, device_info, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query,
		entry.ActorID,
		entry.ActorRole,
		entry.Action,
		entry.RequestID,
		entry.BookingID,
		entry.FromStatus,
		entry.ToStatus,
		entry.Note,
		entry.IPAddress,
		entry.DeviceInfo,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

// ListByRequest returns a request's history, oldest first
func (r *ActivityLogRepository) ListByRequest(ctx context.Context, requestID int64) ([]models.ActivityLogEntry, error) {
	entries := []models.ActivityLogEntry{}
	query := activitySelect + ` WHERE a.request_id = $1 ORDER BY a.created_at, a.id`
	if err := conn(ctx, r.db).SelectContext(ctx, &entries, query, requestID); err != nil {
		return nil, fmt.Errorf("failed to list request activity: %w", err)
	}
	return entries, nil
}

// ListByBooking returns a booking's history, oldest first
func (r *ActivityLogRepository) ListByBooking(ctx context.Context, bookingID int64) ([]models.ActivityLogEntry, error) {
	entries := []models.ActivityLogEntry{}
	query := activitySelect + ` WHERE a.booking_id = $1 ORDER BY a.created_at, a.id`
	if err := conn(ctx, r.db).SelectContext(ctx, &entries, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list booking activity: %w", err)
	}
	return entries, nil
}
