package models

import (
	"time"
)

// Activity actions
const (
	ActionCreate       = "create"
	ActionAssign       = "assign"
	ActionReassign     = "reassign"
	ActionStatusChange = "status_change"
	ActionCancel       = "cancel"
)

// ActivityLogEntry is an append-only record of a state change
type ActivityLogEntry struct {
	ID         int64     `json:"id" db:"id"`
	ActorID    int64     `json:"actor_id" db:"actor_id"`
	ActorRole  string    `json:"actor_role" db:"actor_role"`
	ActorName  *string   `json:"actor_name,omitempty" db:"actor_name"`
	Action     string    `json:"action" db:"action"`
	RequestID  *int64    `json:"request_id,omitempty" db:"request_id"`
	BookingID  *int64    `json:"booking_id,omitempty" db:"booking_id"`
	FromStatus *string   `json:"from_status,omitempty" db:"from_status"`
	ToStatus   *string   `json:"to_status,omitempty" db:"to_status"`
	Note       *string   `json:"note,omitempty" db:"note"`
	IPAddress  *string   `json:"ip_address,omitempty" db:"ip_address"`
	DeviceInfo JSONMap   `json:"device_info,omitempty" db:"device_info"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
