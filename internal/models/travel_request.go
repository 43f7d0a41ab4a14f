package models

import (
	"time"
)

// RequestStatus represents the lifecycle state of a travel request
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusAssigned   RequestStatus = "assigned"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

// AllRequestStatuses lists every request status in lifecycle order
var AllRequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusAssigned,
	RequestStatusInProgress,
	RequestStatusCompleted,
	RequestStatusCancelled,
}

// RequestTransition is a directed edge of the request state machine
type RequestTransition struct {
	From RequestStatus
	To   RequestStatus
}

// RequestTransitions is the canonical request state machine.
// Each legal edge maps to the roles allowed to take it. Ownership is checked
// on top of the role: a user must own the request and an agent must be the
// guide currently assigned to it.
var RequestTransitions = map[RequestTransition][]string{
	{RequestStatusPending, RequestStatusAssigned}:     {RoleAdmin},
	{RequestStatusPending, RequestStatusCancelled}:    {RoleUser, RoleAdmin},
	{RequestStatusAssigned, RequestStatusInProgress}:  {RoleAgent},
	{RequestStatusAssigned, RequestStatusCancelled}:   {RoleAdmin},
	{RequestStatusAssigned, RequestStatusAssigned}:    {RoleAdmin},
	{RequestStatusInProgress, RequestStatusCompleted}: {RoleAgent},
	{RequestStatusInProgress, RequestStatusCancelled}: {RoleAdmin},
}

// IsValid returns true if the status is a recognized request status
func (s RequestStatus) IsValid() bool {
	for _, status := range AllRequestStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// RequiresGuide reports whether a request in this status must carry a tour guide
func (s RequestStatus) RequiresGuide() bool {
	return s == RequestStatusAssigned || s == RequestStatusInProgress || s == RequestStatusCompleted
}

// IsActive reports whether the status counts towards a guide's active workload
func (s RequestStatus) IsActive() bool {
	return s == RequestStatusAssigned || s == RequestStatusInProgress
}

// CanTransitionTo returns true if the edge exists in the state machine
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	_, ok := RequestTransitions[RequestTransition{From: s, To: target}]
	return ok
}

// TransitionRoles returns the roles allowed to move a request from s to target
func (s RequestStatus) TransitionRoles(target RequestStatus) ([]string, bool) {
	roles, ok := RequestTransitions[RequestTransition{From: s, To: target}]
	return roles, ok
}

// TravelRequest is a customer's travel inquiry awaiting a tour guide
type TravelRequest struct {
	ID          int64         `json:"id" db:"id"`
	UserID      int64         `json:"user_id" db:"user_id"`
	Destination string        `json:"destination" db:"destination"`
	Message     *string       `json:"message,omitempty" db:"message"`
	Status      RequestStatus `json:"status" db:"status"`
	TourGuideID *int64        `json:"tour_guide_id,omitempty" db:"tour_guide_id"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// HasGuide reports whether a tour guide is attached to the request
func (r *TravelRequest) HasGuide() bool {
	return r.TourGuideID != nil
}

// IsAssignedTo reports whether guideID is the request's current tour guide
func (r *TravelRequest) IsAssignedTo(guideID int64) bool {
	return r.TourGuideID != nil && *r.TourGuideID == guideID
}

// TravelRequestDetail is a request joined with its owner and tour guide contact details
type TravelRequestDetail struct {
	TravelRequest
	UserName       *string `json:"user_name,omitempty" db:"user_name"`
	UserEmail      *string `json:"user_email,omitempty" db:"user_email"`
	UserPhone      *string `json:"user_phone,omitempty" db:"user_phone"`
	TourGuideName  *string `json:"tour_guide_name,omitempty" db:"tour_guide_name"`
	TourGuideEmail *string `json:"tour_guide_email,omitempty" db:"tour_guide_email"`
	TourGuidePhone *string `json:"tour_guide_phone,omitempty" db:"tour_guide_phone"`
}

// RequestFilter narrows request listings
type RequestFilter struct {
	UserID      *int64
	TourGuideID *int64
	Status      *RequestStatus
	Destination string
	Page        int
	Limit       int
}

// Offset returns the SQL offset for the filter's page
func (f RequestFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// CreateTravelRequestInput is the payload for a new travel request
type CreateTravelRequestInput struct {
	Destination string  `json:"destination" binding:"required,max=255"`
	Message     *string `json:"message,omitempty" binding:"omitempty,max=2000"`
}

// UpdateRequestStatusInput is the payload for a status change
type UpdateRequestStatusInput struct {
	Status string  `json:"status" binding:"required"`
	Note   *string `json:"note,omitempty" binding:"omitempty,max=500"`
}

// AssignRequestInput is the payload for assign and reassign
type AssignRequestInput struct {
	TourGuideID int64 `json:"tourGuideId" binding:"required,gt=0"`
}

// RequestStats counts requests per status
type RequestStats struct {
	Total      int `json:"total" db:"total"`
	Pending    int `json:"pending" db:"pending"`
	Assigned   int `json:"assigned" db:"assigned"`
	InProgress int `json:"in_progress" db:"in_progress"`
	Completed  int `json:"completed" db:"completed"`
	Cancelled  int `json:"cancelled" db:"cancelled"`
}

// DashboardStats is the admin overview
type DashboardStats struct {
	TotalRequests      int `json:"total_requests" db:"total_requests"`
	PendingRequests    int `json:"pending_requests" db:"pending_requests"`
	AssignedRequests   int `json:"assigned_requests" db:"assigned_requests"`
	InProgressRequests int `json:"in_progress_requests" db:"in_progress_requests"`
	CompletedRequests  int `json:"completed_requests" db:"completed_requests"`
	CancelledRequests  int `json:"cancelled_requests" db:"cancelled_requests"`
	TotalUsers         int `json:"total_users" db:"total_users"`
	TotalTourGuides    int `json:"total_tour_guides" db:"total_tour_guides"`
	ActiveTourGuides   int `json:"active_tour_guides" db:"active_tour_guides"`
}
