package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// RequestService handles the customer and tour guide side of travel requests
type RequestService struct {
	requests RequestStore
	machine  *RequestStateMachine
	audit    *AuditService
	cache    WorkloadCache
	clock    Clock
	logger   *logrus.Logger
}

// NewRequestService creates a new RequestService. cache may be nil.
func NewRequestService(
	requests RequestStore,
	machine *RequestStateMachine,
	audit *AuditService,
	cache WorkloadCache,
	clock Clock,
	logger *logrus.Logger,
) *RequestService {
	return &RequestService{
		requests: requests,
		machine:  machine,
		audit:    audit,
		cache:    cache,
		clock:    clock,
		logger:   logger,
	}
}

// CreateRequest files a new pending request owned by actor
func (s *RequestService) CreateRequest(ctx context.Context, actor Actor, input *models.CreateTravelRequestInput) (*models.TravelRequest, error) {
	if actor.Role != models.RoleUser && !actor.IsAdmin() {
		return nil, forbidden(EntityRequest, 0, "only customers can create travel requests")
	}

	destination := strings.TrimSpace(input.Destination)
	if destination == "" {
		return nil, invalidInput("destination is required", nil)
	}

	var message *string
	if input.Message != nil {
		if trimmed := strings.TrimSpace(*input.Message); trimmed != "" {
			message = &trimmed
		}
	}

	now := s.clock.Now()
	req := &models.TravelRequest{
		UserID:      actor.UserID,
		Destination: destination,
		Message:     message,
		Status:      models.RequestStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create travel request: %w", err)
	}

	s.audit.SafeRecord(ctx, actor, ActivityEvent{
		Action:    models.ActionCreate,
		RequestID: &req.ID,
		ToStatus:  string(req.Status),
	})

	s.logger.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"user_id":     actor.UserID,
		"destination": destination,
	}).Info("Travel request created")

	return req, nil
}

// CancelRequest cancels a request on behalf of its owner or an admin
func (s *RequestService) CancelRequest(ctx context.Context, actor Actor, requestID int64) (*models.TravelRequest, error) {
	return s.transition(ctx, actor, requestID, models.RequestStatusCancelled, nil, models.ActionCancel)
}

// UpdateRequestStatus moves a request along the state machine.
// Assignment targets are rejected here; they belong to the assignment resolver.
func (s *RequestService) UpdateRequestStatus(ctx context.Context, actor Actor, requestID int64, status models.RequestStatus, note *string) (*models.TravelRequest, error) {
	if !status.IsValid() {
		return nil, invalidInput(fmt.Sprintf("unknown request status %q", status), nil)
	}
	return s.transition(ctx, actor, requestID, status, note, models.ActionStatusChange)
}

func (s *RequestService) transition(ctx context.Context, actor Actor, requestID int64, target models.RequestStatus, note *string, action string) (*models.TravelRequest, error) {
	updated, previous, err := s.machine.apply(ctx, requestID, func(current *models.TravelRequest) (RequestState, error) {
		if target == models.RequestStatusAssigned {
			return RequestState{}, illegalTransition(EntityRequest, current.ID, string(current.Status), string(target))
		}
		if err := s.machine.Authorize(actor, current, target); err != nil {
			return RequestState{}, err
		}
		return RequestState{Status: target, TourGuideID: guideFor(current, target)}, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.SafeRecord(ctx, actor, ActivityEvent{
		Action:     action,
		RequestID:  &updated.ID,
		FromStatus: string(previous.Status),
		ToStatus:   string(updated.Status),
		Note:       note,
	})

	if previous.TourGuideID != nil {
		invalidateWorkload(ctx, s.cache, s.logger, *previous.TourGuideID)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id":  updated.ID,
		"actor_id":    actor.UserID,
		"actor_role":  actor.Role,
		"from_status": previous.Status,
		"to_status":   updated.Status,
	}).Info("Travel request status updated")

	return updated, nil
}

// GetRequest returns a request with contact details if actor may see it
func (s *RequestService) GetRequest(ctx context.Context, actor Actor, requestID int64) (*models.TravelRequestDetail, error) {
	detail, err := s.requests.GetDetail(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(EntityRequest, requestID)
		}
		return nil, fmt.Errorf("failed to get travel request: %w", err)
	}

	if err := canView(actor, &detail.TravelRequest); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListRequests returns a page of requests visible to actor and the total count.
// Customers see their own requests, tour guides the ones assigned to them,
// admins everything.
func (s *RequestService) ListRequests(ctx context.Context, actor Actor, filter models.RequestFilter) ([]models.TravelRequestDetail, int, error) {
	switch actor.Role {
	case models.RoleUser:
		filter.UserID = &actor.UserID
		filter.TourGuideID = nil
	case models.RoleAgent:
		filter.TourGuideID = &actor.UserID
		filter.UserID = nil
	case models.RoleAdmin:
	default:
		return nil, 0, forbidden(EntityRequest, 0, "unknown role")
	}

	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, 0, invalidInput(fmt.Sprintf("unknown request status %q", *filter.Status), nil)
	}
	filter.Page, filter.Limit = NormalizePage(filter.Page, filter.Limit)

	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list travel requests: %w", err)
	}
	return requests, total, nil
}

// Stats returns per-status counts for the actor's own requests
func (s *RequestService) Stats(ctx context.Context, actor Actor) (*models.RequestStats, error) {
	var (
		stats *models.RequestStats
		err   error
	)
	switch actor.Role {
	case models.RoleUser:
		stats, err = s.requests.StatsByUser(ctx, actor.UserID)
	case models.RoleAgent:
		stats, err = s.requests.StatsByTourGuide(ctx, actor.UserID)
	default:
		return nil, forbidden(EntityRequest, 0, "stats are available to customers and tour guides")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request stats: %w", err)
	}
	return stats, nil
}

// DashboardStats returns the admin overview
func (s *RequestService) DashboardStats(ctx context.Context, actor Actor) (*models.DashboardStats, error) {
	if !actor.IsAdmin() {
		return nil, forbidden(EntityRequest, 0, "admin only")
	}
	stats, err := s.requests.DashboardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}
	return stats, nil
}

// Activity returns the activity history of a request visible to actor
func (s *RequestService) Activity(ctx context.Context, actor Actor, requestID int64) ([]models.ActivityLogEntry, error) {
	req, err := s.machine.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := canView(actor, req); err != nil {
		return nil, err
	}

	entries, err := s.audit.ListForRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list request activity: %w", err)
	}
	return entries, nil
}

func canView(actor Actor, req *models.TravelRequest) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleUser:
		if req.UserID == actor.UserID {
			return nil
		}
	case models.RoleAgent:
		if req.IsAssignedTo(actor.UserID) {
			return nil
		}
	}
	// Hide existence from callers who may not see the request.
	return notFound(EntityRequest, req.ID)
}

// NormalizePage clamps paging parameters to sane defaults
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func invalidateWorkload(ctx context.Context, cache WorkloadCache, logger *logrus.Logger, guideIDs ...int64) {
	if cache == nil || len(guideIDs) == 0 {
		return
	}
	if err := cache.Invalidate(ctx, guideIDs...); err != nil {
		logger.WithFields(logrus.Fields{
			"guide_ids": guideIDs,
			"error":     err,
		}).Warn("Failed to invalidate workload cache")
	}
}
