package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/models"
)

// AssignmentService pairs travel requests with tour guides and reports guide workload.
// It validates legality only; choosing a guide is left to the admin.
type AssignmentService struct {
	requests RequestStore
	users    UserStore
	machine  *RequestStateMachine
	audit    *AuditService
	cache    WorkloadCache
	logger   *logrus.Logger
}

// NewAssignmentService creates a new AssignmentService. cache may be nil.
func NewAssignmentService(
	requests RequestStore,
	users UserStore,
	machine *RequestStateMachine,
	audit *AuditService,
	cache WorkloadCache,
	logger *logrus.Logger,
) *AssignmentService {
	return &AssignmentService{
		requests: requests,
		users:    users,
		machine:  machine,
		audit:    audit,
		cache:    cache,
		logger:   logger,
	}
}

// Assign attaches a guide to a pending request and moves it to assigned
func (s *AssignmentService) Assign(ctx context.Context, actor Actor, requestID, guideID int64) (*models.TravelRequest, error) {
	return s.setAssignment(ctx, actor, requestID, guideID, false)
}

// Reassign swaps the guide of an assigned or in-progress request without touching its status
func (s *AssignmentService) Reassign(ctx context.Context, actor Actor, requestID, guideID int64) (*models.TravelRequest, error) {
	return s.setAssignment(ctx, actor, requestID, guideID, true)
}

// setAssignment is the shared primitive behind Assign and Reassign;
// the two differ only in which request statuses they accept.
func (s *AssignmentService) setAssignment(ctx context.Context, actor Actor, requestID, guideID int64, reassign bool) (*models.TravelRequest, error) {
	if !actor.IsAdmin() {
		return nil, forbidden(EntityRequest, requestID, "only admins can assign tour guides")
	}

	if err := s.checkGuide(ctx, guideID); err != nil {
		return nil, err
	}

	noop := false
	updated, previous, err := s.machine.apply(ctx, requestID, func(current *models.TravelRequest) (RequestState, error) {
		noop = false
		if !reassign {
			if current.Status != models.RequestStatusPending {
				return RequestState{}, &DomainError{
					Kind:            KindRequestNotAssignable,
					Entity:          EntityRequest,
					EntityID:        current.ID,
					CurrentStatus:   string(current.Status),
					RequestedStatus: string(models.RequestStatusAssigned),
					Detail:          "only pending requests can be assigned",
				}
			}
			if err := s.machine.Authorize(actor, current, models.RequestStatusAssigned); err != nil {
				return RequestState{}, err
			}
			return RequestState{Status: models.RequestStatusAssigned, TourGuideID: &guideID}, nil
		}

		if !current.Status.IsActive() {
			return RequestState{}, &DomainError{
				Kind:            KindRequestNotAssignable,
				Entity:          EntityRequest,
				EntityID:        current.ID,
				CurrentStatus:   string(current.Status),
				RequestedStatus: string(current.Status),
				Detail:          "only assigned or in-progress requests can be reassigned",
			}
		}
		if current.IsAssignedTo(guideID) {
			noop = true
			return RequestState{}, errNoChange
		}
		return RequestState{Status: current.Status, TourGuideID: &guideID}, nil
	})
	if err != nil {
		return nil, err
	}

	if noop {
		return updated, nil
	}

	action := models.ActionAssign
	if reassign {
		action = models.ActionReassign
	}
	note := assignmentNote(previous.TourGuideID, guideID)
	s.audit.SafeRecord(ctx, actor, ActivityEvent{
		Action:     action,
		RequestID:  &updated.ID,
		FromStatus: string(previous.Status),
		ToStatus:   string(updated.Status),
		Note:       &note,
	})

	affected := []int64{guideID}
	if previous.TourGuideID != nil {
		affected = append(affected, *previous.TourGuideID)
	}
	invalidateWorkload(ctx, s.cache, s.logger, affected...)

	s.logger.WithFields(logrus.Fields{
		"request_id":    updated.ID,
		"tour_guide_id": guideID,
		"action":        action,
		"actor_id":      actor.UserID,
	}).Info("Travel request assignment updated")

	return updated, nil
}

// checkGuide verifies guideID names an active tour guide
func (s *AssignmentService) checkGuide(ctx context.Context, guideID int64) error {
	guide, err := s.users.GetByID(ctx, guideID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(EntityTourGuide, guideID)
		}
		return fmt.Errorf("failed to get tour guide: %w", err)
	}
	if !guide.IsTourGuide() {
		return notFound(EntityTourGuide, guideID)
	}
	if !guide.Active {
		return &DomainError{Kind: KindGuideInactive, Entity: EntityTourGuide, EntityID: guideID}
	}
	return nil
}

// GetWorkload returns total, active and completed request counts for a guide.
// Cached values may be slightly stale; they only inform the admin's choice.
func (s *AssignmentService) GetWorkload(ctx context.Context, guideID int64) (*models.Workload, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, guideID)
		if err != nil {
			s.logger.WithError(err).Warn("Workload cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	guide, err := s.users.GetByID(ctx, guideID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(EntityTourGuide, guideID)
		}
		return nil, fmt.Errorf("failed to get tour guide: %w", err)
	}
	if !guide.IsTourGuide() {
		return nil, notFound(EntityTourGuide, guideID)
	}

	workload, err := s.requests.Workload(ctx, guideID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute workload: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, workload); err != nil {
			s.logger.WithError(err).Warn("Workload cache write failed")
		}
	}
	return workload, nil
}

func assignmentNote(previous *int64, guideID int64) string {
	if previous == nil {
		return fmt.Sprintf("assigned to tour guide %d", guideID)
	}
	return fmt.Sprintf("reassigned from tour guide %d to %d", *previous, guideID)
}
