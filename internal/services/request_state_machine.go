package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tourdesk/travel-backend/internal/models"
)

// maxTransitionAttempts bounds re-evaluation after losing a compare-and-swap race
const maxTransitionAttempts = 3

// RequestStateMachine applies status and assignment changes to travel requests.
// Every change is a compare-and-swap on (status, tour_guide_id): a writer that
// loses the race re-reads the row and re-evaluates against the winner's state.
type RequestStateMachine struct {
	requests RequestStore
	clock    Clock
}

// NewRequestStateMachine creates a new RequestStateMachine
func NewRequestStateMachine(requests RequestStore, clock Clock) *RequestStateMachine {
	return &RequestStateMachine{
		requests: requests,
		clock:    clock,
	}
}

// Authorize checks that actor may move req to target according to the
// transition table. Edges missing from the table fail IllegalTransition;
// legal edges taken by the wrong caller fail Forbidden.
func (m *RequestStateMachine) Authorize(actor Actor, req *models.TravelRequest, target models.RequestStatus) error {
	if req.Status.IsTerminal() {
		return illegalTransition(EntityRequest, req.ID, string(req.Status), string(target))
	}

	roles, ok := req.Status.TransitionRoles(target)
	if !ok {
		return illegalTransition(EntityRequest, req.ID, string(req.Status), string(target))
	}

	if !actor.hasRole(roles) {
		return forbidden(EntityRequest, req.ID, fmt.Sprintf("role %q may not move request from %s to %s", actor.Role, req.Status, target))
	}

	switch actor.Role {
	case models.RoleUser:
		if req.UserID != actor.UserID {
			return forbidden(EntityRequest, req.ID, "request belongs to another user")
		}
	case models.RoleAgent:
		if !req.IsAssignedTo(actor.UserID) {
			return forbidden(EntityRequest, req.ID, "request is not assigned to this tour guide")
		}
	}

	return nil
}

// transitionPlan computes the next state from the freshly read request.
// Returning an error aborts the change without writing.
type transitionPlan func(current *models.TravelRequest) (RequestState, error)

// apply runs plan against the current row and writes the result with
// compare-and-swap. It returns the updated request and the state it replaced.
// errNoChange lets a plan report that the request already has the wanted state
var errNoChange = errors.New("no change")

func (m *RequestStateMachine) apply(ctx context.Context, requestID int64, plan transitionPlan) (*models.TravelRequest, RequestState, error) {
	var current *models.TravelRequest
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		var err error
		current, err = m.load(ctx, requestID)
		if err != nil {
			return nil, RequestState{}, err
		}

		next, err := plan(current)
		if errors.Is(err, errNoChange) {
			return current, stateOf(current), nil
		}
		if err != nil {
			return nil, RequestState{}, err
		}

		expected := stateOf(current)
		updated, err := m.requests.CompareAndSwap(ctx, requestID, expected, next, m.clock.Now())
		if err == nil {
			return updated, expected, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, RequestState{}, fmt.Errorf("failed to update travel request: %w", err)
		}
	}

	// Still contended after several rounds: report against the last state seen.
	return nil, RequestState{}, &DomainError{
		Kind:          KindIllegalTransition,
		Entity:        EntityRequest,
		EntityID:      requestID,
		CurrentStatus: string(current.Status),
		Detail:        "request changed concurrently",
	}
}

func (m *RequestStateMachine) load(ctx context.Context, requestID int64) (*models.TravelRequest, error) {
	req, err := m.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(EntityRequest, requestID)
		}
		return nil, fmt.Errorf("failed to get travel request: %w", err)
	}
	return req, nil
}

func stateOf(req *models.TravelRequest) RequestState {
	return RequestState{Status: req.Status, TourGuideID: req.TourGuideID}
}

// guideFor keeps the current guide while the target status requires one and
// clears it otherwise, preserving the tour_guide_id invariant.
func guideFor(current *models.TravelRequest, target models.RequestStatus) *int64 {
	if target.RequiresGuide() {
		return current.TourGuideID
	}
	return nil
}
