package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies domain failures so the HTTP layer can render them
type ErrorKind string

const (
	KindIllegalTransition      ErrorKind = "illegal_transition"
	KindGuideInactive          ErrorKind = "guide_inactive"
	KindRequestNotAssignable   ErrorKind = "request_not_assignable"
	KindInsufficientInventory  ErrorKind = "insufficient_inventory"
	KindInventoryInconsistency ErrorKind = "inventory_inconsistency"
	KindPackageUnavailable     ErrorKind = "package_unavailable"
	KindInvalidDeparture       ErrorKind = "invalid_departure"
	KindInvalidTravelerCount   ErrorKind = "invalid_traveler_count"
	KindNotFound               ErrorKind = "not_found"
	KindAlreadyCancelled       ErrorKind = "already_cancelled"
	KindNotCancellable         ErrorKind = "not_cancellable"
	KindAuditWriteFailure      ErrorKind = "audit_write_failure"
	KindForbidden              ErrorKind = "forbidden"
	KindInvalidInput           ErrorKind = "invalid_input"
	KindConflict               ErrorKind = "conflict"
	KindUnauthenticated        ErrorKind = "unauthenticated"
)

// Entity names carried on domain errors
const (
	EntityRequest   = "travel_request"
	EntityPackage   = "tour_package"
	EntityBooking   = "booking"
	EntityUser      = "user"
	EntityTourGuide = "tour_guide"
	EntityActivity  = "activity_log"
)

// DomainError is a structured failure of a core operation
type DomainError struct {
	Kind            ErrorKind
	Entity          string
	EntityID        int64
	CurrentStatus   string
	RequestedStatus string
	Detail          string
	Err             error
}

// Sentinels for errors.Is matching by kind
var (
	ErrIllegalTransition      = &DomainError{Kind: KindIllegalTransition}
	ErrGuideInactive          = &DomainError{Kind: KindGuideInactive}
	ErrRequestNotAssignable   = &DomainError{Kind: KindRequestNotAssignable}
	ErrInsufficientInventory  = &DomainError{Kind: KindInsufficientInventory}
	ErrInventoryInconsistency = &DomainError{Kind: KindInventoryInconsistency}
	ErrPackageUnavailable     = &DomainError{Kind: KindPackageUnavailable}
	ErrInvalidDeparture       = &DomainError{Kind: KindInvalidDeparture}
	ErrInvalidTravelerCount   = &DomainError{Kind: KindInvalidTravelerCount}
	ErrNotFound               = &DomainError{Kind: KindNotFound}
	ErrAlreadyCancelled       = &DomainError{Kind: KindAlreadyCancelled}
	ErrNotCancellable         = &DomainError{Kind: KindNotCancellable}
	ErrAuditWriteFailure      = &DomainError{Kind: KindAuditWriteFailure}
	ErrForbidden              = &DomainError{Kind: KindForbidden}
	ErrInvalidInput           = &DomainError{Kind: KindInvalidInput}
	ErrConflict               = &DomainError{Kind: KindConflict}
	ErrUnauthenticated        = &DomainError{Kind: KindUnauthenticated}
)

// Error implements the error interface
func (e *DomainError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Entity != "" {
		fmt.Fprintf(&b, ": %s", e.Entity)
		if e.EntityID != 0 {
			fmt.Fprintf(&b, " %d", e.EntityID)
		}
	}
	if e.CurrentStatus != "" || e.RequestedStatus != "" {
		fmt.Fprintf(&b, " (current=%s, requested=%s)", e.CurrentStatus, e.RequestedStatus)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same kind
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Details returns the structured fields for rendering
func (e *DomainError) Details() map[string]interface{} {
	details := map[string]interface{}{}
	if e.Entity != "" {
		details["entity"] = e.Entity
	}
	if e.EntityID != 0 {
		details["entity_id"] = e.EntityID
	}
	if e.CurrentStatus != "" {
		details["current_status"] = e.CurrentStatus
	}
	if e.RequestedStatus != "" {
		details["requested_status"] = e.RequestedStatus
	}
	return details
}

// KindOf returns the kind of a domain error, or "" for infrastructure errors
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func illegalTransition(entity string, id int64, current, requested string) *DomainError {
	return &DomainError{
		Kind:            KindIllegalTransition,
		Entity:          entity,
		EntityID:        id,
		CurrentStatus:   current,
		RequestedStatus: requested,
	}
}

func notFound(entity string, id int64) *DomainError {
	return &DomainError{Kind: KindNotFound, Entity: entity, EntityID: id}
}

func forbidden(entity string, id int64, detail string) *DomainError {
	return &DomainError{Kind: KindForbidden, Entity: entity, EntityID: id, Detail: detail}
}

func invalidInput(detail string, err error) *DomainError {
	return &DomainError{Kind: KindInvalidInput, Detail: detail, Err: err}
}
