package models

import (
	"fmt"
	"time"
)

// BookingStatus represents the status of a package booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// BookingTransitions defines the admin-side booking state machine
var BookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
	BookingStatusCancelled: {},
	BookingStatusCompleted: {},
}

// IsValid returns true if the status is a recognized booking status
func (s BookingStatus) IsValid() bool {
	_, exists := BookingTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range BookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status
func (s BookingStatus) IsTerminal() bool {
	return len(BookingTransitions[s]) == 0
}

// HoldsSeats reports whether a booking in this status still holds its seats
func (s BookingStatus) HoldsSeats() bool {
	return s != BookingStatusCancelled
}

// Booking is a customer's reservation against a package's seat inventory
type Booking struct {
	ID              int64         `json:"id" db:"id"`
	PackageID       int64         `json:"package_id" db:"package_id"`
	UserID          int64         `json:"user_id" db:"user_id"`
	DepartureDate   time.Time     `json:"departure_date" db:"departure_date"`
	NumTravelers    int           `json:"num_travelers" db:"num_travelers"`
	ContactName     string        `json:"contact_name" db:"contact_name"`
	ContactEmail    string        `json:"contact_email" db:"contact_email"`
	ContactPhone    string        `json:"contact_phone" db:"contact_phone"`
	SpecialRequests *string       `json:"special_requests,omitempty" db:"special_requests"`
	TotalPrice      float64       `json:"total_price" db:"total_price"`
	Status          BookingStatus `json:"status" db:"status"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// BookingListItem is a booking joined with its package for listings
type BookingListItem struct {
	Booking
	PackageTitle       string `json:"package_title" db:"package_title"`
	PackageSlug        string `json:"package_slug" db:"package_slug"`
	PackageDestination string `json:"package_destination" db:"package_destination"`
}

// CreateBookingInput is the payload for a new booking
type CreateBookingInput struct {
	PackageID       int64   `json:"package_id" validate:"required,gt=0"`
	DepartureDate   string  `json:"departure_date" validate:"required"`
	NumTravelers    int     `json:"num_travelers"`
	ContactName     string  `json:"contact_name" validate:"required,max=255"`
	ContactEmail    string  `json:"contact_email" validate:"required,email"`
	ContactPhone    string  `json:"contact_phone" validate:"required"`
	SpecialRequests *string `json:"special_requests,omitempty" validate:"omitempty,max=2000"`
}

// departureLayouts are the accepted departure_date formats
var departureLayouts = []string{time.RFC3339, "2006-01-02"}

// Departure parses the departure date as a full timestamp or a plain date (UTC midnight)
func (in *CreateBookingInput) Departure() (time.Time, error) {
	var lastErr error
	for _, layout := range departureLayouts {
		t, err := time.Parse(layout, in.DepartureDate)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("invalid departure_date %q: %w", in.DepartureDate, lastErr)
}

// UpdateBookingStatusInput is the admin payload for a booking status change
type UpdateBookingStatusInput struct {
	Status string `json:"status" binding:"required"`
}
