package models

import (
	"time"

	"github.com/lib/pq"
)

// TourPackage is a bookable tour product with a fixed seat inventory
type TourPackage struct {
	ID             int64          `json:"id" db:"id"`
	Slug           string         `json:"slug" db:"slug"`
	Title          string         `json:"title" db:"title"`
	Destination    string         `json:"destination" db:"destination"`
	Description    string         `json:"description" db:"description"`
	ImageURL       *string        `json:"image_url,omitempty" db:"image_url"`
	Price          float64        `json:"price" db:"price"`
	DurationDays   int            `json:"duration_days" db:"duration_days"`
	DurationNights int            `json:"duration_nights" db:"duration_nights"`
	SeatsTotal     int            `json:"seats_total" db:"seats_total"`
	SeatsAvailable int            `json:"seats_available" db:"seats_available"`
	Itinerary      Itinerary      `json:"itinerary" db:"itinerary"`
	Includes       pq.StringArray `json:"includes" db:"includes"`
	Excludes       pq.StringArray `json:"excludes" db:"excludes"`
	Highlights     pq.StringArray `json:"highlights" db:"highlights"`
	Featured       bool           `json:"featured" db:"featured"`
	Active         bool           `json:"active" db:"active"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// SeatsBooked returns the number of seats currently held by bookings
func (p *TourPackage) SeatsBooked() int {
	return p.SeatsTotal - p.SeatsAvailable
}

// IsBookable reports whether the package accepts new bookings at all
func (p *TourPackage) IsBookable() bool {
	return p.Active && p.SeatsAvailable > 0
}

// PackageInput is the admin payload for creating or updating a package
type PackageInput struct {
	Title          string    `json:"title" validate:"required,max=255"`
	Destination    string    `json:"destination" validate:"required,max=255"`
	Description    string    `json:"description" validate:"required"`
	ImageURL       *string   `json:"image_url,omitempty" validate:"omitempty,url"`
	Price          float64   `json:"price" validate:"gte=0"`
	DurationDays   int       `json:"duration_days" validate:"gte=1"`
	DurationNights int       `json:"duration_nights" validate:"gte=0"`
	SeatsTotal     int       `json:"seats_total" validate:"gte=1"`
	Itinerary      Itinerary `json:"itinerary" validate:"dive"`
	Includes       []string  `json:"includes" validate:"dive,required"`
	Excludes       []string  `json:"excludes" validate:"dive,required"`
	Highlights     []string  `json:"highlights" validate:"dive,required"`
	Featured       bool      `json:"featured"`
	Active         *bool     `json:"active,omitempty"`
}

// PackageFilter narrows package listings
type PackageFilter struct {
	Active      *bool
	Featured    *bool
	Destination string
}
