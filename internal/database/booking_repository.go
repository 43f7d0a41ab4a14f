package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tourdesk/travel-backend/internal/models"
)

const bookingColumns = `
	id, package_id, user_id, departure_date, num_travelers,
	contact_name, contact_email, contact_phone, special_requests,
	total_price, status, created_at, updated_at`

const bookingListSelect = `
	SELECT
		b.id, b.package_id, b.user_id, b.departure_date, b.num_travelers,
		b.contact_name, b.contact_email, b.contact_phone, b.special_requests,
		b.total_price, b.status, b.created_at, b.updated_at,
		p.title AS package_title, p.slug AS package_slug, p.destination AS package_destination
	FROM bookings b
	JOIN tour_packages p ON p.id = b.package_id
`

// BookingRepository handles package booking database operations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a booking and sets its ID
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			package_id, user_id, departure_date, num_travelers,
			contact_name, contact_email, contact_phone, special_requests,
			total_price, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query,
		booking.PackageID,
		booking.UserID,
		booking.DepartureDate,
		booking.NumTravelers,
		booking.ContactName,
		booking.ContactEmail,
		booking.ContactPhone,
		booking.SpecialRequests,
		booking.TotalPrice,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	).Scan(&booking.ID)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// GetByID returns a booking or sql.ErrNoRows
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CompareAndSwapStatus moves a booking from expected to next.
// It returns sql.ErrNoRows when the booking no longer holds expected.
func (r *BookingRepository) CompareAndSwapStatus(ctx context.Context, id int64, expected, next models.BookingStatus, at time.Time) (*models.Booking, error) {
	query := `
		UPDATE bookings SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + bookingColumns
	var booking models.Booking
	if err := conn(ctx, r.db).GetContext(ctx, &booking, query, next, at, id, expected); err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListByUser returns a customer's bookings, newest first
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]models.BookingListItem, error) {
	bookings := []models.BookingListItem{}
	query := bookingListSelect + ` WHERE b.user_id = $1 ORDER BY b.created_at DESC, b.id DESC`
	if err := conn(ctx, r.db).SelectContext(ctx, &bookings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", err)
	}
	return bookings, nil
}

// ListAll returns every booking, optionally only those with status
func (r *BookingRepository) ListAll(ctx context.Context, status *models.BookingStatus) ([]models.BookingListItem, error) {
	bookings := []models.BookingListItem{}
	var err error
	if status != nil {
		query := bookingListSelect + ` WHERE b.status = $1 ORDER BY b.created_at DESC, b.id DESC`
		err = conn(ctx, r.db).SelectContext(ctx, &bookings, query, *status)
	} else {
		query := bookingListSelect + ` ORDER BY b.created_at DESC, b.id DESC`
		err = conn(ctx, r.db).SelectContext(ctx, &bookings, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// ListDeparted returns bookings with status whose tour ended before the given time.
// A tour ends duration_days after its departure date.
func (r *BookingRepository) ListDeparted(ctx context.Context, status models.BookingStatus, before time.Time) ([]models.Booking, error) {
	query := `
		SELECT b.id, b.package_id, b.user_id, b.departure_date, b.num_travelers,
			b.contact_name, b.contact_email, b.contact_phone, b.special_requests,
			b.total_price, b.status, b.created_at, b.updated_at
		FROM bookings b
		JOIN tour_packages p ON p.id = b.package_id
		WHERE b.status = $1
			AND b.departure_date + make_interval(days => p.duration_days) < $2
		ORDER BY b.departure_date
	`
	bookings := []models.Booking{}
	if err := conn(ctx, r.db).SelectContext(ctx, &bookings, query, status, before); err != nil {
		return nil, fmt.Errorf("failed to list departed bookings: %w", err)
	}
	return bookings, nil
}
