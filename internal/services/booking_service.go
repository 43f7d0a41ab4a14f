package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/models"
	"github.com/tourdesk/travel-backend/pkg/validator"
)

// BookingService creates and cancels package bookings and keeps seat
// inventory in step with every booking status change.
type BookingService struct {
	tx       Transactor
	bookings BookingStore
	packages PackageStore
	ledger   *InventoryLedger
	audit    *AuditService
	phones   *validator.PhoneValidator
	clock    Clock
	logger   *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	tx Transactor,
	bookings BookingStore,
	packages PackageStore,
	ledger *InventoryLedger,
	audit *AuditService,
	phones *validator.PhoneValidator,
	clock Clock,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		tx:       tx,
		bookings: bookings,
		packages: packages,
		ledger:   ledger,
		audit:    audit,
		phones:   phones,
		clock:    clock,
		logger:   logger,
	}
}

// CreateBooking reserves seats on a package and records a pending booking.
// The reservation and the insert share one transaction.
func (s *BookingService) CreateBooking(ctx context.Context, actor Actor, input *models.CreateBookingInput) (*models.Booking, error) {
	if err := models.Validate.Struct(input); err != nil {
		return nil, invalidInput("invalid booking request", err)
	}

	contactPhone, err := s.phones.Validate(input.ContactPhone)
	if err != nil {
		return nil, invalidInput("invalid contact phone", err)
	}

	pkg, err := s.packages.GetByID(ctx, input.PackageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(EntityPackage, input.PackageID)
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	if !pkg.Active {
		return nil, &DomainError{Kind: KindPackageUnavailable, Entity: EntityPackage, EntityID: pkg.ID}
	}

	now := s.clock.Now()
	departure, err := input.Departure()
	if err != nil {
		return nil, &DomainError{Kind: KindInvalidDeparture, Entity: EntityPackage, EntityID: pkg.ID, Err: err}
	}
	if !departure.After(now) {
		return nil, &DomainError{
			Kind:     KindInvalidDeparture,
			Entity:   EntityPackage,
			EntityID: pkg.ID,
			Detail:   fmt.Sprintf("departure %s is not in the future", departure.Format(time.RFC3339)),
		}
	}

	if input.NumTravelers < 1 {
		return nil, &DomainError{
			Kind:     KindInvalidTravelerCount,
			Entity:   EntityPackage,
			EntityID: pkg.ID,
			Detail:   "at least one traveler is required",
		}
	}

	booking := &models.Booking{
		PackageID:       pkg.ID,
		UserID:          actor.UserID,
		DepartureDate:   departure,
		NumTravelers:    input.NumTravelers,
		ContactName:     strings.TrimSpace(input.ContactName),
		ContactEmail:    strings.TrimSpace(input.ContactEmail),
		ContactPhone:    contactPhone,
		SpecialRequests: input.SpecialRequests,
		TotalPrice:      totalPrice(pkg.Price, input.NumTravelers),
		Status:          models.BookingStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var remaining int
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		remaining, err = s.ledger.ReserveSeats(ctx, pkg.ID, booking.NumTravelers)
		if err != nil {
			return err
		}
		if err := s.bookings.Create(ctx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.SafeRecord(ctx, actor, ActivityEvent{
		Action:    models.ActionCreate,
		BookingID: &booking.ID,
		ToStatus:  string(booking.Status),
	})

	s.logger.WithFields(logrus.Fields{
		"booking_id":      booking.ID,
		"package_id":      pkg.ID,
		"user_id":         actor.UserID,
		"num_travelers":   booking.NumTravelers,
		"total_price":     booking.TotalPrice,
		"seats_available": remaining,
	}).Info("Booking created")

	return booking, nil
}

// CancelBooking cancels a booking for its owner or an admin and releases its seats once
func (s *BookingService) CancelBooking(ctx context.Context, actor Actor, bookingID int64) (*models.Booking, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, forbidden(EntityBooking, bookingID, "only the owner or an admin can cancel a booking")
	}

	return s.changeStatus(ctx, actor, bookingID, models.BookingStatusCancelled, func(current *models.Booking) error {
		switch current.Status {
		case models.BookingStatusCancelled:
			return &DomainError{Kind: KindAlreadyCancelled, Entity: EntityBooking, EntityID: current.ID, CurrentStatus: string(current.Status)}
		case models.BookingStatusCompleted:
			return &DomainError{Kind: KindNotCancellable, Entity: EntityBooking, EntityID: current.ID, CurrentStatus: string(current.Status)}
		}
		return nil
	})
}

// UpdateBookingStatus applies an admin status change. Only the cancelled
// target releases seats.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, actor Actor, bookingID int64, status models.BookingStatus) (*models.Booking, error) {
	if !actor.IsAdmin() && !actor.IsSystem() {
		return nil, forbidden(EntityBooking, bookingID, "only admins can change booking status")
	}
	if !status.IsValid() {
		return nil, invalidInput(fmt.Sprintf("unknown booking status %q", status), nil)
	}

	return s.changeStatus(ctx, actor, bookingID, status, func(current *models.Booking) error {
		if !current.Status.CanTransitionTo(status) {
			return illegalTransition(EntityBooking, current.ID, string(current.Status), string(status))
		}
		return nil
	})
}

// changeStatus reads the booking, validates with check and swaps the status
// in one transaction. The compare-and-swap makes the seat release run at most
// once per booking even under concurrent cancels.
func (s *BookingService) changeStatus(
	ctx context.Context,
	actor Actor,
	bookingID int64,
	target models.BookingStatus,
	check func(current *models.Booking) error,
) (*models.Booking, error) {
	var (
		updated  *models.Booking
		previous models.BookingStatus
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := check(current); err != nil {
			return err
		}

		previous = current.Status
		updated, err = s.bookings.CompareAndSwapStatus(ctx, bookingID, current.Status, target, s.clock.Now())
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Lost the race: report against the winner's status.
				latest, loadErr := s.load(ctx, bookingID)
				if loadErr != nil {
					return loadErr
				}
				if checkErr := check(latest); checkErr != nil {
					return checkErr
				}
				return illegalTransition(EntityBooking, bookingID, string(latest.Status), string(target))
			}
			return fmt.Errorf("failed to update booking status: %w", err)
		}

		if target == models.BookingStatusCancelled && previous.HoldsSeats() {
			if _, err := s.ledger.ReleaseSeats(ctx, updated.PackageID, updated.NumTravelers); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := models.ActionStatusChange
	if target == models.BookingStatusCancelled {
		action = models.ActionCancel
	}
	s.audit.SafeRecord(ctx, actor, ActivityEvent{
		Action:     action,
		BookingID:  &updated.ID,
		FromStatus: string(previous),
		ToStatus:   string(updated.Status),
	})

	s.logger.WithFields(logrus.Fields{
		"booking_id":  updated.ID,
		"actor_id":    actor.UserID,
		"from_status": previous,
		"to_status":   updated.Status,
	}).Info("Booking status updated")

	return updated, nil
}

// GetBooking returns a booking visible to actor
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, bookingID int64) (*models.Booking, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, notFound(EntityBooking, bookingID)
	}
	return booking, nil
}

// ListMyBookings returns the actor's bookings, newest first
func (s *BookingService) ListMyBookings(ctx context.Context, actor Actor) ([]models.BookingListItem, error) {
	bookings, err := s.bookings.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// ListAllBookings returns every booking, optionally filtered by status
func (s *BookingService) ListAllBookings(ctx context.Context, actor Actor, status *models.BookingStatus) ([]models.BookingListItem, error) {
	if !actor.IsAdmin() {
		return nil, forbidden(EntityBooking, 0, "admin only")
	}
	if status != nil && !status.IsValid() {
		return nil, invalidInput(fmt.Sprintf("unknown booking status %q", *status), nil)
	}
	bookings, err := s.bookings.ListAll(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// CompleteDepartedBookings moves confirmed bookings whose tour has ended to
// completed. It returns how many bookings were completed.
func (s *BookingService) CompleteDepartedBookings(ctx context.Context) (int, error) {
	departed, err := s.bookings.ListDeparted(ctx, models.BookingStatusConfirmed, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list departed bookings: %w", err)
	}

	completed := 0
	for _, booking := range departed {
		_, err := s.UpdateBookingStatus(ctx, SystemActor, booking.ID, models.BookingStatusCompleted)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"booking_id": booking.ID,
				"error":      err,
			}).Warn("Failed to complete departed booking")
			continue
		}
		completed++
	}
	return completed, nil
}

// ActivityForBooking returns the activity history of a booking visible to actor
func (s *BookingService) ActivityForBooking(ctx context.Context, actor Actor, bookingID int64) ([]models.ActivityLogEntry, error) {
	if _, err := s.GetBooking(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	entries, err := s.audit.ListForBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking activity: %w", err)
	}
	return entries, nil
}

func (s *BookingService) load(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(EntityBooking, bookingID)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// totalPrice snapshots price x travelers rounded to cents
func totalPrice(price float64, travelers int) float64 {
	return math.Round(price*float64(travelers)*100) / 100
}
