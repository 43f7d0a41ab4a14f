package services

import (
	"context"
	"time"

	"github.com/tourdesk/travel-backend/internal/models"
)

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Transactor runs fn inside a database transaction carried by ctx.
// Stores called with the derived context join the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RequestState is the part of a travel request guarded by compare-and-swap
type RequestState struct {
	Status      models.RequestStatus
	TourGuideID *int64
}

// RequestStore persists travel requests.
// Lookups of missing rows return sql.ErrNoRows.
type RequestStore interface {
	Create(ctx context.Context, req *models.TravelRequest) error
	GetByID(ctx context.Context, id int64) (*models.TravelRequest, error)
	GetDetail(ctx context.Context, id int64) (*models.TravelRequestDetail, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.TravelRequestDetail, int, error)
	// CompareAndSwap writes next only if the row still holds expected.
	// It returns sql.ErrNoRows when the row changed in between.
	CompareAndSwap(ctx context.Context, id int64, expected, next RequestState, at time.Time) (*models.TravelRequest, error)
	StatsByUser(ctx context.Context, userID int64) (*models.RequestStats, error)
	StatsByTourGuide(ctx context.Context, guideID int64) (*models.RequestStats, error)
	Workload(ctx context.Context, guideID int64) (*models.Workload, error)
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// PackageStore persists tour packages and their seat counts
type PackageStore interface {
	Create(ctx context.Context, pkg *models.TourPackage) error
	Update(ctx context.Context, pkg *models.TourPackage) error
	GetByID(ctx context.Context, id int64) (*models.TourPackage, error)
	GetBySlug(ctx context.Context, slug string) (*models.TourPackage, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter models.PackageFilter) ([]models.TourPackage, error)
	SetActive(ctx context.Context, id int64, active bool, at time.Time) error
	ToggleFeatured(ctx context.Context, id int64, at time.Time) (*models.TourPackage, error)
	// ReserveSeats decrements seats_available by count if enough seats remain.
	// It returns sql.ErrNoRows when the package is missing or short of seats.
	ReserveSeats(ctx context.Context, id int64, count int) (int, error)
	// ReleaseSeats increments seats_available by count if it stays within seats_total.
	// It returns sql.ErrNoRows when the package is missing or would overflow.
	ReleaseSeats(ctx context.Context, id int64, count int) (int, error)
}

// BookingStore persists bookings
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	// CompareAndSwapStatus moves the booking from expected to next.
	// It returns sql.ErrNoRows when the booking no longer holds expected.
	CompareAndSwapStatus(ctx context.Context, id int64, expected, next models.BookingStatus, at time.Time) (*models.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]models.BookingListItem, error)
	ListAll(ctx context.Context, status *models.BookingStatus) ([]models.BookingListItem, error)
	ListDeparted(ctx context.Context, status models.BookingStatus, before time.Time) ([]models.Booking, error)
}

// UserStore persists accounts
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListTourGuides(ctx context.Context, limit, offset int) ([]models.TourGuideWithWorkload, int, error)
	SetActive(ctx context.Context, id int64, active bool, at time.Time) error
}

// ActivityStore persists the append-only activity trail
type ActivityStore interface {
	Insert(ctx context.Context, entry *models.ActivityLogEntry) error
	ListByRequest(ctx context.Context, requestID int64) ([]models.ActivityLogEntry, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]models.ActivityLogEntry, error)
}

// WorkloadCache holds recently computed guide workloads
type WorkloadCache interface {
	Get(ctx context.Context, guideID int64) (*models.Workload, bool, error)
	Set(ctx context.Context, workload *models.Workload) error
	Invalidate(ctx context.Context, guideIDs ...int64) error
}
