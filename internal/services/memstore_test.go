package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/models"
	"github.com/tourdesk/travel-backend/pkg/jwt"
	"github.com/tourdesk/travel-backend/pkg/validator"
)

var errStoreDown = errors.New("store unavailable")

// errSeatsBounds stands in for a violation of tour_packages_seats_bounds
var errSeatsBounds = errors.New("seats_available out of bounds")

func seatsInBounds(total, available int) bool {
	return total >= 1 && available >= 0 && available <= total
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// memDB is an in-memory database shared by the store fakes below.
// Writes made inside WithinTx are undone if the transaction fails.
type memDB struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*models.User
	requests map[int64]*models.TravelRequest
	packages map[int64]*models.TourPackage
	bookings map[int64]*models.Booking
	activity []models.ActivityLogEntry

	failActivity      bool
	failBookingCreate bool
	// beforeCAS runs before each request compare-and-swap, outside the lock
	beforeCAS func(id int64)
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[int64]*models.User{},
		requests: map[int64]*models.TravelRequest{},
		packages: map[int64]*models.TourPackage{},
		bookings: map[int64]*models.Booking{},
	}
}

type memTxKey struct{}

type memTx struct {
	undo []func()
}

// onRollback registers undo for the transaction in ctx. Callers hold db.mu.
func (db *memDB) onRollback(ctx context.Context, undo func()) {
	if tx, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		tx.undo = append(tx.undo, undo)
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		return fn(ctx)
	}
	tx := &memTx{}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		db.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		db.mu.Unlock()
		return err
	}
	return nil
}

func (db *memDB) activityCount(action string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, e := range db.activity {
		if e.Action == action {
			n++
		}
	}
	return n
}

func (db *memDB) seats(packageID int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.packages[packageID].SeatsAvailable
}

// memRequests implements RequestStore
type memRequests struct{ db *memDB }

func (s memRequests) Create(ctx context.Context, req *models.TravelRequest) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	req.ID = s.db.id()
	cp := *req
	s.db.requests[req.ID] = &cp
	return nil
}

func (s memRequests) GetByID(ctx context.Context, id int64) (*models.TravelRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	req, ok := s.db.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *req
	return &cp, nil
}

func (s memRequests) detail(req *models.TravelRequest) models.TravelRequestDetail {
	d := models.TravelRequestDetail{TravelRequest: *req}
	if u, ok := s.db.users[req.UserID]; ok {
		d.UserName, d.UserEmail, d.UserPhone = &u.Name, &u.Email, u.Phone
	}
	if req.TourGuideID != nil {
		if g, ok := s.db.users[*req.TourGuideID]; ok {
			d.TourGuideName, d.TourGuideEmail, d.TourGuidePhone = &g.Name, &g.Email, g.Phone
		}
	}
	return d
}

func (s memRequests) GetDetail(ctx context.Context, id int64) (*models.TravelRequestDetail, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	req, ok := s.db.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d := s.detail(req)
	return &d, nil
}

func (s memRequests) List(ctx context.Context, filter models.RequestFilter) ([]models.TravelRequestDetail, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var matched []*models.TravelRequest
	for _, req := range s.db.requests {
		if filter.UserID != nil && req.UserID != *filter.UserID {
			continue
		}
		if filter.TourGuideID != nil && !req.IsAssignedTo(*filter.TourGuideID) {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.Destination != "" && !strings.Contains(strings.ToLower(req.Destination), strings.ToLower(filter.Destination)) {
			continue
		}
		matched = append(matched, req)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	page := []models.TravelRequestDetail{}
	for i := filter.Offset(); i < len(matched) && len(page) < filter.Limit; i++ {
		page = append(page, s.detail(matched[i]))
	}
	return page, len(matched), nil
}

func (s memRequests) CompareAndSwap(ctx context.Context, id int64, expected, next RequestState, at time.Time) (*models.TravelRequest, error) {
	if s.db.beforeCAS != nil {
		s.db.beforeCAS(id)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	req, ok := s.db.requests[id]
	if !ok || req.Status != expected.Status || !sameGuide(req.TourGuideID, expected.TourGuideID) {
		return nil, sql.ErrNoRows
	}
	// mirrors the tour_guide_id CHECK constraint
	if next.Status.RequiresGuide() != (next.TourGuideID != nil) {
		return nil, errors.New("check constraint violated: travel_requests_guide_matches_status")
	}

	prev := *req
	s.db.onRollback(ctx, func() { *req = prev })
	req.Status = next.Status
	req.TourGuideID = next.TourGuideID
	req.UpdatedAt = at
	cp := *req
	return &cp, nil
}

func sameGuide(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s memRequests) stats(match func(*models.TravelRequest) bool) *models.RequestStats {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stats := &models.RequestStats{}
	for _, req := range s.db.requests {
		if !match(req) {
			continue
		}
		stats.Total++
		switch req.Status {
		case models.RequestStatusPending:
			stats.Pending++
		case models.RequestStatusAssigned:
			stats.Assigned++
		case models.RequestStatusInProgress:
			stats.InProgress++
		case models.RequestStatusCompleted:
			stats.Completed++
		case models.RequestStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

func (s memRequests) StatsByUser(ctx context.Context, userID int64) (*models.RequestStats, error) {
	return s.stats(func(r *models.TravelRequest) bool { return r.UserID == userID }), nil
}

func (s memRequests) StatsByTourGuide(ctx context.Context, guideID int64) (*models.RequestStats, error) {
	return s.stats(func(r *models.TravelRequest) bool { return r.IsAssignedTo(guideID) }), nil
}

func (s memRequests) Workload(ctx context.Context, guideID int64) (*models.Workload, error) {
	stats := s.stats(func(r *models.TravelRequest) bool { return r.IsAssignedTo(guideID) })
	return &models.Workload{
		TourGuideID:       guideID,
		TotalRequests:     stats.Total,
		ActiveRequests:    stats.Assigned + stats.InProgress,
		CompletedRequests: stats.Completed,
	}, nil
}

func (s memRequests) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	all := s.stats(func(*models.TravelRequest) bool { return true })

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	d := &models.DashboardStats{
		TotalRequests:      all.Total,
		PendingRequests:    all.Pending,
		AssignedRequests:   all.Assigned,
		InProgressRequests: all.InProgress,
		CompletedRequests:  all.Completed,
		CancelledRequests:  all.Cancelled,
	}
	for _, u := range s.db.users {
		switch u.Role {
		case models.RoleUser:
			d.TotalUsers++
		case models.RoleAgent:
			d.TotalTourGuides++
			if u.Active {
				d.ActiveTourGuides++
			}
		}
	}
	return d, nil
}

// memPackages implements PackageStore
type memPackages struct{ db *memDB }

func (s memPackages) Create(ctx context.Context, pkg *models.TourPackage) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if !seatsInBounds(pkg.SeatsTotal, pkg.SeatsAvailable) {
		return errSeatsBounds
	}
	for _, p := range s.db.packages {
		if p.Slug == pkg.Slug {
			return models.ErrDuplicate
		}
	}
	pkg.ID = s.db.id()
	cp := *pkg
	s.db.packages[pkg.ID] = &cp
	return nil
}

// Update applies the seats_total delta to the stored row, like the SQL version
func (s memPackages) Update(ctx context.Context, pkg *models.TourPackage) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.packages[pkg.ID]
	if !ok {
		return sql.ErrNoRows
	}
	available := stored.SeatsAvailable + pkg.SeatsTotal - stored.SeatsTotal
	if available < 0 {
		return sql.ErrNoRows
	}
	if !seatsInBounds(pkg.SeatsTotal, available) {
		return errSeatsBounds
	}
	cp := *pkg
	cp.SeatsAvailable = available
	cp.CreatedAt = stored.CreatedAt
	s.db.packages[pkg.ID] = &cp
	return nil
}

func (s memPackages) GetByID(ctx context.Context, id int64) (*models.TourPackage, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	pkg, ok := s.db.packages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *pkg
	return &cp, nil
}

func (s memPackages) GetBySlug(ctx context.Context, slug string) (*models.TourPackage, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, pkg := range s.db.packages {
		if pkg.Slug == slug {
			cp := *pkg
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s memPackages) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := s.GetBySlug(ctx, slug)
	return err == nil, nil
}

func (s memPackages) List(ctx context.Context, filter models.PackageFilter) ([]models.TourPackage, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	packages := []models.TourPackage{}
	for _, pkg := range s.db.packages {
		if filter.Active != nil && pkg.Active != *filter.Active {
			continue
		}
		if filter.Featured != nil && pkg.Featured != *filter.Featured {
			continue
		}
		if filter.Destination != "" && !strings.Contains(strings.ToLower(pkg.Destination), strings.ToLower(filter.Destination)) {
			continue
		}
		packages = append(packages, *pkg)
	}
	sort.Slice(packages, func(i, j int) bool { return packages[i].ID > packages[j].ID })
	return packages, nil
}

func (s memPackages) SetActive(ctx context.Context, id int64, active bool, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	pkg, ok := s.db.packages[id]
	if !ok {
		return sql.ErrNoRows
	}
	pkg.Active = active
	pkg.UpdatedAt = at
	return nil
}

func (s memPackages) ToggleFeatured(ctx context.Context, id int64, at time.Time) (*models.TourPackage, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	pkg, ok := s.db.packages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	pkg.Featured = !pkg.Featured
	pkg.UpdatedAt = at
	cp := *pkg
	return &cp, nil
}

func (s memPackages) ReserveSeats(ctx context.Context, id int64, count int) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	pkg, ok := s.db.packages[id]
	if !ok || !seatsInBounds(pkg.SeatsTotal, pkg.SeatsAvailable-count) {
		return 0, sql.ErrNoRows
	}
	pkg.SeatsAvailable -= count
	s.db.onRollback(ctx, func() { pkg.SeatsAvailable += count })
	return pkg.SeatsAvailable, nil
}

func (s memPackages) ReleaseSeats(ctx context.Context, id int64, count int) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	pkg, ok := s.db.packages[id]
	if !ok || !seatsInBounds(pkg.SeatsTotal, pkg.SeatsAvailable+count) {
		return 0, sql.ErrNoRows
	}
	pkg.SeatsAvailable += count
	s.db.onRollback(ctx, func() { pkg.SeatsAvailable -= count })
	return pkg.SeatsAvailable, nil
}

// memBookings implements BookingStore
type memBookings struct{ db *memDB }

func (s memBookings) Create(ctx context.Context, booking *models.Booking) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failBookingCreate {
		return errStoreDown
	}
	booking.ID = s.db.id()
	cp := *booking
	s.db.bookings[booking.ID] = &cp
	id := booking.ID
	s.db.onRollback(ctx, func() { delete(s.db.bookings, id) })
	return nil
}

func (s memBookings) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	booking, ok := s.db.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *booking
	return &cp, nil
}

func (s memBookings) CompareAndSwapStatus(ctx context.Context, id int64, expected, next models.BookingStatus, at time.Time) (*models.Booking, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	booking, ok := s.db.bookings[id]
	if !ok || booking.Status != expected {
		return nil, sql.ErrNoRows
	}
	prev := *booking
	s.db.onRollback(ctx, func() { *booking = prev })
	booking.Status = next
	booking.UpdatedAt = at
	cp := *booking
	return &cp, nil
}

func (s memBookings) list(match func(*models.Booking) bool) []models.BookingListItem {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	items := []models.BookingListItem{}
	for _, b := range s.db.bookings {
		if !match(b) {
			continue
		}
		item := models.BookingListItem{Booking: *b}
		if pkg, ok := s.db.packages[b.PackageID]; ok {
			item.PackageTitle, item.PackageSlug, item.PackageDestination = pkg.Title, pkg.Slug, pkg.Destination
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items
}

func (s memBookings) ListByUser(ctx context.Context, userID int64) ([]models.BookingListItem, error) {
	return s.list(func(b *models.Booking) bool { return b.UserID == userID }), nil
}

func (s memBookings) ListAll(ctx context.Context, status *models.BookingStatus) ([]models.BookingListItem, error) {
	return s.list(func(b *models.Booking) bool { return status == nil || b.Status == *status }), nil
}

func (s memBookings) ListDeparted(ctx context.Context, status models.BookingStatus, before time.Time) ([]models.Booking, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var departed []models.Booking
	for _, b := range s.db.bookings {
		pkg, ok := s.db.packages[b.PackageID]
		if !ok || b.Status != status {
			continue
		}
		if b.DepartureDate.AddDate(0, 0, pkg.DurationDays).Before(before) {
			departed = append(departed, *b)
		}
	}
	sort.Slice(departed, func(i, j int) bool { return departed[i].ID < departed[j].ID })
	return departed, nil
}

// memUsers implements UserStore
type memUsers struct{ db *memDB }

func (s memUsers) Create(ctx context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Email == user.Email || (u.Phone != nil && user.Phone != nil && *u.Phone == *user.Phone) {
			return models.ErrDuplicate
		}
	}
	user.ID = s.db.id()
	cp := *user
	s.db.users[user.ID] = &cp
	return nil
}

func (s memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (s memUsers) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Email == identifier || (u.Phone != nil && *u.Phone == identifier) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s memUsers) ListTourGuides(ctx context.Context, limit, offset int) ([]models.TourGuideWithWorkload, int, error) {
	s.db.mu.Lock()
	var guides []models.User
	for _, u := range s.db.users {
		if u.IsTourGuide() {
			guides = append(guides, *u)
		}
	}
	s.db.mu.Unlock()

	sort.Slice(guides, func(i, j int) bool {
		if guides[i].Name != guides[j].Name {
			return guides[i].Name < guides[j].Name
		}
		return guides[i].ID < guides[j].ID
	})

	page := []models.TourGuideWithWorkload{}
	requests := memRequests{db: s.db}
	for i := offset; i < len(guides) && len(page) < limit; i++ {
		w, _ := requests.Workload(ctx, guides[i].ID)
		page = append(page, models.TourGuideWithWorkload{
			User:              guides[i],
			TotalRequests:     w.TotalRequests,
			ActiveRequests:    w.ActiveRequests,
			CompletedRequests: w.CompletedRequests,
		})
	}
	return page, len(guides), nil
}

func (s memUsers) SetActive(ctx context.Context, id int64, active bool, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Active = active
	u.UpdatedAt = at
	return nil
}

// memActivity implements ActivityStore
type memActivity struct{ db *memDB }

func (s memActivity) Insert(ctx context.Context, entry *models.ActivityLogEntry) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failActivity {
		return errStoreDown
	}
	entry.ID = s.db.id()
	s.db.activity = append(s.db.activity, *entry)
	return nil
}

func (s memActivity) list(match func(*models.ActivityLogEntry) bool) []models.ActivityLogEntry {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	entries := []models.ActivityLogEntry{}
	for i := range s.db.activity {
		if match(&s.db.activity[i]) {
			entries = append(entries, s.db.activity[i])
		}
	}
	return entries
}

func (s memActivity) ListByRequest(ctx context.Context, requestID int64) ([]models.ActivityLogEntry, error) {
	return s.list(func(e *models.ActivityLogEntry) bool { return e.RequestID != nil && *e.RequestID == requestID }), nil
}

func (s memActivity) ListByBooking(ctx context.Context, bookingID int64) ([]models.ActivityLogEntry, error) {
	return s.list(func(e *models.ActivityLogEntry) bool { return e.BookingID != nil && *e.BookingID == bookingID }), nil
}

// memCache implements WorkloadCache
type memCache struct {
	mu          sync.Mutex
	entries     map[int64]models.Workload
	invalidated []int64
}

func newMemCache() *memCache {
	return &memCache{entries: map[int64]models.Workload{}}
}

func (c *memCache) Get(ctx context.Context, guideID int64) (*models.Workload, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.entries[guideID]
	if !ok {
		return nil, false, nil
	}
	return &w, true, nil
}

func (c *memCache) Set(ctx context.Context, workload *models.Workload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[workload.TourGuideID] = *workload
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, guideIDs ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range guideIDs {
		delete(c.entries, id)
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

// testEnv wires every service against one memDB
type testEnv struct {
	db          *memDB
	cache       *memCache
	audit       *AuditService
	machine     *RequestStateMachine
	ledger      *InventoryLedger
	requests    *RequestService
	assignments *AssignmentService
	bookings    *BookingService
	packages    *PackageService
	guides      *GuideService
	accounts    *AccountService
	jwt         *jwt.Service
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newMemDB()
	cache := newMemCache()
	clock := fixedClock{now: testNow}
	logger := quietLogger()
	phones := validator.NewPhoneValidator()
	jwtService := jwt.NewService("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)

	requests := memRequests{db: db}
	packages := memPackages{db: db}
	users := memUsers{db: db}

	audit := NewAuditService(memActivity{db: db}, clock, logger, true)
	machine := NewRequestStateMachine(requests, clock)
	ledger := NewInventoryLedger(packages, logger)

	return &testEnv{
		db:          db,
		cache:       cache,
		audit:       audit,
		machine:     machine,
		ledger:      ledger,
		requests:    NewRequestService(requests, machine, audit, cache, clock, logger),
		assignments: NewAssignmentService(requests, users, machine, audit, cache, logger),
		bookings:    NewBookingService(db, memBookings{db: db}, packages, ledger, audit, phones, clock, logger),
		packages:    NewPackageService(packages, clock, logger),
		guides:      NewGuideService(users, requests, clock, logger),
		accounts:    NewAccountService(users, jwtService, phones, 4, clock, logger),
		jwt:         jwtService,
	}
}

func (e *testEnv) addUser(t *testing.T, role string, active bool) *models.User {
	t.Helper()
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	id := e.db.id()
	phone := fmt.Sprintf("+9477%07d", id)
	u := &models.User{
		ID:        id,
		Name:      role + "-" + itoa(id),
		Email:     role + itoa(id) + "@example.com",
		Phone:     &phone,
		Role:      role,
		Active:    active,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	e.db.users[id] = u
	cp := *u
	return &cp
}

func (e *testEnv) addPackage(t *testing.T, seats int, price float64, active bool) *models.TourPackage {
	t.Helper()
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	id := e.db.id()
	pkg := &models.TourPackage{
		ID:             id,
		Slug:           "package-" + itoa(id),
		Title:          "Package " + itoa(id),
		Destination:    "Kandy",
		Description:    "Hill country tour",
		Price:          price,
		DurationDays:   3,
		DurationNights: 2,
		SeatsTotal:     seats,
		SeatsAvailable: seats,
		Active:         active,
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}
	e.db.packages[id] = pkg
	cp := *pkg
	return &cp
}

func (e *testEnv) addRequest(t *testing.T, userID int64, status models.RequestStatus, guideID *int64) *models.TravelRequest {
	t.Helper()
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	id := e.db.id()
	req := &models.TravelRequest{
		ID:          id,
		UserID:      userID,
		Destination: "Ella",
		Status:      status,
		TourGuideID: guideID,
		CreatedAt:   testNow.Add(time.Duration(id) * time.Minute),
		UpdatedAt:   testNow,
	}
	e.db.requests[id] = req
	cp := *req
	return &cp
}

func (e *testEnv) addBooking(t *testing.T, pkg *models.TourPackage, userID int64, travelers int, status models.BookingStatus, departure time.Time) *models.Booking {
	t.Helper()
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	id := e.db.id()
	b := &models.Booking{
		ID:            id,
		PackageID:     pkg.ID,
		UserID:        userID,
		DepartureDate: departure,
		NumTravelers:  travelers,
		ContactName:   "Nimal Perera",
		ContactEmail:  "nimal@example.com",
		ContactPhone:  "+94771234567",
		TotalPrice:    totalPrice(pkg.Price, travelers),
		Status:        status,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
	e.db.bookings[id] = b
	if status.HoldsSeats() {
		e.db.packages[pkg.ID].SeatsAvailable -= travelers
	}
	cp := *b
	return &cp
}

func (e *testEnv) request(id int64) models.TravelRequest {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	return *e.db.requests[id]
}

func (e *testEnv) booking(id int64) models.Booking {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	return *e.db.bookings[id]
}

func userActor(id int64) Actor  { return Actor{UserID: id, Role: models.RoleUser} }
func agentActor(id int64) Actor { return Actor{UserID: id, Role: models.RoleAgent} }
func adminActor(id int64) Actor { return Actor{UserID: id, Role: models.RoleAdmin} }

func int64Ptr(v int64) *int64 { return &v }

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
