package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tourdesk/travel-backend/internal/models"
	"github.com/tourdesk/travel-backend/internal/services"
)

const requestColumns = `id, user_id, destination, message, status, tour_guide_id, created_at, updated_at`

const requestDetailSelect = `
	SELECT
		r.id, r.user_id, r.destination, r.message, r.status, r.tour_guide_id,
		r.created_at, r.updated_at,
		u.name AS user_name, u.email AS user_email, u.phone AS user_phone,
		g.name AS tour_guide_name, g.email AS tour_guide_email, g.phone AS tour_guide_phone
	FROM travel_requests r
	JOIN users u ON u.id = r.user_id
	LEFT JOIN users g ON g.id = r.tour_guide_id
`

// TravelRequestRepository handles travel request database operations
type TravelRequestRepository struct {
	db DB
}

// NewTravelRequestRepository creates a new travel request repository
func NewTravelRequestRepository(db DB) *TravelRequestRepository {
	return &TravelRequestRepository{db: db}
}

// Create inserts a request and sets its ID
func (r *TravelRequestRepository) Create(ctx context.Context, req *models.TravelRequest) error {
	query := `
		INSERT INTO travel_requests (user_id, destination, message, status, tour_guide_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query,
		req.UserID,
		req.Destination,
		req.Message,
		req.Status,
		req.TourGuideID,
		req.CreatedAt,
		req.UpdatedAt,
	).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("failed to insert travel request: %w", err)
	}
	return nil
}

// GetByID returns a request or sql.ErrNoRows
func (r *TravelRequestRepository) GetByID(ctx context.Context, id int64) (*models.TravelRequest, error) {
	var req models.TravelRequest
	query := `SELECT ` + requestColumns + ` FROM travel_requests WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// GetDetail returns a request joined with owner and guide contact details
func (r *TravelRequestRepository) GetDetail(ctx context.Context, id int64) (*models.TravelRequestDetail, error) {
	var detail models.TravelRequestDetail
	if err := conn(ctx, r.db).GetContext(ctx, &detail, requestDetailSelect+` WHERE r.id = $1`, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns one page of requests matching filter, newest first, and the total match count
func (r *TravelRequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.TravelRequestDetail, int, error) {
	var (
		conditions []string
		args       []interface{}
	)
	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.UserID != nil {
		addCondition("r.user_id = $%d", *filter.UserID)
	}
	if filter.TourGuideID != nil {
		addCondition("r.tour_guide_id = $%d", *filter.TourGuideID)
	}
	if filter.Status != nil {
		addCondition("r.status = $%d", *filter.Status)
	}
	if filter.Destination != "" {
		addCondition("r.destination ILIKE $%d", "%"+filter.Destination+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM travel_requests r` + where
	if err := conn(ctx, r.db).GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count travel requests: %w", err)
	}

	pageArgs := append(args, filter.Limit, filter.Offset())
	query := requestDetailSelect + where +
		fmt.Sprintf(" ORDER BY r.created_at DESC, r.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	requests := []models.TravelRequestDetail{}
	if err := conn(ctx, r.db).SelectContext(ctx, &requests, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list travel requests: %w", err)
	}
	return requests, total, nil
}

// CompareAndSwap writes next only while the row still holds expected.
// A guide id of NULL on either side is compared with IS NOT DISTINCT FROM.
func (r *TravelRequestRepository) CompareAndSwap(ctx context.Context, id int64, expected, next services.RequestState, at time.Time) (*models.TravelRequest, error) {
	query := `
		UPDATE travel_requests
		SET status = $1, tour_guide_id = $2, updated_at = $3
		WHERE id = $4 AND status = $5 AND tour_guide_id IS NOT DISTINCT FROM $6
		RETURNING ` + requestColumns

	var req models.TravelRequest
	err := conn(ctx, r.db).GetContext(ctx, &req, query,
		next.Status,
		next.TourGuideID,
		at,
		id,
		expected.Status,
		expected.TourGuideID,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

const statsSelect = `
	SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'pending') AS pending,
		COUNT(*) FILTER (WHERE status = 'assigned') AS assigned,
		COUNT(*) FILTER (WHERE status = 'in_progress') AS in_progress,
		COUNT(*) FILTER (WHERE status = 'completed') AS completed,
		COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled
	FROM travel_requests
`

// StatsByUser counts a customer's requests per status
func (r *TravelRequestRepository) StatsByUser(ctx context.Context, userID int64) (*models.RequestStats, error) {
	var stats models.RequestStats
	if err := conn(ctx, r.db).GetContext(ctx, &stats, statsSelect+` WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	return &stats, nil
}

// StatsByTourGuide counts the requests assigned to a guide per status
func (r *TravelRequestRepository) StatsByTourGuide(ctx context.Context, guideID int64) (*models.RequestStats, error) {
	var stats models.RequestStats
	if err := conn(ctx, r.db).GetContext(ctx, &stats, statsSelect+` WHERE tour_guide_id = $1`, guideID); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Workload derives a guide's request counts from the requests currently naming them
func (r *TravelRequestRepository) Workload(ctx context.Context, guideID int64) (*models.Workload, error) {
	query := `
		SELECT
			$1::bigint AS tour_guide_id,
			COUNT(*) AS total_requests,
			COUNT(*) FILTER (WHERE status IN ('assigned', 'in_progress')) AS active_requests,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed_requests
		FROM travel_requests
		WHERE tour_guide_id = $1
	`
	var workload models.Workload
	if err := conn(ctx, r.db).GetContext(ctx, &workload, query, guideID); err != nil {
		return nil, err
	}
	return &workload, nil
}

// DashboardStats returns the admin overview counts
func (r *TravelRequestRepository) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM travel_requests) AS total_requests,
			(SELECT COUNT(*) FROM travel_requests WHERE status = 'pending') AS pending_requests,
			(SELECT COUNT(*) FROM travel_requests WHERE status = 'assigned') AS assigned_requests,
			(SELECT COUNT(*) FROM travel_requests WHERE status = 'in_progress') AS in_progress_requests,
			(SELECT COUNT(*) FROM travel_requests WHERE status = 'completed') AS completed_requests,
			(SELECT COUNT(*) FROM travel_requests WHERE status = 'cancelled') AS cancelled_requests,
			(SELECT COUNT(*) FROM users WHERE role = 'user') AS total_users,
			(SELECT COUNT(*) FROM users WHERE role = 'agent') AS total_tour_guides,
			(SELECT COUNT(*) FROM users WHERE role = 'agent' AND active) AS active_tour_guides
	`
	var stats models.DashboardStats
	if err := conn(ctx, r.db).GetContext(ctx, &stats, query); err != nil {
		return nil, err
	}
	return &stats, nil
}
