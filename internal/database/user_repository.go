package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tourdesk/travel-backend/internal/models"
)

const userColumns = `id, name, email, phone, role, active, password_hash, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create inserts a user and sets its ID. A taken email or phone returns models.ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, phone, role, active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.Role,
		user.Active,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapWriteError(err))
	}
	return nil
}

// GetByID returns a user or sql.ErrNoRows
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIdentifier finds a user by email or phone number
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR phone = $1 LIMIT 1`
	if err := conn(ctx, r.db).GetContext(ctx, &user, query, identifier); err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether an account already uses email
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	if err := conn(ctx, r.db).GetContext(ctx, &exists, query, email); err != nil {
		return false, err
	}
	return exists, nil
}

// ListTourGuides returns one page of agents with workload counts and the total number of agents
func (r *UserRepository) ListTourGuides(ctx context.Context, limit, offset int) ([]models.TourGuideWithWorkload, int, error) {
	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, `SELECT COUNT(*) FROM users WHERE role = 'agent'`); err != nil {
		return nil, 0, fmt.Errorf("failed to count tour guides: %w", err)
	}

	query := `
		SELECT
			u.id, u.name, u.email, u.phone, u.role, u.active, u.password_hash, u.created_at, u.updated_at,
			COUNT(r.id) AS total_requests,
			COUNT(r.id) FILTER (WHERE r.status IN ('assigned', 'in_progress')) AS active_requests,
			COUNT(r.id) FILTER (WHERE r.status = 'completed') AS completed_requests
		FROM users u
		LEFT JOIN travel_requests r ON r.tour_guide_id = u.id
		WHERE u.role = 'agent'
		GROUP BY u.id
		ORDER BY u.name, u.id
		LIMIT $1 OFFSET $2
	`
	guides := []models.TourGuideWithWorkload{}
	if err := conn(ctx, r.db).SelectContext(ctx, &guides, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list tour guides: %w", err)
	}
	return guides, total, nil
}

// SetActive activates or deactivates an account
func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool, at time.Time) error {
	query := `UPDATE users SET active = $1, updated_at = $2 WHERE id = $3`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, active, at, id)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return requireRow(result)
}
