package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tourdesk/travel-backend/internal/models"
)

const packageColumns = `
	id, slug, title, destination, description, image_url, price,
	duration_days, duration_nights, seats_total, seats_available,
	itinerary, includes, excludes, highlights, featured, active,
	created_at, updated_at`

// TourPackageRepository handles tour package database operations
type TourPackageRepository struct {
	db DB
}

// NewTourPackageRepository creates a new tour package repository
func NewTourPackageRepository(db DB) *TourPackageRepository {
	return &TourPackageRepository{db: db}
}

// Create inserts a package and sets its ID
func (r *TourPackageRepository) Create(ctx context.Context, pkg *models.TourPackage) error {
	query := `
		INSERT INTO tour_packages (
			slug, title, destination, description, image_url, price,
			duration_days, duration_nights, seats_total, seats_available,
			itinerary, includes, excludes, highlights, featured, active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query,
		pkg.Slug,
		pkg.Title,
		pkg.Destination,
		pkg.Description,
		pkg.ImageURL,
		pkg.Price,
		pkg.DurationDays,
		pkg.DurationNights,
		pkg.SeatsTotal,
		pkg.SeatsAvailable,
		pkg.Itinerary,
		pkg.Includes,
		pkg.Excludes,
		pkg.Highlights,
		pkg.Featured,
		pkg.Active,
		pkg.CreatedAt,
		pkg.UpdatedAt,
	).Scan(&pkg.ID)
	if err != nil {
		return fmt.Errorf("failed to insert tour package: %w", mapWriteError(err))
	}
	return nil
}

// Update writes the editable fields of pkg. The seat delta is applied against
// the stored seats_total so concurrent reservations are not overwritten; it
// returns sql.ErrNoRows if that would leave seats_available negative.
func (r *TourPackageRepository) Update(ctx context.Context, pkg *models.TourPackage) error {
	query := `
		UPDATE tour_packages SET
			slug = $1, title = $2, destination = $3, description = $4, image_url = $5,
			price = $6, duration_days = $7, duration_nights = $8,
			seats_available = seats_available + ($9 - seats_total),
			seats_total = $9,
			itinerary = $10, includes = $11, excludes = $12, highlights = $13,
			featured = $14, active = $15, updated_at = $16
		WHERE id = $17 AND seats_available + ($9 - seats_total) >= 0
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		pkg.Slug,
		pkg.Title,
		pkg.Destination,
		pkg.Description,
		pkg.ImageURL,
		pkg.Price,
		pkg.DurationDays,
		pkg.DurationNights,
		pkg.SeatsTotal,
		pkg.Itinerary,
		pkg.Includes,
		pkg.Excludes,
		pkg.Highlights,
		pkg.Featured,
		pkg.Active,
		pkg.UpdatedAt,
		pkg.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tour package: %w", mapWriteError(err))
	}
	return requireRow(result)
}

// GetByID returns a package or sql.ErrNoRows
func (r *TourPackageRepository) GetByID(ctx context.Context, id int64) (*models.TourPackage, error) {
	var pkg models.TourPackage
	query := `SELECT ` + packageColumns + ` FROM tour_packages WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &pkg, query, id); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// GetBySlug returns a package or sql.ErrNoRows
func (r *TourPackageRepository) GetBySlug(ctx context.Context, slug string) (*models.TourPackage, error) {
	var pkg models.TourPackage
	query := `SELECT ` + packageColumns + ` FROM tour_packages WHERE slug = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &pkg, query, slug); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// SlugExists reports whether a package already uses slug
func (r *TourPackageRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM tour_packages WHERE slug = $1)`
	if err := conn(ctx, r.db).GetContext(ctx, &exists, query, slug); err != nil {
		return false, err
	}
	return exists, nil
}

// List returns packages matching filter, featured first then newest
func (r *TourPackageRepository) List(ctx context.Context, filter models.PackageFilter) ([]models.TourPackage, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		conditions = append(conditions, fmt.Sprintf("featured = $%d", len(args)))
	}
	if filter.Destination != "" {
		args = append(args, "%"+filter.Destination+"%")
		conditions = append(conditions, fmt.Sprintf("destination ILIKE $%d", len(args)))
	}

	query := `SELECT ` + packageColumns + ` FROM tour_packages`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY featured DESC, created_at DESC, id DESC"

	packages := []models.TourPackage{}
	if err := conn(ctx, r.db).SelectContext(ctx, &packages, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list tour packages: %w", err)
	}
	return packages, nil
}

// SetActive activates or deactivates a package
func (r *TourPackageRepository) SetActive(ctx context.Context, id int64, active bool, at time.Time) error {
	query := `UPDATE tour_packages SET active = $1, updated_at = $2 WHERE id = $3`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, active, at, id)
	if err != nil {
		return fmt.Errorf("failed to set package active: %w", err)
	}
	return requireRow(result)
}

// ToggleFeatured flips the featured flag and returns the updated package
func (r *TourPackageRepository) ToggleFeatured(ctx context.Context, id int64, at time.Time) (*models.TourPackage, error) {
	query := `
		UPDATE tour_packages SET featured = NOT featured, updated_at = $1
		WHERE id = $2
		RETURNING ` + packageColumns
	var pkg models.TourPackage
	if err := conn(ctx, r.db).GetContext(ctx, &pkg, query, at, id); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// ReserveSeats takes count seats in one conditional statement and returns the seats left.
// It returns sql.ErrNoRows when the package is missing or has fewer than count seats.
func (r *TourPackageRepository) ReserveSeats(ctx context.Context, id int64, count int) (int, error) {
	query := `
		UPDATE tour_packages
		SET seats_available = seats_available - $1, updated_at = NOW()
		WHERE id = $2 AND seats_available >= $1
		RETURNING seats_available
	`
	var remaining int
	if err := conn(ctx, r.db).GetContext(ctx, &remaining, query, count, id); err != nil {
		return 0, err
	}
	return remaining, nil
}

// ReleaseSeats returns count seats in one conditional statement and returns the seats available.
// It returns sql.ErrNoRows when the package is missing or the release would exceed seats_total.
func (r *TourPackageRepository) ReleaseSeats(ctx context.Context, id int64, count int) (int, error) {
	query := `
		UPDATE tour_packages
		SET seats_available = seats_available + $1, updated_at = NOW()
		WHERE id = $2 AND seats_available + $1 <= seats_total
		RETURNING seats_available
	`
	var available int
	if err := conn(ctx, r.db).GetContext(ctx, &available, query, count, id); err != nil {
		return 0, err
	}
	return available, nil
}

// requireRow maps an update that touched nothing to sql.ErrNoRows
func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
