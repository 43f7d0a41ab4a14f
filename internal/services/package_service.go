package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/models"
)

// maxSlugAttempts bounds the numeric suffix search for a free slug
const maxSlugAttempts = 50

// PackageService manages the tour package catalog
type PackageService struct {
	packages PackageStore
	clock    Clock
	logger   *logrus.Logger
}

// NewPackageService creates a new PackageService
func NewPackageService(packages PackageStore, clock Clock, logger *logrus.Logger) *PackageService {
	return &PackageService{
		packages: packages,
		clock:    clock,
		logger:   logger,
	}
}

// CreatePackage adds a package with all seats available and a unique slug
func (s *PackageService) CreatePackage(ctx context.Context, actor Actor, input *models.PackageInput) (*models.TourPackage, error) {
	if !actor.IsAdmin() {
		return nil, forbidden(EntityPackage, 0, "admin only")
	}
	if err := models.Validate.Struct(input); err != nil {
		return nil, invalidInput("invalid package", err)
	}

	packageSlug, err := s.uniqueSlug(ctx, input.Title)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	pkg := &models.TourPackage{
		Slug:      packageSlug,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyPackageInput(pkg, input)
	pkg.SeatsAvailable = pkg.SeatsTotal

	if err := s.packages.Create(ctx, pkg); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, &DomainError{Kind: KindConflict, Entity: EntityPackage, Detail: "slug " + pkg.Slug + " is taken"}
		}
		return nil, fmt.Errorf("failed to create package: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"package_id": pkg.ID,
		"slug":       pkg.Slug,
		"seats":      pkg.SeatsTotal,
	}).Info("Tour package created")

	return pkg, nil
}

// UpdatePackage edits a package. A change of seats_total shifts seats_available
// by the same amount; shrinking below the seats already booked is rejected.
func (s *PackageService) UpdatePackage(ctx context.Context, actor Actor, packageID int64, input *models.PackageInput) (*models.TourPackage, error) {
	if !actor.IsAdmin() {
		return nil, forbidden(EntityPackage, packageID, "admin only")
	}
	if err := models.Validate.Struct(input); err != nil {
		return nil, invalidInput("invalid package", err)
	}

	pkg, err := s.load(ctx, packageID)
	if err != nil {
		return nil, err
	}

	if input.SeatsTotal < pkg.SeatsBooked() {
		return nil, &DomainError{
			Kind:     KindInventoryInconsistency,
			Entity:   EntityPackage,
			EntityID: packageID,
			Detail:   fmt.Sprintf("seats_total %d is below the %d seats already booked", input.SeatsTotal, pkg.SeatsBooked()),
		}
	}

	if !strings.EqualFold(strings.TrimSpace(input.Title), pkg.Title) {
		if pkg.Slug, err = s.uniqueSlug(ctx, input.Title); err != nil {
			return nil, err
		}
	}

	pkg.SeatsAvailable += input.SeatsTotal - pkg.SeatsTotal
	applyPackageInput(pkg, input)
	pkg.UpdatedAt = s.clock.Now()

	if err := s.packages.Update(ctx, pkg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// seats moved between our read and the guarded update
			return nil, &DomainError{Kind: KindInventoryInconsistency, Entity: EntityPackage, EntityID: packageID, Detail: "seat counts changed concurrently"}
		}
		if errors.Is(err, models.ErrDuplicate) {
			return nil, &DomainError{Kind: KindConflict, Entity: EntityPackage, EntityID: packageID, Detail: "slug " + pkg.Slug + " is taken"}
		}
		return nil, fmt.Errorf("failed to update package: %w", err)
	}

	return s.load(ctx, packageID)
}

// DeletePackage deactivates a package; existing bookings keep their seats
func (s *PackageService) DeletePackage(ctx context.Context, actor Actor, packageID int64) error {
	if !actor.IsAdmin() {
		return forbidden(EntityPackage, packageID, "admin only")
	}
	if _, err := s.load(ctx, packageID); err != nil {
		return err
	}
	if err := s.packages.SetActive(ctx, packageID, false, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to deactivate package: %w", err)
	}
	return nil
}

// ToggleFeatured flips the featured flag
func (s *PackageService) ToggleFeatured(ctx context.Context, actor Actor, packageID int64) (*models.TourPackage, error) {
	if !actor.IsAdmin() {
		return nil, forbidden(EntityPackage, packageID, "admin only")
	}
	pkg, err := s.packages.ToggleFeatured(ctx, packageID, s.clock.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(EntityPackage, packageID)
		}
		return nil, fmt.Errorf("failed to toggle featured: %w", err)
	}
	return pkg, nil
}

// GetPackage looks a package up by numeric id or by slug
func (s *PackageService) GetPackage(ctx context.Context, actor Actor, idOrSlug string) (*models.TourPackage, error) {
	var (
		pkg *models.TourPackage
		err error
	)
	if id, parseErr := strconv.ParseInt(idOrSlug, 10, 64); parseErr == nil {
		pkg, err = s.load(ctx, id)
		if err != nil {
			return nil, err
		}
	} else {
		pkg, err = s.packages.GetBySlug(ctx, idOrSlug)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, &DomainError{Kind: KindNotFound, Entity: EntityPackage, Detail: idOrSlug}
			}
			return nil, fmt.Errorf("failed to get package: %w", err)
		}
	}

	// deleted packages stay visible to admins only
	if !pkg.Active && !actor.IsAdmin() {
		return nil, &DomainError{Kind: KindNotFound, Entity: EntityPackage, EntityID: pkg.ID, Detail: idOrSlug}
	}
	return pkg, nil
}

// ListPackages returns packages matching filter. Non-admin callers only ever
// see active packages, whatever the filter asks for.
func (s *PackageService) ListPackages(ctx context.Context, actor Actor, filter models.PackageFilter) ([]models.TourPackage, error) {
	if !actor.IsAdmin() {
		active := true
		filter.Active = &active
	}
	packages, err := s.packages.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return packages, nil
}

func (s *PackageService) load(ctx context.Context, packageID int64) (*models.TourPackage, error) {
	pkg, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(EntityPackage, packageID)
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return pkg, nil
}

// uniqueSlug derives a URL-safe slug from title, adding -2, -3, ... on collision
func (s *PackageService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		return "", invalidInput("title must contain letters or digits", nil)
	}

	candidate := base
	for attempt := 2; attempt <= maxSlugAttempts+1; attempt++ {
		exists, err := s.packages.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug uniqueness: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
	return "", &DomainError{Kind: KindConflict, Entity: EntityPackage, Detail: "could not find a free slug for " + base}
}

// applyPackageInput copies the editable fields; seats_available is left to the caller
func applyPackageInput(pkg *models.TourPackage, input *models.PackageInput) {
	pkg.SeatsTotal = input.SeatsTotal
	pkg.Title = strings.TrimSpace(input.Title)
	pkg.Destination = strings.TrimSpace(input.Destination)
	pkg.Description = input.Description
	pkg.ImageURL = input.ImageURL
	pkg.Price = input.Price
	pkg.DurationDays = input.DurationDays
	pkg.DurationNights = input.DurationNights
	pkg.Itinerary = input.Itinerary
	pkg.Includes = append([]string{}, input.Includes...)
	pkg.Excludes = append([]string{}, input.Excludes...)
	pkg.Highlights = append([]string{}, input.Highlights...)
	pkg.Featured = input.Featured
	if input.Active != nil {
		pkg.Active = *input.Active
	}
}
