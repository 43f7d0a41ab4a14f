package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/models"
)

// GuideService is the admin directory of tour guides
type GuideService struct {
	users    UserStore
	requests RequestStore
	clock    Clock
	logger   *logrus.Logger
}

// NewGuideService creates a new GuideService
func NewGuideService(users UserStore, requests RequestStore, clock Clock, logger *logrus.Logger) *GuideService {
	return &GuideService{
		users:    users,
		requests: requests,
		clock:    clock,
		logger:   logger,
	}
}

// ListTourGuides returns a page of guides with their workload and the total count
func (s *GuideService) ListTourGuides(ctx context.Context, actor Actor, page, limit int) ([]models.TourGuideWithWorkload, int, error) {
	if !actor.IsAdmin() {
		return nil, 0, forbidden(EntityTourGuide, 0, "admin only")
	}
	page, limit = NormalizePage(page, limit)

	guides, total, err := s.users.ListTourGuides(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tour guides: %w", err)
	}
	return guides, total, nil
}

// GetTourGuide returns one guide with a fresh workload
func (s *GuideService) GetTourGuide(ctx context.Context, actor Actor, guideID int64) (*models.TourGuideWithWorkload, error) {
	if !actor.IsAdmin() {
		return nil, forbidden(EntityTourGuide, guideID, "admin only")
	}

	guide, err := s.loadGuide(ctx, guideID)
	if err != nil {
		return nil, err
	}

	workload, err := s.requests.Workload(ctx, guideID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute workload: %w", err)
	}

	return &models.TourGuideWithWorkload{
		User:              *guide,
		TotalRequests:     workload.TotalRequests,
		ActiveRequests:    workload.ActiveRequests,
		CompletedRequests: workload.CompletedRequests,
	}, nil
}

// ToggleActive flips a guide between active and inactive.
// Inactive guides keep their current assignments but cannot receive new ones.
func (s *GuideService) ToggleActive(ctx context.Context, actor Actor, guideID int64) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, forbidden(EntityTourGuide, guideID, "admin only")
	}

	guide, err := s.loadGuide(ctx, guideID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.users.SetActive(ctx, guideID, !guide.Active, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(EntityTourGuide, guideID)
		}
		return nil, fmt.Errorf("failed to update tour guide: %w", err)
	}
	guide.Active = !guide.Active
	guide.UpdatedAt = now

	s.logger.WithFields(logrus.Fields{
		"tour_guide_id": guideID,
		"active":        guide.Active,
		"actor_id":      actor.UserID,
	}).Info("Tour guide status toggled")

	return guide, nil
}

func (s *GuideService) loadGuide(ctx context.Context, guideID int64) (*models.User, error) {
	guide, err := s.users.GetByID(ctx, guideID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(EntityTourGuide, guideID)
		}
		return nil, fmt.Errorf("failed to get tour guide: %w", err)
	}
	if !guide.IsTourGuide() {
		return nil, notFound(EntityTourGuide, guideID)
	}
	return guide, nil
}
