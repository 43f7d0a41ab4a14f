package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/services"
)

// GuideHandler serves the admin tour guide directory
type GuideHandler struct {
	guides      *services.GuideService
	assignments *services.AssignmentService
	logger      *logrus.Logger
}

// NewGuideHandler creates a new guide handler
func NewGuideHandler(guides *services.GuideService, assignments *services.AssignmentService, logger *logrus.Logger) *GuideHandler {
	return &GuideHandler{
		guides:      guides,
		assignments: assignments,
		logger:      logger,
	}
}

// ListTourGuides handles GET /api/v1/admin/tour-guides
func (h *GuideHandler) ListTourGuides(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	guides, total, err := h.guides.ListTourGuides(c.Request.Context(), actor, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, PageResponse{
		Data:  guides,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetTourGuide handles GET /api/v1/admin/tour-guides/:id
func (h *GuideHandler) GetTourGuide(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	guide, err := h.guides.GetTourGuide(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, guide)
}

// ToggleActive handles PATCH /api/v1/admin/tour-guides/:id/toggle-active
func (h *GuideHandler) ToggleActive(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	guide, err := h.guides.ToggleActive(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, guide)
}

// Workload handles GET /api/v1/admin/tour-guides/:id/workload
func (h *GuideHandler) Workload(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	workload, err := h.assignments.GetWorkload(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, workload)
}
