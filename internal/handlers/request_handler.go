package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/models"
	"github.com/tourdesk/travel-backend/internal/services"
)

// RequestHandler serves travel requests to customers, tour guides and admins.
// Visibility is decided by the services from the caller's role.
type RequestHandler struct {
	requests    *services.RequestService
	assignments *services.AssignmentService
	logger      *logrus.Logger
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(
	requests *services.RequestService,
	assignments *services.AssignmentService,
	logger *logrus.Logger,
) *RequestHandler {
	return &RequestHandler{
		requests:    requests,
		assignments: assignments,
		logger:      logger,
	}
}

// CreateRequest handles POST /api/v1/user/requests
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req models.CreateTravelRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	created, err := h.requests.CreateRequest(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListRequests handles GET /user/requests, /tour-guide/requests and /admin/requests.
// Query: status, destination (admin only), page, limit.
func (h *RequestHandler) ListRequests(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	filter := models.RequestFilter{
		Page:  page,
		Limit: limit,
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" && status != "all" {
		s := models.RequestStatus(status)
		filter.Status = &s
	}
	if actor.IsAdmin() {
		filter.Destination = strings.TrimSpace(c.Query("destination"))
	}

	requests, total, err := h.requests.ListRequests(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, PageResponse{
		Data:  requests,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Stats handles GET /user/requests/stats and /tour-guide/requests/stats
func (h *RequestHandler) Stats(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	stats, err := h.requests.Stats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetRequest handles GET .../requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.requests.GetRequest(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// CancelRequest handles PATCH /api/v1/user/requests/:id/cancel
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	updated, err := h.requests.CancelRequest(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// UpdateStatus handles POST /tour-guide/requests/:id/status and /admin/requests/:id/status
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateRequestStatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.requests.UpdateRequestStatus(c.Request.Context(), actor, id, models.RequestStatus(req.Status), req.Note)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Activity handles GET .../requests/:id/activity
func (h *RequestHandler) Activity(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.requests.Activity(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// Assign handles POST /api/v1/admin/requests/:id/assign
func (h *RequestHandler) Assign(c *gin.Context) {
	h.setAssignment(c, h.assignments.Assign)
}

// Reassign handles POST /api/v1/admin/requests/:id/reassign
func (h *RequestHandler) Reassign(c *gin.Context) {
	h.setAssignment(c, h.assignments.Reassign)
}

func (h *RequestHandler) setAssignment(
	c *gin.Context,
	apply func(ctx context.Context, actor services.Actor, requestID, guideID int64) (*models.TravelRequest, error),
) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.AssignRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := apply(c.Request.Context(), actor, id, req.TourGuideID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DashboardStats handles GET /api/v1/admin/dashboard/stats
func (h *RequestHandler) DashboardStats(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	stats, err := h.requests.DashboardStats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
