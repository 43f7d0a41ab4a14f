package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/models"
	"github.com/tourdesk/travel-backend/internal/services"
)

// BookingHandler serves package bookings
type BookingHandler struct {
	bookings *services.BookingService
	logger   *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		logger:   logger,
	}
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req models.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// ListMyBookings handles GET /api/v1/bookings/my-bookings
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	bookings, err := h.bookings.ListMyBookings(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  bookings,
		"total": len(bookings),
	})
}

// ListAllBookings handles GET /api/v1/bookings/admin/all?status=
func (h *BookingHandler) ListAllBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var status *models.BookingStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" && raw != "all" {
		s := models.BookingStatus(raw)
		status = &s
	}

	bookings, err := h.bookings.ListAllBookings(c.Request.Context(), actor, status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  bookings,
		"total": len(bookings),
	})
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.GetBooking(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// CancelBooking handles PATCH /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.CancelBooking(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// UpdateStatus handles PATCH /api/v1/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateBookingStatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, err := h.bookings.UpdateBookingStatus(c.Request.Context(), actor, id, models.BookingStatus(req.Status))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// Activity handles GET /api/v1/bookings/:id/activity
func (h *BookingHandler) Activity(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.bookings.ActivityForBooking(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}
