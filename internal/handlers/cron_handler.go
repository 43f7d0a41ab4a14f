package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tourdesk/travel-backend/internal/services"
)

// CronHandler exposes the scheduled jobs to admins. cron may be nil when
// scheduling is disabled.
type CronHandler struct {
	cron *services.CronService
}

// NewCronHandler creates a new cron handler
func NewCronHandler(cron *services.CronService) *CronHandler {
	return &CronHandler{cron: cron}
}

// Status handles GET /api/v1/admin/cron/status
func (h *CronHandler) Status(c *gin.Context) {
	if h.cron == nil {
		c.JSON(http.StatusOK, gin.H{"running": false, "job_count": 0})
		return
	}
	c.JSON(http.StatusOK, h.cron.GetJobStatus())
}

// RunBookingSweep handles POST /api/v1/admin/cron/booking-sweep
func (h *CronHandler) RunBookingSweep(c *gin.Context) {
	if h.cron == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "cron_disabled",
			Message: "Scheduled jobs are disabled",
		})
		return
	}

	go h.cron.RunBookingSweepNow()

	c.JSON(http.StatusAccepted, gin.H{"message": "Booking sweep started"})
}
