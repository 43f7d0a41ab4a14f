package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/middleware"
	"github.com/tourdesk/travel-backend/internal/services"
	"github.com/tourdesk/travel-backend/internal/utils"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PageResponse wraps a paginated listing
type PageResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

var kindStatus = map[services.ErrorKind]int{
	services.KindNotFound:               http.StatusNotFound,
	services.KindForbidden:              http.StatusForbidden,
	services.KindUnauthenticated:        http.StatusUnauthorized,
	services.KindIllegalTransition:      http.StatusConflict,
	services.KindRequestNotAssignable:   http.StatusConflict,
	services.KindAlreadyCancelled:       http.StatusConflict,
	services.KindNotCancellable:         http.StatusConflict,
	services.KindInsufficientInventory:  http.StatusConflict,
	services.KindConflict:               http.StatusConflict,
	services.KindInvalidInput:           http.StatusBadRequest,
	services.KindGuideInactive:          http.StatusUnprocessableEntity,
	services.KindPackageUnavailable:     http.StatusUnprocessableEntity,
	services.KindInvalidDeparture:       http.StatusUnprocessableEntity,
	services.KindInvalidTravelerCount:   http.StatusUnprocessableEntity,
	services.KindInventoryInconsistency: http.StatusInternalServerError,
	services.KindAuditWriteFailure:      http.StatusInternalServerError,
}

// statusForError maps a service error to its HTTP status
func statusForError(err error) int {
	if status, ok := kindStatus[services.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError renders err as JSON. Infrastructure errors are logged and
// hidden behind a generic message.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var de *services.DomainError
	if !errors.As(err, &de) {
		logger.WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": c.GetString(middleware.RequestIDKey),
			"error":      err,
		}).Error("Request failed")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := statusForError(de)
	if status >= http.StatusInternalServerError {
		logger.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"kind":  de.Kind,
			"error": de,
		}).Error("Request failed with domain error")
	}

	resp := ErrorResponse{
		Error:   string(de.Kind),
		Message: de.Error(),
	}
	if details := de.Details(); len(details) > 0 {
		resp.Details = details
	}
	c.JSON(status, resp)
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   string(services.KindInvalidInput),
		Message: "Invalid request body: " + err.Error(),
	})
}

// actorFrom builds the service actor from the authenticated user context
func actorFrom(c *gin.Context) (services.Actor, bool) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   string(services.KindUnauthenticated),
			Message: "Authentication required",
		})
		return services.Actor{}, false
	}
	return services.Actor{
		UserID:    userCtx.UserID,
		Role:      userCtx.Role,
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}, true
}

// optionalActor is actorFrom for public routes; anonymous callers get a zero Actor
func optionalActor(c *gin.Context) services.Actor {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		return services.Actor{}
	}
	return services.Actor{
		UserID:    userCtx.UserID,
		Role:      userCtx.Role,
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}
}

// idParam parses a positive int64 path parameter
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(services.KindInvalidInput),
			Message: "Invalid " + name,
		})
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return services.NormalizePage(page, limit)
}

func boolQuery(c *gin.Context, name string) *bool {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
