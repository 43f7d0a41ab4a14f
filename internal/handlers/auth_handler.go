package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/models"
	"github.com/tourdesk/travel-backend/internal/services"
	"github.com/tourdesk/travel-backend/internal/utils"
)

// AuthHandler handles account and token HTTP requests
type AuthHandler struct {
	accounts *services.AccountService
	logger   *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts *services.AccountService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.accounts.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": resp.User.ID,
		"ip":      utils.GetRealIP(c),
	}).Info("Account registered")

	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.accounts.Login(c.Request.Context(), &req)
	if err != nil {
		if services.KindOf(err) == services.KindUnauthenticated {
			h.logger.WithFields(logrus.Fields{
				"ip":         utils.GetRealIP(c),
				"user_agent": utils.GetUserAgent(c),
			}).Warn("Login failed")
		}
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.accounts.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	user, err := h.accounts.Me(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Logout handles POST /api/v1/auth/logout
// Tokens are stateless, so this only acknowledges the client dropping them.
func (h *AuthHandler) Logout(c *gin.Context) {
	if actor := optionalActor(c); actor.UserID != 0 {
		h.logger.WithFields(logrus.Fields{
			"user_id": actor.UserID,
			"ip":      actor.IPAddress,
		}).Info("User logged out")
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// RegisterTourGuide handles POST /api/v1/admin/register/tour-guide
func (h *AuthHandler) RegisterTourGuide(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req models.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	guide, err := h.accounts.RegisterTourGuide(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, guide)
}
