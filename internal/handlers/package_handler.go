package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/models"
	"github.com/tourdesk/travel-backend/internal/services"
)

// PackageHandler serves the tour package catalog
type PackageHandler struct {
	packages *services.PackageService
	logger   *logrus.Logger
}

// NewPackageHandler creates a new package handler
func NewPackageHandler(packages *services.PackageService, logger *logrus.Logger) *PackageHandler {
	return &PackageHandler{
		packages: packages,
		logger:   logger,
	}
}

// ListPackages handles GET /api/v1/packages
// Query: active, featured, destination. Only an admin token can list inactive packages.
func (h *PackageHandler) ListPackages(c *gin.Context) {
	filter := models.PackageFilter{
		Active:      boolQuery(c, "active"),
		Featured:    boolQuery(c, "featured"),
		Destination: strings.TrimSpace(c.Query("destination")),
	}
	if filter.Active == nil {
		active := true
		filter.Active = &active
	}

	packages, err := h.packages.ListPackages(c.Request.Context(), optionalActor(c), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  packages,
		"total": len(packages),
	})
}

// GetPackage handles GET /api/v1/packages/:idOrSlug
func (h *PackageHandler) GetPackage(c *gin.Context) {
	pkg, err := h.packages.GetPackage(c.Request.Context(), optionalActor(c), c.Param("idOrSlug"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, pkg)
}

// CreatePackage handles POST /api/v1/packages
func (h *PackageHandler) CreatePackage(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req models.PackageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	pkg, err := h.packages.CreatePackage(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, pkg)
}

// UpdatePackage handles PUT /api/v1/packages/:id
func (h *PackageHandler) UpdatePackage(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.PackageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	pkg, err := h.packages.UpdatePackage(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, pkg)
}

// DeletePackage handles DELETE /api/v1/packages/:id
func (h *PackageHandler) DeletePackage(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.packages.DeletePackage(c.Request.Context(), actor, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Package deactivated"})
}

// ToggleFeatured handles PATCH /api/v1/packages/:id/toggle-featured
func (h *PackageHandler) ToggleFeatured(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	pkg, err := h.packages.ToggleFeatured(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, pkg)
}
