package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/tourdesk/travel-backend/internal/middleware"
	"github.com/tourdesk/travel-backend/internal/models"
	"github.com/tourdesk/travel-backend/pkg/jwt"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Auth     *AuthHandler
	Requests *RequestHandler
	Guides   *GuideHandler
	Packages *PackageHandler
	Bookings *BookingHandler
	Cron     *CronHandler
}

// RegisterRoutes mounts the API on v1
func RegisterRoutes(v1 *gin.RouterGroup, jwtService *jwt.Service, h Handlers) {
	auth := middleware.AuthMiddleware(jwtService)

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.POST("/refresh", h.Auth.Refresh)
		authRoutes.POST("/logout", middleware.OptionalAuth(jwtService), h.Auth.Logout)
		authRoutes.GET("/me", auth, h.Auth.Me)
	}

	user := v1.Group("/user/requests", auth, middleware.RequireRole(models.RoleUser))
	{
		user.POST("", h.Requests.CreateRequest)
		user.GET("", h.Requests.ListRequests)
		user.GET("/stats", h.Requests.Stats)
		user.GET("/:id", h.Requests.GetRequest)
		user.PATCH("/:id/cancel", h.Requests.CancelRequest)
	}

	guide := v1.Group("/tour-guide/requests", auth, middleware.RequireRole(models.RoleAgent))
	{
		guide.GET("", h.Requests.ListRequests)
		guide.GET("/stats", h.Requests.Stats)
		guide.GET("/:id", h.Requests.GetRequest)
		guide.POST("/:id/status", h.Requests.UpdateStatus)
		guide.GET("/:id/activity", h.Requests.Activity)
	}

	admin := v1.Group("/admin", auth, middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/register/tour-guide", h.Auth.RegisterTourGuide)

		admin.GET("/tour-guides", h.Guides.ListTourGuides)
		admin.GET("/tour-guides/:id", h.Guides.GetTourGuide)
		admin.PATCH("/tour-guides/:id/toggle-active", h.Guides.ToggleActive)
		admin.GET("/tour-guides/:id/workload", h.Guides.Workload)

		admin.GET("/requests", h.Requests.ListRequests)
		admin.GET("/requests/:id", h.Requests.GetRequest)
		admin.POST("/requests/:id/assign", h.Requests.Assign)
		admin.POST("/requests/:id/reassign", h.Requests.Reassign)
		admin.POST("/requests/:id/status", h.Requests.UpdateStatus)
		admin.PATCH("/requests/:id/cancel", h.Requests.CancelRequest)
		admin.GET("/requests/:id/activity", h.Requests.Activity)

		admin.GET("/dashboard/stats", h.Requests.DashboardStats)

		admin.GET("/cron/status", h.Cron.Status)
		admin.POST("/cron/booking-sweep", h.Cron.RunBookingSweep)
	}

	packages := v1.Group("/packages", middleware.OptionalAuth(jwtService))
	{
		packages.GET("", h.Packages.ListPackages)
		packages.GET("/:idOrSlug", h.Packages.GetPackage)

		adminPackages := packages.Group("", auth, middleware.RequireRole(models.RoleAdmin))
		adminPackages.POST("", h.Packages.CreatePackage)
		adminPackages.PUT("/:id", h.Packages.UpdatePackage)
		adminPackages.DELETE("/:id", h.Packages.DeletePackage)
		adminPackages.PATCH("/:id/toggle-featured", h.Packages.ToggleFeatured)
	}

	bookings := v1.Group("/bookings", auth)
	{
		bookings.POST("", h.Bookings.CreateBooking)
		bookings.GET("/my-bookings", h.Bookings.ListMyBookings)
		bookings.GET("/admin/all", middleware.RequireRole(models.RoleAdmin), h.Bookings.ListAllBookings)
		bookings.GET("/:id", h.Bookings.GetBooking)
		bookings.GET("/:id/activity", h.Bookings.Activity)
		bookings.PATCH("/:id/cancel", h.Bookings.CancelBooking)
		bookings.PATCH("/:id/status", middleware.RequireRole(models.RoleAdmin), h.Bookings.UpdateStatus)
	}
}
