package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/cache"
	"github.com/tourdesk/travel-backend/internal/config"
	"github.com/tourdesk/travel-backend/internal/database"
	"github.com/tourdesk/travel-backend/internal/handlers"
	"github.com/tourdesk/travel-backend/internal/middleware"
	"github.com/tourdesk/travel-backend/internal/services"
	"github.com/tourdesk/travel-backend/pkg/jwt"
	"github.com/tourdesk/travel-backend/pkg/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Tour Desk backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.ApplySchema(ctx, db)
		cancel()
		if err != nil {
			logger.Fatalf("Failed to apply schema: %v", err)
		}
		logger.Info("Database schema applied")
	}

	// Repositories
	userRepository := database.NewUserRepository(db)
	requestRepository := database.NewTravelRequestRepository(db)
	packageRepository := database.NewTourPackageRepository(db)
	bookingRepository := database.NewBookingRepository(db)
	activityRepository := database.NewActivityLogRepository(db)
	transactor := database.NewTransactor(db)

	// Workload cache is optional; leave the interface nil without Redis
	var workloadCache services.WorkloadCache
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, workload cache disabled")
		} else {
			defer redisClient.Close()
			workloadCache = cache.NewWorkloadCache(redisClient, cfg.Redis.WorkloadTTL)
			logger.WithField("ttl", cfg.Redis.WorkloadTTL.String()).Info("Workload cache enabled")
		}
	}

	// Initialize services
	logger.Info("Initializing services...")
	clock := services.SystemClock{}
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	phoneValidator := validator.NewPhoneValidator()

	auditService := services.NewAuditService(activityRepository, clock, logger, cfg.Security.EnableAuditLog)
	stateMachine := services.NewRequestStateMachine(requestRepository, clock)
	ledger := services.NewInventoryLedger(packageRepository, logger)

	accountService := services.NewAccountService(userRepository, jwtService, phoneValidator, cfg.Security.BcryptCost, clock, logger)
	requestService := services.NewRequestService(requestRepository, stateMachine, auditService, workloadCache, clock, logger)
	assignmentService := services.NewAssignmentService(requestRepository, userRepository, stateMachine, auditService, workloadCache, logger)
	guideService := services.NewGuideService(userRepository, requestRepository, clock, logger)
	packageService := services.NewPackageService(packageRepository, clock, logger)
	bookingService := services.NewBookingService(transactor, bookingRepository, packageRepository, ledger, auditService, phoneValidator, clock, logger)

	var cronService *services.CronService
	if cfg.Cron.Enabled {
		cronService = services.NewCronService(bookingService, cfg.Cron.BookingSweepSpec, logger)
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
		defer cronService.Stop()
	}

	// Initialize Gin router
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: !allowsAnyOrigin(cfg.CORS.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))

	handlers.RegisterRoutes(router.Group("/api/v1"), jwtService, handlers.Handlers{
		Auth:     handlers.NewAuthHandler(accountService, logger),
		Requests: handlers.NewRequestHandler(requestService, assignmentService, logger),
		Guides:   handlers.NewGuideHandler(guideService, assignmentService, logger),
		Packages: handlers.NewPackageHandler(packageService, logger),
		Bookings: handlers.NewBookingHandler(bookingService, logger),
		Cron:     handlers.NewCronHandler(cronService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// requestLogger logs every request once it completes
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
			"has_auth":   c.GetHeader("Authorization") != "",
		}
		if userCtx, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = userCtx.UserID
			fields["role"] = userCtx.Role
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
