package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/config"
	"github.com/tourdesk/travel-backend/internal/database"
	"github.com/tourdesk/travel-backend/internal/models"
	"github.com/tourdesk/travel-backend/internal/services"
	"github.com/tourdesk/travel-backend/pkg/validator"
)

// Tables in dependency order, children first
var tables = []string{
	"activity_logs",
	"bookings",
	"travel_requests",
	"tour_packages",
	"users",
}

func main() {
	var (
		dbURLFlag  string
		migrate    bool
		clearData  bool
		adminEmail string
		adminName  string
		adminPhone string
		adminPass  string
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&migrate, "migrate", false, "apply the embedded schema")
	flag.BoolVar(&clearData, "clear", false, "truncate all tables and reset identities")
	flag.StringVar(&adminEmail, "admin-email", "", "create an admin account with this email")
	flag.StringVar(&adminName, "admin-name", "Administrator", "admin display name")
	flag.StringVar(&adminPhone, "admin-phone", "", "admin phone number")
	flag.StringVar(&adminPass, "admin-password", "", "admin password (falls back to ADMIN_PASSWORD)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// .env is optional; it keeps secrets off the command line
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}
	if !migrate && !clearData && adminEmail == "" {
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if migrate {
		if err := database.ApplySchema(ctx, db); err != nil {
			logger.Fatalf("failed to apply schema: %v", err)
		}
		logger.Info("Schema applied")
	}

	if clearData {
		if err := truncate(ctx, db, logger); err != nil {
			logger.Fatalf("failed to clear data: %v", err)
		}
	}

	if adminEmail != "" {
		if adminPass == "" {
			adminPass = os.Getenv("ADMIN_PASSWORD")
		}
		accounts := services.NewAccountService(
			database.NewUserRepository(db),
			nil,
			validator.NewPhoneValidator(),
			0,
			services.SystemClock{},
			logger,
		)
		admin, err := accounts.CreateAdmin(ctx, &models.RegisterInput{
			Name:     adminName,
			Email:    adminEmail,
			Phone:    adminPhone,
			Password: adminPass,
		})
		if err != nil {
			logger.Fatalf("failed to create admin: %v", err)
		}
		logger.WithFields(logrus.Fields{
			"user_id": admin.ID,
			"email":   admin.Email,
		}).Info("Admin account created")
	}
}

func truncate(ctx context.Context, db database.DB, logger *logrus.Logger) error {
	query := "TRUNCATE TABLE "
	for i, t := range tables {
		if i > 0 {
			query += ", "
		}
		query += t
	}
	query += " RESTART IDENTITY CASCADE"

	if _, err := db.ExecContext(ctx, query); err != nil {
		return err
	}
	logger.Info("All data cleared (tables truncated, identities reset)")

	for _, t := range tables {
		var count int
		if err := db.GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", t)); err != nil {
			logger.WithError(err).Warnf("failed to count %s", t)
			continue
		}
		logger.Infof("  %s: %d rows", t, count)
	}
	return nil
}
