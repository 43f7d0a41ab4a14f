package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// InventoryLedger reserves and releases package seats.
// Each call is a single conditional update on the package row, so
// concurrent reservations against one package cannot oversell.
type InventoryLedger struct {
	packages PackageStore
	logger   *logrus.Logger
}

// NewInventoryLedger creates a new InventoryLedger
func NewInventoryLedger(packages PackageStore, logger *logrus.Logger) *InventoryLedger {
	return &InventoryLedger{
		packages: packages,
		logger:   logger,
	}
}

// ReserveSeats takes count seats from the package and returns the seats left
func (l *InventoryLedger) ReserveSeats(ctx context.Context, packageID int64, count int) (int, error) {
	if count < 1 {
		return 0, &DomainError{Kind: KindInvalidTravelerCount, Entity: EntityPackage, EntityID: packageID, Detail: "count must be at least 1"}
	}

	remaining, err := l.packages.ReserveSeats(ctx, packageID, count)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to reserve seats: %w", err)
	}

	pkg, err := l.packages.GetByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, notFound(EntityPackage, packageID)
		}
		return 0, fmt.Errorf("failed to get package: %w", err)
	}

	return 0, &DomainError{
		Kind:     KindInsufficientInventory,
		Entity:   EntityPackage,
		EntityID: packageID,
		Detail:   fmt.Sprintf("requested %d seats, %d available", count, pkg.SeatsAvailable),
	}
}

// ReleaseSeats returns count seats to the package and returns the seats available.
// A release that would exceed seats_total signals a double release upstream
// and fails with InventoryInconsistency instead of clamping.
func (l *InventoryLedger) ReleaseSeats(ctx context.Context, packageID int64, count int) (int, error) {
	if count < 1 {
		return 0, &DomainError{Kind: KindInvalidTravelerCount, Entity: EntityPackage, EntityID: packageID, Detail: "count must be at least 1"}
	}

	available, err := l.packages.ReleaseSeats(ctx, packageID, count)
	if err == nil {
		return available, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to release seats: %w", err)
	}

	pkg, err := l.packages.GetByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, notFound(EntityPackage, packageID)
		}
		return 0, fmt.Errorf("failed to get package: %w", err)
	}

	l.logger.WithFields(logrus.Fields{
		"package_id":      packageID,
		"release_count":   count,
		"seats_available": pkg.SeatsAvailable,
		"seats_total":     pkg.SeatsTotal,
	}).Error("Seat release would exceed package capacity")

	return 0, &DomainError{
		Kind:     KindInventoryInconsistency,
		Entity:   EntityPackage,
		EntityID: packageID,
		Detail:   fmt.Sprintf("release of %d seats would exceed seats_total %d", count, pkg.SeatsTotal),
	}
}
