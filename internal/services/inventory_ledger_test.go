package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryLedger_ReserveAndRelease(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.addPackage(t, 10, 100, true)
	ctx := context.Background()

	remaining, err := env.ledger.ReserveSeats(ctx, pkg.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, remaining)

	available, err := env.ledger.ReleaseSeats(ctx, pkg.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 10, available)
	assert.Equal(t, 10, env.db.seats(pkg.ID))
}

func TestInventoryLedger_ReserveErrors(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.addPackage(t, 3, 100, true)
	ctx := context.Background()

	tests := []struct {
		name      string
		packageID int64
		count     int
		wantErr   error
	}{
		{"zero seats", pkg.ID, 0, ErrInvalidTravelerCount},
		{"negative seats", pkg.ID, -2, ErrInvalidTravelerCount},
		{"more than available", pkg.ID, 4, ErrInsufficientInventory},
		{"unknown package", 9999, 1, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.ReserveSeats(ctx, tt.packageID, tt.count)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 3, env.db.seats(pkg.ID))
		})
	}
}

func TestInventoryLedger_ReserveExactlyAll(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.addPackage(t, 3, 100, true)

	remaining, err := env.ledger.ReserveSeats(context.Background(), pkg.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	_, err = env.ledger.ReserveSeats(context.Background(), pkg.ID, 1)
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, KindInsufficientInventory, domainErr.Kind)
	assert.Contains(t, domainErr.Detail, "0 available")
}

func TestInventoryLedger_ReleaseBeyondTotal(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.addPackage(t, 5, 100, true)
	ctx := context.Background()

	_, err := env.ledger.ReserveSeats(ctx, pkg.ID, 2)
	require.NoError(t, err)

	_, err = env.ledger.ReleaseSeats(ctx, pkg.ID, 3)
	assert.ErrorIs(t, err, ErrInventoryInconsistency)
	assert.Equal(t, 3, env.db.seats(pkg.ID), "a failed release must not change the count")

	_, err = env.ledger.ReleaseSeats(ctx, 9999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInventoryLedger_ConcurrentReservationsNeverOversell(t *testing.T) {
	env := newTestEnv(t)
	const seats, workers = 10, 25
	pkg := env.addPackage(t, seats, 100, true)

	var (
		wg        sync.WaitGroup
		succeeded int32
		rejected  int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.ReserveSeats(context.Background(), pkg.ID, 1)
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case KindOf(err) == KindInsufficientInventory:
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(seats), succeeded)
	assert.Equal(t, int32(workers-seats), rejected)
	assert.Equal(t, 0, env.db.seats(pkg.ID))
}
