package inventory_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-pos/internal/database"
	"ms-pos/internal/inventory"
	invdb "ms-pos/internal/inventory/db"
	"ms-pos/internal/logger"
	"ms-pos/internal/models"
)

func setupLedger(t *testing.T) (*inventory.Ledger, *invdb.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// One connection so every conditional update serializes the way a
	// single Postgres row lock would.
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	if err := database.Migrate(context.Background(), bunDB); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	dbLayer := &invdb.DB{Bun: bunDB}
	return inventory.NewLedger(dbLayer, logger.NewLogger()), dbLayer, bunDB
}

func seedStock(t *testing.T, bunDB *bun.DB, productID string, qty int) {
	level := models.StockLevel{
		ProductID:         productID,
		AvailableQuantity: qty,
		ReorderThreshold:  2,
		UpdatedAt:         time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&level).Exec(context.Background())
	assert.NoError(t, err)
}

func TestReserveAndRelease(t *testing.T) {
	ledger, dbLayer, bunDB := setupLedger(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedStock(t, bunDB, "prod-1", 20)

	movementID, err := ledger.Reserve(ctx, "prod-1", 5, "actor-1", "order-1")
	assert.NoError(t, err)
	assert.NotEmpty(t, movementID)

	level, err := dbLayer.GetStockLevel(ctx, "prod-1")
	assert.NoError(t, err)
	assert.Equal(t, 15, level.AvailableQuantity)

	_, err = ledger.Release(ctx, "prod-1", 2, "actor-1", "order-1")
	assert.NoError(t, err)

	level, err = dbLayer.GetStockLevel(ctx, "prod-1")
	assert.NoError(t, err)
	assert.Equal(t, 17, level.AvailableQuantity)

	// One movement row per call, negative then positive.
	movements, err := dbLayer.MovementsByProduct(ctx, "prod-1")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(movements))
	assert.Equal(t, -5, movements[0].QuantityDelta)
	assert.Equal(t, 2, movements[1].QuantityDelta)
	assert.Equal(t, "order-1", movements[0].CauseOrderID)
	assert.Equal(t, "actor-1", movements[0].ActorID)
}

func TestReserveInsufficientStock(t *testing.T) {
	ledger, dbLayer, bunDB := setupLedger(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedStock(t, bunDB, "prod-1", 3)

	_, err := ledger.Reserve(ctx, "prod-1", 5, "actor-1", "order-1")
	assert.Error(t, err)

	var stockErr *models.InsufficientStockError
	assert.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "prod-1", stockErr.ProductID)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)

	// A failed reserve leaves no trace: counter unchanged, no movement.
	level, err := dbLayer.GetStockLevel(ctx, "prod-1")
	assert.NoError(t, err)
	assert.Equal(t, 3, level.AvailableQuantity)

	movements, err := dbLayer.MovementsByProduct(ctx, "prod-1")
	assert.NoError(t, err)
	assert.Equal(t, 0, len(movements))
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	ledger, dbLayer, bunDB := setupLedger(t)
	defer bunDB.Close()
	ctx := context.Background()

	// 8 goroutines race for 10 units at 5 apiece: exactly 2 may win.
	seedStock(t, bunDB, "prod-1", 10)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Reserve(ctx, "prod-1", 5, "actor-1", "order-race")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, failed := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		var stockErr *models.InsufficientStockError
		assert.True(t, errors.As(err, &stockErr))
	}

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 6, failed)

	level, err := dbLayer.GetStockLevel(ctx, "prod-1")
	assert.NoError(t, err)
	assert.Equal(t, 0, level.AvailableQuantity)
	assert.GreaterOrEqual(t, level.AvailableQuantity, 0)
}

func TestConservationAndReplay(t *testing.T) {
	ledger, dbLayer, bunDB := setupLedger(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedStock(t, bunDB, "prod-1", 50)

	_, err := ledger.Reserve(ctx, "prod-1", 10, "actor-1", "order-1")
	assert.NoError(t, err)
	_, err = ledger.Reserve(ctx, "prod-1", 7, "actor-2", "order-2")
	assert.NoError(t, err)
	_, err = ledger.Release(ctx, "prod-1", 3, "actor-1", "order-1")
	assert.NoError(t, err)

	// Replaying the log over the initial snapshot reproduces the live
	// counter exactly.
	replayed, err := ledger.ReplayAvailability(ctx, "prod-1", 50)
	assert.NoError(t, err)

	level, err := dbLayer.GetStockLevel(ctx, "prod-1")
	assert.NoError(t, err)
	assert.Equal(t, level.AvailableQuantity, replayed)
	assert.Equal(t, 36, replayed)
}

func TestCheckAvailabilityIsAHint(t *testing.T) {
	ledger, _, bunDB := setupLedger(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedStock(t, bunDB, "prod-1", 4)

	ok, available, err := ledger.CheckAvailability(ctx, "prod-1", 4)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, available)

	ok, available, err = ledger.CheckAvailability(ctx, "prod-1", 5)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 4, available)
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	ledger, _, bunDB := setupLedger(t)
	defer bunDB.Close()

	_, err := ledger.Reserve(context.Background(), "prod-1", 0, "actor-1", "order-1")
	assert.Error(t, err)

	_, err = ledger.Release(context.Background(), "prod-1", -2, "actor-1", "order-1")
	assert.Error(t, err)
}
