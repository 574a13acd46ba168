package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-pos/internal/logger"
	"ms-pos/internal/models"
)

type DBLayer interface {
	GetStockLevel(ctx context.Context, productID string) (*models.StockLevel, error)
	ReserveStock(ctx context.Context, movement models.StockMovement) error
	ReleaseStock(ctx context.Context, movement models.StockMovement) error
	MovementsByProduct(ctx context.Context, productID string) ([]models.StockMovement, error)
}

// Ledger owns the per-product stock counters and the append-only
// movement log. Reserve is the authoritative check; everything else is
// a hint.
type Ledger struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewLedger(db DBLayer, log *logger.Logger) *Ledger {
	return &Ledger{DB: db, Logger: log}
}

// Reserve atomically checks and decrements availability and appends a
// negative movement. Returns the movement id, or an
// InsufficientStockError carrying the observed availability.
func (l *Ledger) Reserve(ctx context.Context, productID string, qty int, actorID, causeOrderID string) (string, error) {
	if qty <= 0 {
		return "", fmt.Errorf("reserve quantity must be positive, got %d", qty)
	}

	movement := models.StockMovement{
		MovementID:    uuid.NewString(),
		ProductID:     productID,
		QuantityDelta: -qty,
		CauseOrderID:  causeOrderID,
		ActorID:       actorID,
		CreatedAt:     time.Now(),
	}

	err := l.DB.ReserveStock(ctx, movement)
	if err == nil {
		l.Logger.LogInventory("RESERVE", productID, fmt.Sprintf("reserved %d for order %s", qty, causeOrderID))
		return movement.MovementID, nil
	}

	if errors.Is(err, models.ErrStockConflict) {
		available := 0
		if level, lvlErr := l.DB.GetStockLevel(ctx, productID); lvlErr == nil {
			available = level.AvailableQuantity
		}
		return "", &models.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: available,
		}
	}

	return "", fmt.Errorf("reserve failed for product %s: %w", productID, err)
}

// Release increments availability and appends a positive movement. It
// always succeeds as long as storage is reachable.
func (l *Ledger) Release(ctx context.Context, productID string, qty int, actorID, causeOrderID string) (string, error) {
	if qty <= 0 {
		return "", fmt.Errorf("release quantity must be positive, got %d", qty)
	}

	movement := models.StockMovement{
		MovementID:    uuid.NewString(),
		ProductID:     productID,
		QuantityDelta: qty,
		CauseOrderID:  causeOrderID,
		ActorID:       actorID,
		CreatedAt:     time.Now(),
	}

	if err := l.DB.ReleaseStock(ctx, movement); err != nil {
		return "", fmt.Errorf("release failed for product %s: %w", productID, err)
	}

	l.Logger.LogInventory("RELEASE", productID, fmt.Sprintf("released %d for order %s", qty, causeOrderID))
	return movement.MovementID, nil
}

// CheckAvailability is a non-authoritative hint. Only Reserve decides.
func (l *Ledger) CheckAvailability(ctx context.Context, productID string, qty int) (bool, int, error) {
	level, err := l.DB.GetStockLevel(ctx, productID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to load stock level for product %s: %w", productID, err)
	}
	return level.AvailableQuantity >= qty, level.AvailableQuantity, nil
}

// ReplayAvailability folds a product's movement log over an initial
// snapshot. The result must equal the live counter.
func (l *Ledger) ReplayAvailability(ctx context.Context, productID string, snapshot int) (int, error) {
	movements, err := l.DB.MovementsByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to load movements for product %s: %w", productID, err)
	}

	available := snapshot
	for _, m := range movements {
		available += m.QuantityDelta
	}
	return available, nil
}
