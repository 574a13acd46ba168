package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"

	"ms-pos/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- PRODUCTS ----------------

func (d *DB) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := d.Bun.NewSelect().
		Model(&product).
		Where("product_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ---------------- STOCK ----------------

func (d *DB) GetStockLevel(ctx context.Context, productID string) (*models.StockLevel, error) {
	var level models.StockLevel
	err := d.Bun.NewSelect().
		Model(&level).
		Where("product_id = ?", productID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &level, nil
}

// ReserveStock applies the conditional decrement and the negative
// movement in one transaction. The check and the decrement are a single
// statement scoped to one product row, so two racing reservations can
// never both succeed past availability. Returns models.ErrStockConflict
// when availability is short; the counter and the log are untouched.
func (d *DB) ReserveStock(ctx context.Context, movement models.StockMovement) error {
	qty := -movement.QuantityDelta

	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.StockLevel)(nil)).
			Set("available_quantity = available_quantity - ?", qty).
			Set("updated_at = ?", time.Now()).
			Where("product_id = ?", movement.ProductID).
			Where("available_quantity >= ?", qty).
			Exec(ctx)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return models.ErrStockConflict
		}

		_, err = tx.NewInsert().Model(&movement).Exec(ctx)
		return err
	})
}

// ReleaseStock increments availability and appends the positive
// movement in one transaction. A release always succeeds as long as the
// store is reachable.
func (d *DB) ReleaseStock(ctx context.Context, movement models.StockMovement) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.StockLevel)(nil)).
			Set("available_quantity = available_quantity + ?", movement.QuantityDelta).
			Set("updated_at = ?", time.Now()).
			Where("product_id = ?", movement.ProductID).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = tx.NewInsert().Model(&movement).Exec(ctx)
		return err
	})
}

// MovementsByProduct returns a product's ledger in its total order:
// monotonic timestamp with the movement id as tie-break.
func (d *DB) MovementsByProduct(ctx context.Context, productID string) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	err := d.Bun.NewSelect().
		Model(&movements).
		Where("product_id = ?", productID).
		Order("created_at", "movement_id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return movements, nil
}
