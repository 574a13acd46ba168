package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-pos/internal/models"
)

// Migrate creates every table the core needs. Idempotent; meant for
// startup and for in-memory test databases.
func Migrate(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.Product)(nil),
		(*models.StockLevel)(nil),
		(*models.StockMovement)(nil),
		(*models.Order)(nil),
		(*models.OrderItem)(nil),
		(*models.KitchenTicket)(nil),
		(*models.TabSession)(nil),
	}

	for _, table := range tables {
		if _, err := db.NewCreateTable().Model(table).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T failed: %w", table, err)
		}
	}
	return nil
}
