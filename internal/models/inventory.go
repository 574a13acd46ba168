package models

import (
	"time"

	"github.com/uptrace/bun"
)

// StockLevel is the per-product counter. It is the only row mutated by
// more than one aggregate, so every write goes through a conditional
// update scoped to one product_id.
type StockLevel struct {
	bun.BaseModel `bun:"table:stock_levels"`

	ProductID         string    `bun:"product_id,pk" json:"product_id"`
	AvailableQuantity int       `bun:"available_quantity" json:"available_quantity"`
	ReorderThreshold  int       `bun:"reorder_threshold" json:"reorder_threshold"`
	UpdatedAt         time.Time `bun:"updated_at" json:"updated_at"`
}

// StockMovement is one append-only ledger row. Negative delta = reserve,
// positive delta = release. Rows are never updated or deleted.
type StockMovement struct {
	bun.BaseModel `bun:"table:stock_movements"`

	MovementID    string    `bun:"movement_id,pk" json:"movement_id"`
	ProductID     string    `bun:"product_id" json:"product_id"`
	QuantityDelta int       `bun:"quantity_delta" json:"quantity_delta"`
	CauseOrderID  string    `bun:"cause_order_id" json:"cause_order_id"`
	ActorID       string    `bun:"actor_id" json:"actor_id"`
	CreatedAt     time.Time `bun:"created_at" json:"created_at"`
}
