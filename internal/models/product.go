package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Prep destinations. A product categorized as DestinationBoth gets one
// ticket per station when its order is confirmed.
const (
	DestinationKitchen = "kitchen"
	DestinationBar     = "bar"
	DestinationBoth    = "both"
)

type Product struct {
	bun.BaseModel `bun:"table:products"`

	ProductID        string    `bun:"product_id,pk" json:"product_id"`
	Name             string    `bun:"name" json:"name"`
	Category         string    `bun:"category" json:"category"`
	Price            float64   `bun:"price" json:"price"`
	Active           bool      `bun:"active" json:"active"`
	ReorderThreshold int       `bun:"reorder_threshold" json:"reorder_threshold"`
	CreatedAt        time.Time `bun:"created_at" json:"created_at"`
}

// ValidDestination reports whether s names a single station or both.
func ValidDestination(s string) bool {
	return s == DestinationKitchen || s == DestinationBar || s == DestinationBoth
}
