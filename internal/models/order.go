package models

import (
	"math"
	"time"

	"github.com/uptrace/bun"
)

const (
	OrderStatusDraft     = "draft"
	OrderStatusConfirmed = "confirmed"
	OrderStatusVoided    = "voided"
	OrderStatusCompleted = "completed"
)

// orderTransitions is the single source of truth for the order state
// machine. Re-entrant transitions are rejected, never silently ignored.
var orderTransitions = map[string][]string{
	OrderStatusDraft:     {OrderStatusConfirmed},
	OrderStatusConfirmed: {OrderStatusVoided, OrderStatusCompleted},
	OrderStatusCompleted: {OrderStatusVoided}, // manager-only, enforced by the void coordinator
	OrderStatusVoided:    {},
}

// CanTransitionOrder reports whether current -> next is a legal order
// status transition.
func CanTransitionOrder(current, next string) bool {
	for _, s := range orderTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	OrderID        string    `bun:"order_id,pk" json:"order_id"`
	Status         string    `bun:"status" json:"status"`
	TabSessionID   string    `bun:"tab_session_id,nullzero" json:"tab_session_id,omitempty"`
	Subtotal       float64   `bun:"subtotal" json:"subtotal"`
	DiscountAmount float64   `bun:"discount_amount" json:"discount_amount"`
	TotalAmount    float64   `bun:"total_amount" json:"total_amount"`
	CreatedBy      string    `bun:"created_by" json:"created_by"`
	VoidedBy       string    `bun:"voided_by,nullzero" json:"voided_by,omitempty"`
	VoidReason     string    `bun:"void_reason,nullzero" json:"void_reason,omitempty"`
	CreatedAt      time.Time `bun:"created_at" json:"created_at"`
	ConfirmedAt    time.Time `bun:"confirmed_at,nullzero" json:"confirmed_at,omitempty"`
}

// OrderItem is owned exclusively by its order. Exactly one of ProductID
// and PackageID is set; package lines are priced as a bundle and carry
// no per-product stock effect.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ItemID          string  `bun:"item_id,pk" json:"item_id"`
	OrderID         string  `bun:"order_id" json:"order_id"`
	ProductID       string  `bun:"product_id,nullzero" json:"product_id,omitempty"`
	PackageID       string  `bun:"package_id,nullzero" json:"package_id,omitempty"`
	Quantity        int     `bun:"quantity" json:"quantity"`
	UnitPrice       float64 `bun:"unit_price" json:"unit_price"`
	DiscountPercent float64 `bun:"discount_percent" json:"discount_percent"`

	LineSubtotal  float64   `bun:"line_subtotal" json:"line_subtotal"`
	LineDiscount  float64   `bun:"line_discount" json:"line_discount"`
	LineTotal     float64   `bun:"line_total" json:"line_total"`
	Complimentary bool      `bun:"complimentary" json:"complimentary"`
	CreatedAt     time.Time `bun:"created_at" json:"created_at"`
}

// RoundCentavos rounds to two decimals. Percentage discounts round per
// line, not per order, so repeated recomputation cannot drift.
func RoundCentavos(v float64) float64 {
	return math.Round(v*100) / 100
}

// Recalculate derives the line amounts from quantity, unit price and
// the line's discount percentage. Complimentary lines always total zero.
func (i *OrderItem) Recalculate() {
	i.LineSubtotal = RoundCentavos(float64(i.Quantity) * i.UnitPrice)
	i.LineDiscount = RoundCentavos(i.LineSubtotal * i.DiscountPercent / 100)
	if i.Complimentary {
		i.LineDiscount = i.LineSubtotal
	}
	i.LineTotal = RoundCentavos(i.LineSubtotal - i.LineDiscount)
}

// RecomputeTotals derives the order totals by summing its items. Totals
// are never cached independently of the lines.
func (o *Order) RecomputeTotals(items []OrderItem) {
	o.Subtotal, o.DiscountAmount, o.TotalAmount = 0, 0, 0
	for _, it := range items {
		o.Subtotal = RoundCentavos(o.Subtotal + it.LineSubtotal)
		o.DiscountAmount = RoundCentavos(o.DiscountAmount + it.LineDiscount)
		o.TotalAmount = RoundCentavos(o.TotalAmount + it.LineTotal)
	}
}

type OrderWithItems struct {
	Order
	Items []OrderItem `json:"items"`
}

type AddItemRequest struct {
	ProductID       string  `json:"product_id,omitempty"`
	PackageID       string  `json:"package_id,omitempty"`
	Quantity        int     `json:"quantity"`
	UnitPrice       float64 `json:"unit_price,omitempty"`
	DiscountPercent float64 `json:"discount_percent,omitempty"`
	Complimentary   bool    `json:"complimentary,omitempty"`
}

type CreateOrderRequest struct {
	TabSessionID string `json:"tab_session_id,omitempty"`
}

type ChangeQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type VoidRequest struct {
	Reason string `json:"reason"`
}
