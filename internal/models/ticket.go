package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TicketStatusPending   = "pending"
	TicketStatusPreparing = "preparing"
	TicketStatusReady     = "ready"
	TicketStatusServed    = "served"
	TicketStatusCancelled = "cancelled"
)

// ticketStatusRank orders the lifecycle. Station staff may only move a
// ticket one step forward; cancellation is handled separately.
var ticketStatusRank = map[string]int{
	TicketStatusPending:   0,
	TicketStatusPreparing: 1,
	TicketStatusReady:     2,
	TicketStatusServed:    3,
}

// CanAdvanceTicket reports whether current -> next is the single legal
// forward step in the ticket lifecycle.
func CanAdvanceTicket(current, next string) bool {
	cur, ok := ticketStatusRank[current]
	if !ok {
		return false
	}
	nxt, ok := ticketStatusRank[next]
	if !ok {
		return false
	}
	return nxt == cur+1
}

// KitchenTicket is one prep task for one line item at one station. It
// survives as a historical record once preparation has started; voiding
// the order then only flags it.
type KitchenTicket struct {
	bun.BaseModel `bun:"table:kitchen_tickets"`

	TicketID    string    `bun:"ticket_id,pk" json:"ticket_id"`
	OrderID     string    `bun:"order_id" json:"order_id"`
	OrderItemID string    `bun:"order_item_id" json:"order_item_id"`
	Destination string    `bun:"destination" json:"destination"`
	Status      string    `bun:"status" json:"status"`
	AssignedTo  string    `bun:"assigned_to,nullzero" json:"assigned_to,omitempty"`
	Flagged     bool      `bun:"flagged" json:"flagged"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at" json:"updated_at"`
}

type AdvanceTicketRequest struct {
	Status string `json:"status"`
}
