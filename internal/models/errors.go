package models

import (
	"errors"
	"fmt"
)

// ErrStockConflict is the storage layer's signal that the conditional
// decrement matched no row. The ledger turns it into an
// InsufficientStockError with the observed availability.
var ErrStockConflict = errors.New("stock level conditional update matched no row")

// ErrTableOccupied is returned when opening a session on a table that
// already has an open one.
var ErrTableOccupied = errors.New("table already has an open session")

// ErrSessionHasDraftOrders is returned when closing a session while an
// attached order is still draft.
var ErrSessionHasDraftOrders = errors.New("session has draft orders; confirm or delete them before closing")

// ErrDraftNotEmpty is returned when deleting a draft that still has items.
var ErrDraftNotEmpty = errors.New("draft order still has items")

// ErrManagerRequired guards void-on-completed.
var ErrManagerRequired = errors.New("voiding a completed order requires the manager role")

// InsufficientStockError is an expected business outcome, not a fault.
// Callers must branch on it; surfaces show the exact shortfall.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InvalidStateTransitionError rejects illegal state machine moves with
// no side effects.
type InvalidStateTransitionError struct {
	Entity    string
	Current   string
	Attempted string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.Current, e.Attempted)
}

// TicketInProgressError blocks item removal once a station has started
// on the ticket. The caller's remedy is voiding the whole order.
type TicketInProgressError struct {
	ItemID       string
	TicketID     string
	TicketStatus string
}

func (e *TicketInProgressError) Error() string {
	return fmt.Sprintf("item %s has ticket %s already %s; void the order instead",
		e.ItemID, e.TicketID, e.TicketStatus)
}

// AlreadyVoidedError makes double-void a visible failure instead of a
// silent double release.
type AlreadyVoidedError struct {
	OrderID string
}

func (e *AlreadyVoidedError) Error() string {
	return fmt.Sprintf("order %s is already voided", e.OrderID)
}
