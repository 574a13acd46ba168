package confirm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ms-pos/internal/logger"
	"ms-pos/internal/models"
)

type OrderStore interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetItemsByOrder(ctx context.Context, orderID string) ([]models.OrderItem, error)
	UpdateOrder(ctx context.Context, order models.Order) error
}

type StockLedger interface {
	CheckAvailability(ctx context.Context, productID string, qty int) (bool, int, error)
	Reserve(ctx context.Context, productID string, qty int, actorID, causeOrderID string) (string, error)
	Release(ctx context.Context, productID string, qty int, actorID, causeOrderID string) (string, error)
}

type TicketRouter interface {
	Route(ctx context.Context, order *models.Order, items []models.OrderItem) ([]models.KitchenTicket, error)
}

type EventPublisher interface {
	PublishOrderConfirmed(order models.Order) error
}

// Coordinator runs stock check -> reserve -> confirm -> route as one
// logical unit. Stock deducts at confirmation, not payment: draft carts
// browse freely while only committed orders hold scarce stock.
type Coordinator struct {
	Orders OrderStore
	Ledger StockLedger
	Router TicketRouter
	Events EventPublisher
	Logger *logger.Logger
}

func NewCoordinator(orders OrderStore, ledger StockLedger, router TicketRouter, events EventPublisher, log *logger.Logger) *Coordinator {
	return &Coordinator{Orders: orders, Ledger: ledger, Router: router, Events: events, Logger: log}
}

type reservation struct {
	productID string
	qty       int
}

// Confirm reserves stock for every product line of a draft order and
// flips it to confirmed, emitting kitchen tickets. Confirmation is
// atomic to the caller: a mid-sequence shortfall releases everything
// reserved in this attempt before the error surfaces, so retrying is
// always safe. Ticket-routing failure after the flip is logged, never
// rolled back, because the inventory is already committed to the sale.
func (c *Coordinator) Confirm(ctx context.Context, orderID, actorID string) (*models.OrderWithItems, error) {
	order, err := c.Orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}
	if order.Status != models.OrderStatusDraft {
		return nil, &models.InvalidStateTransitionError{
			Entity: "order", Current: order.Status, Attempted: models.OrderStatusConfirmed,
		}
	}

	items, err := c.Orders.GetItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for order %s: %w", orderID, err)
	}

	// Reservations run in product-id order so concurrent confirmations
	// touching overlapping products never lock rows in opposite orders.
	productLines := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		if it.ProductID != "" {
			productLines = append(productLines, it)
		}
	}
	sort.Slice(productLines, func(i, j int) bool {
		return productLines[i].ProductID < productLines[j].ProductID
	})

	// Pre-check is a cheap fast-fail; Reserve below stays authoritative.
	for _, line := range productLines {
		ok, available, err := c.Ledger.CheckAvailability(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &models.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: available,
			}
		}
	}

	var reserved []reservation
	for _, line := range productLines {
		if _, err := c.Ledger.Reserve(ctx, line.ProductID, line.Quantity, actorID, orderID); err != nil {
			c.compensate(ctx, reserved, actorID, orderID)

			var stockErr *models.InsufficientStockError
			if errors.As(err, &stockErr) {
				c.Logger.LogOrder("CONFIRM", orderID,
					fmt.Sprintf("lost race on product %s, attempt fully compensated", line.ProductID))
				return nil, stockErr
			}
			return nil, err
		}
		reserved = append(reserved, reservation{productID: line.ProductID, qty: line.Quantity})
	}

	order.Status = models.OrderStatusConfirmed
	order.ConfirmedAt = time.Now()
	order.RecomputeTotals(items)
	if err := c.Orders.UpdateOrder(ctx, *order); err != nil {
		// Storage failed after the stock was taken; give it back so the
		// caller can retry from a clean state.
		c.compensate(ctx, reserved, actorID, orderID)
		return nil, fmt.Errorf("failed to confirm order %s: %w", orderID, err)
	}

	c.Logger.LogOrder("CONFIRM", orderID,
		fmt.Sprintf("confirmed by %s, %d product lines reserved", actorID, len(reserved)))

	if _, err := c.Router.Route(ctx, order, items); err != nil {
		// The order stays confirmed and stock stays reserved; the missing
		// tickets need an operator, not a rollback.
		c.Logger.Error("TICKET", fmt.Sprintf("routing failed for confirmed order %s: %v", orderID, err))
	}

	if err := c.Events.PublishOrderConfirmed(*order); err != nil {
		c.Logger.Error("KAFKA", fmt.Sprintf("order confirmed publish failed: %v", err))
	}

	return &models.OrderWithItems{Order: *order, Items: items}, nil
}

// compensate releases every reservation made in this attempt, in
// reverse order. Release cannot legitimately fail short of storage
// loss, which is alert-worthy either way.
func (c *Coordinator) compensate(ctx context.Context, reserved []reservation, actorID, orderID string) {
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if _, err := c.Ledger.Release(ctx, r.productID, r.qty, actorID, orderID); err != nil {
			c.Logger.Error("INVENTORY",
				fmt.Sprintf("compensation release failed for product %s qty %d: %v", r.productID, r.qty, err))
		}
	}
}
