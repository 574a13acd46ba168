package void

import (
	"context"
	"fmt"

	"ms-pos/internal/logger"
	"ms-pos/internal/models"
)

type OrderStore interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetItemsByOrder(ctx context.Context, orderID string) ([]models.OrderItem, error)
	UpdateOrder(ctx context.Context, order models.Order) error
	ListOrdersBySession(ctx context.Context, sessionID string) ([]models.Order, error)
}

type StockLedger interface {
	Release(ctx context.Context, productID string, qty int, actorID, causeOrderID string) (string, error)
}

type TicketRouter interface {
	CancelForOrder(ctx context.Context, orderID, actorID string) error
}

type EventPublisher interface {
	PublishOrderVoided(order models.Order) error
}

// Coordinator reverses a committed order: stock back to the shelf,
// pending work off the stations, actor and reason on the record.
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

// Void reverses a confirmed order. Voiding a completed order needs the
// manager role. A second void fails with AlreadyVoidedError and
// releases nothing.
func (c *Coordinator) Void(ctx context.Context, orderID string, actor models.Actor, reason string) (*models.Order, error) {
	if reason == "" {
		return nil, fmt.Errorf("a void reason is required")
	}

	order, err := c.Orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}

	if order.Status == models.OrderStatusVoided {
		return nil, &models.AlreadyVoidedError{OrderID: orderID}
	}
	if !models.CanTransitionOrder(order.Status, models.OrderStatusVoided) {
		return nil, &models.InvalidStateTransitionError{
			Entity: "order", Current: order.Status, Attempted: models.OrderStatusVoided,
		}
	}
	if order.Status == models.OrderStatusCompleted && actor.Role != models.RoleManager {
		return nil, models.ErrManagerRequired
	}

	// Stations first: pending and preparing tickets are cancelled,
	// later-stage ones flagged as history.
	if err := c.Router.CancelForOrder(ctx, orderID, actor.ID); err != nil {
		return nil, err
	}

	// Items removed before the void were already compensated at removal
	// time; what remains on the order is exactly what is still reserved.
	items, err := c.Orders.GetItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for order %s: %w", orderID, err)
	}
	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		if _, err := c.Ledger.Release(ctx, item.ProductID, item.Quantity, actor.ID, orderID); err != nil {
			return nil, err
		}
	}

	order.Status = models.OrderStatusVoided
	order.VoidedBy = actor.ID
	order.VoidReason = reason
	if err := c.Orders.UpdateOrder(ctx, *order); err != nil {
		return nil, fmt.Errorf("failed to void order %s: %w", orderID, err)
	}

	c.Logger.LogOrder("VOID", orderID, fmt.Sprintf("voided by %s: %s", actor.ID, reason))

	if order.TabSessionID != "" {
		if total, err := c.sessionTotal(ctx, order.TabSessionID); err == nil {
			c.Logger.LogSession("RECOMPUTE", order.TabSessionID,
				fmt.Sprintf("cumulative total now %.2f after void of %s", total, orderID))
		}
	}

	if err := c.Events.PublishOrderVoided(*order); err != nil {
		c.Logger.Error("KAFKA", fmt.Sprintf("order voided publish failed: %v", err))
	}

	return order, nil
}

// sessionTotal sums the non-voided orders of a session; the derived
// value is what the tab surface shows after the void.
func (c *Coordinator) sessionTotal(ctx context.Context, sessionID string) (float64, error) {
	orders, err := c.Orders.ListOrdersBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for _, o := range orders {
		if o.Status != models.OrderStatusVoided {
			total = models.RoundCentavos(total + o.TotalAmount)
		}
	}
	return total, nil
}
