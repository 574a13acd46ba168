package order

import (
	"context"
	"fmt"

	"ms-pos/internal/models"
)

// Post-confirmation edits. Draft edits are free; once an order is
// confirmed every edit compensates the inventory ledger, and removal is
// only allowed while the kitchen has not started on the item.

// RemoveItem deletes a line. While the order is draft this is free; on
// a confirmed order it cancels the item's pending tickets and releases
// the reserved stock. Once any ticket has left pending the caller must
// void the whole order instead.
func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID, actorID string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}

	item, err := s.DB.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("item %s not found: %w", itemID, err)
	}
	if item.OrderID != orderID {
		return nil, fmt.Errorf("item %s does not belong to order %s", itemID, orderID)
	}

	switch order.Status {
	case models.OrderStatusDraft:
		// No stock was reserved; just drop the line.

	case models.OrderStatusConfirmed:
		tickets, err := s.Tickets.GetTicketsByItem(ctx, itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to load tickets for item %s: %w", itemID, err)
		}
		for _, t := range tickets {
			if t.Status != models.TicketStatusPending && t.Status != models.TicketStatusCancelled {
				return nil, &models.TicketInProgressError{
					ItemID: itemID, TicketID: t.TicketID, TicketStatus: t.Status,
				}
			}
		}
		for _, t := range tickets {
			if t.Status != models.TicketStatusPending {
				continue
			}
			if err := s.Tickets.Cancel(ctx, t.TicketID, actorID); err != nil {
				return nil, fmt.Errorf("failed to cancel ticket %s: %w", t.TicketID, err)
			}
		}

		if item.ProductID != "" {
			if _, err := s.Ledger.Release(ctx, item.ProductID, item.Quantity, actorID, orderID); err != nil {
				return nil, err
			}
		}

	default:
		return nil, &models.InvalidStateTransitionError{
			Entity: "order", Current: order.Status, Attempted: "item_removal",
		}
	}

	if err := s.DB.DeleteItem(ctx, itemID); err != nil {
		return nil, fmt.Errorf("failed to delete item %s: %w", itemID, err)
	}

	if err := s.recomputeAndStoreTotals(ctx, order); err != nil {
		return nil, err
	}

	s.Logger.LogOrder("ITEM_REMOVE", orderID, fmt.Sprintf("item %s removed by %s", itemID, actorID))
	return order, nil
}

// ChangeQuantity requantifies a line. Decreasing a confirmed line
// releases the difference; increasing reserves it first and leaves the
// quantity untouched when stock is short.
func (s *OrderService) ChangeQuantity(ctx context.Context, orderID, itemID string, newQty int, actorID string) (*models.Order, error) {
	if newQty <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", newQty)
	}

	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}

	item, err := s.DB.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("item %s not found: %w", itemID, err)
	}
	if item.OrderID != orderID {
		return nil, fmt.Errorf("item %s does not belong to order %s", itemID, orderID)
	}

	diff := newQty - item.Quantity

	switch order.Status {
	case models.OrderStatusDraft:
		// Free requantify, no inventory effect.

	case models.OrderStatusConfirmed:
		if item.ProductID != "" && diff != 0 {
			if diff > 0 {
				if _, err := s.Ledger.Reserve(ctx, item.ProductID, diff, actorID, orderID); err != nil {
					return nil, err
				}
			} else {
				if _, err := s.Ledger.Release(ctx, item.ProductID, -diff, actorID, orderID); err != nil {
					return nil, err
				}
			}
		}

	default:
		return nil, &models.InvalidStateTransitionError{
			Entity: "order", Current: order.Status, Attempted: "item_requantify",
		}
	}

	item.Quantity = newQty
	item.Recalculate()
	if err := s.DB.UpdateItem(ctx, *item); err != nil {
		return nil, fmt.Errorf("failed to update item %s: %w", itemID, err)
	}

	if err := s.recomputeAndStoreTotals(ctx, order); err != nil {
		return nil, err
	}

	s.Logger.LogOrder("ITEM_REQUANTIFY", orderID,
		fmt.Sprintf("item %s quantity %d -> %d by %s", itemID, newQty-diff, newQty, actorID))
	return order, nil
}
