package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-pos/internal/logger"
	"ms-pos/internal/models"
)

type DBLayer interface {
	CreateOrder(ctx context.Context, order models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	UpdateOrder(ctx context.Context, order models.Order) error
	DeleteOrder(ctx context.Context, id string) error
	CreateItem(ctx context.Context, item models.OrderItem) error
	GetItemByID(ctx context.Context, id string) (*models.OrderItem, error)
	UpdateItem(ctx context.Context, item models.OrderItem) error
	DeleteItem(ctx context.Context, id string) error
	GetItemsByOrder(ctx context.Context, orderID string) ([]models.OrderItem, error)
}

type ProductCatalog interface {
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
}

type StockLedger interface {
	Reserve(ctx context.Context, productID string, qty int, actorID, causeOrderID string) (string, error)
	Release(ctx context.Context, productID string, qty int, actorID, causeOrderID string) (string, error)
}

type TicketLayer interface {
	GetTicketsByItem(ctx context.Context, itemID string) ([]models.KitchenTicket, error)
	GetTicketsByOrder(ctx context.Context, orderID string) ([]models.KitchenTicket, error)
	Cancel(ctx context.Context, ticketID, actorID string) error
}

// OrderService owns the order aggregate: draft assembly, derived
// totals, the status state machine, and the compensated
// post-confirmation edits in mutation.go.
type OrderService struct {
	DB      DBLayer
	Catalog ProductCatalog
	Ledger  StockLedger
	Tickets TicketLayer
	Logger  *logger.Logger
}

func NewOrderService(db DBLayer, catalog ProductCatalog, ledger StockLedger, tickets TicketLayer, log *logger.Logger) *OrderService {
	return &OrderService{DB: db, Catalog: catalog, Ledger: ledger, Tickets: tickets, Logger: log}
}

// CreateDraft opens a new draft order, optionally attached to a tab
// session. Drafts have no inventory effect.
func (s *OrderService) CreateDraft(ctx context.Context, actorID, tabSessionID string) (*models.Order, error) {
	order := models.Order{
		OrderID:      uuid.NewString(),
		Status:       models.OrderStatusDraft,
		TabSessionID: tabSessionID,
		CreatedBy:    actorID,
		CreatedAt:    time.Now(),
	}

	if err := s.DB.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create draft order: %w", err)
	}

	s.Logger.LogOrder("CREATE", order.OrderID, "draft opened by "+actorID)
	return &order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.DB.GetOrderByID(ctx, id)
}

func (s *OrderService) GetOrderWithItems(ctx context.Context, id string) (*models.OrderWithItems, error) {
	order, err := s.DB.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", id, err)
	}

	items, err := s.DB.GetItemsByOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for order %s: %w", id, err)
	}
	if items == nil {
		items = []models.OrderItem{}
	}

	return &models.OrderWithItems{Order: *order, Items: items}, nil
}

// AddItem appends a line to a draft. Exactly one of product_id and
// package_id must be set; package lines are priced as a bundle and
// never touch stock.
func (s *OrderService) AddItem(ctx context.Context, orderID string, req models.AddItemRequest) (*models.OrderItem, error) {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}
	if order.Status != models.OrderStatusDraft {
		return nil, &models.InvalidStateTransitionError{
			Entity: "order", Current: order.Status, Attempted: "item_add",
		}
	}

	if (req.ProductID == "") == (req.PackageID == "") {
		return nil, fmt.Errorf("exactly one of product_id and package_id must be set")
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", req.Quantity)
	}

	unitPrice := req.UnitPrice
	if req.ProductID != "" {
		product, err := s.Catalog.GetProductByID(ctx, req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s not found: %w", req.ProductID, err)
		}
		unitPrice = product.Price
	}

	item := models.OrderItem{
		ItemID:          uuid.NewString(),
		OrderID:         orderID,
		ProductID:       req.ProductID,
		PackageID:       req.PackageID,
		Quantity:        req.Quantity,
		UnitPrice:       unitPrice,
		DiscountPercent: req.DiscountPercent,
		Complimentary:   req.Complimentary,
		CreatedAt:       time.Now(),
	}
	item.Recalculate()

	if err := s.DB.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add item to order %s: %w", orderID, err)
	}

	if err := s.recomputeAndStoreTotals(ctx, order); err != nil {
		return nil, err
	}

	s.Logger.LogOrder("ITEM_ADD", orderID, fmt.Sprintf("item %s x%d added", item.ItemID, item.Quantity))
	return &item, nil
}

// DeleteDraft removes an empty draft. An empty draft is a valid order;
// deleting one is the only way it ever leaves the store.
func (s *OrderService) DeleteDraft(ctx context.Context, orderID string) error {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("order %s not found: %w", orderID, err)
	}
	if order.Status != models.OrderStatusDraft {
		return &models.InvalidStateTransitionError{
			Entity: "order", Current: order.Status, Attempted: "delete",
		}
	}

	items, err := s.DB.GetItemsByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load items for order %s: %w", orderID, err)
	}
	if len(items) > 0 {
		return models.ErrDraftNotEmpty
	}

	if err := s.DB.DeleteOrder(ctx, orderID); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", orderID, err)
	}

	s.Logger.LogOrder("DELETE", orderID, "empty draft deleted")
	return nil
}

// Complete moves a confirmed order to completed once every ticket has
// been served (or cancelled along the way). Payment has already settled
// at the session level; completion has no inventory effect.
func (s *OrderService) Complete(ctx context.Context, orderID, actorID string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}
	if !models.CanTransitionOrder(order.Status, models.OrderStatusCompleted) {
		return nil, &models.InvalidStateTransitionError{
			Entity: "order", Current: order.Status, Attempted: models.OrderStatusCompleted,
		}
	}

	tickets, err := s.Tickets.GetTicketsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets for order %s: %w", orderID, err)
	}
	for _, t := range tickets {
		if t.Status != models.TicketStatusServed && t.Status != models.TicketStatusCancelled {
			return nil, &models.InvalidStateTransitionError{
				Entity: "order", Current: fmt.Sprintf("confirmed (ticket %s %s)", t.TicketID, t.Status),
				Attempted: models.OrderStatusCompleted,
			}
		}
	}

	order.Status = models.OrderStatusCompleted
	if err := s.DB.UpdateOrder(ctx, *order); err != nil {
		return nil, fmt.Errorf("failed to complete order %s: %w", orderID, err)
	}

	s.Logger.LogOrder("COMPLETE", orderID, "completed by "+actorID)
	return order, nil
}

// recomputeAndStoreTotals re-derives the order totals from its items
// and writes them back. Called after every item mutation.
func (s *OrderService) recomputeAndStoreTotals(ctx context.Context, order *models.Order) error {
	items, err := s.DB.GetItemsByOrder(ctx, order.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load items for order %s: %w", order.OrderID, err)
	}

	order.RecomputeTotals(items)
	if err := s.DB.UpdateOrder(ctx, *order); err != nil {
		return fmt.Errorf("failed to store totals for order %s: %w", order.OrderID, err)
	}
	return nil
}
