package kitchen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-pos/internal/kafka"
	"ms-pos/internal/logger"
	"ms-pos/internal/models"
)

type TicketDBLayer interface {
	CreateTicket(ctx context.Context, ticket models.KitchenTicket) error
	GetTicketByID(ctx context.Context, id string) (*models.KitchenTicket, error)
	UpdateTicket(ctx context.Context, ticket models.KitchenTicket) error
	GetTicketsByOrder(ctx context.Context, orderID string) ([]models.KitchenTicket, error)
	GetTicketsByItem(ctx context.Context, itemID string) ([]models.KitchenTicket, error)
	GetTicketsByStation(ctx context.Context, station string) ([]models.KitchenTicket, error)
}

type ProductCatalog interface {
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
}

type EventPublisher interface {
	PublishTicketCreated(ticket models.KitchenTicket) error
	PublishTicketStatusChanged(event kafka.TicketStatusChangedEvent) error
}

// Router turns confirmed line items into station tickets and advances
// them through their lifecycle, independently of the order lifecycle.
type Router struct {
	DB      TicketDBLayer
	Catalog ProductCatalog
	Events  EventPublisher
	Logger  *logger.Logger
}

func NewRouter(db TicketDBLayer, catalog ProductCatalog, events EventPublisher, log *logger.Logger) *Router {
	return &Router{DB: db, Catalog: catalog, Events: events, Logger: log}
}

// barKeywords drive the fallback inference when a product carries no
// usable category.
var barKeywords = []string{"beer", "wine", "juice", "soda", "coffee", "tea", "shake", "cocktail"}

func inferDestination(name string) string {
	lower := strings.ToLower(name)
	for _, kw := range barKeywords {
		if strings.Contains(lower, kw) {
			return models.DestinationBar
		}
	}
	return models.DestinationKitchen
}

// destinationsFor resolves the stations an item must reach.
func (r *Router) destinationsFor(ctx context.Context, item models.OrderItem) ([]string, error) {
	// Package lines default to the kitchen; there is no product row to
	// consult.
	if item.ProductID == "" {
		return []string{models.DestinationKitchen}, nil
	}

	product, err := r.Catalog.GetProductByID(ctx, item.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product %s not found: %w", item.ProductID, err)
	}

	dest := product.Category
	if !models.ValidDestination(dest) {
		dest = inferDestination(product.Name)
	}

	if dest == models.DestinationBoth {
		return []string{models.DestinationKitchen, models.DestinationBar}, nil
	}
	return []string{dest}, nil
}

// Route creates one pending ticket per (item, destination). It is
// idempotent: items that already have a ticket at a destination are
// skipped, which supports re-confirmation after partial edits.
func (r *Router) Route(ctx context.Context, order *models.Order, items []models.OrderItem) ([]models.KitchenTicket, error) {
	var created []models.KitchenTicket

	for _, item := range items {
		destinations, err := r.destinationsFor(ctx, item)
		if err != nil {
			return created, err
		}

		existing, err := r.DB.GetTicketsByItem(ctx, item.ItemID)
		if err != nil {
			return created, fmt.Errorf("failed to load tickets for item %s: %w", item.ItemID, err)
		}
		covered := make(map[string]bool, len(existing))
		for _, t := range existing {
			covered[t.Destination] = true
		}

		for _, dest := range destinations {
			if covered[dest] {
				continue
			}

			ticket := models.KitchenTicket{
				TicketID:    uuid.NewString(),
				OrderID:     order.OrderID,
				OrderItemID: item.ItemID,
				Destination: dest,
				Status:      models.TicketStatusPending,
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}
			if err := r.DB.CreateTicket(ctx, ticket); err != nil {
				return created, fmt.Errorf("failed to create ticket for item %s: %w", item.ItemID, err)
			}
			created = append(created, ticket)

			r.Logger.LogTicket("CREATE", ticket.TicketID,
				fmt.Sprintf("item %s routed to %s", item.ItemID, dest))
			if err := r.Events.PublishTicketCreated(ticket); err != nil {
				r.Logger.Error("KAFKA", fmt.Sprintf("ticket created publish failed: %v", err))
			}
		}
	}

	return created, nil
}

// Advance moves a ticket exactly one step forward:
// pending -> preparing -> ready -> served. Anything else is rejected.
func (r *Router) Advance(ctx context.Context, ticketID, newStatus, actorID string) (*models.KitchenTicket, error) {
	ticket, err := r.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket %s not found: %w", ticketID, err)
	}

	if !models.CanAdvanceTicket(ticket.Status, newStatus) {
		return nil, &models.InvalidStateTransitionError{
			Entity: "ticket", Current: ticket.Status, Attempted: newStatus,
		}
	}

	previous := ticket.Status
	ticket.Status = newStatus
	if newStatus == models.TicketStatusPreparing {
		ticket.AssignedTo = actorID
	}

	if err := r.DB.UpdateTicket(ctx, *ticket); err != nil {
		return nil, fmt.Errorf("failed to advance ticket %s: %w", ticketID, err)
	}

	r.Logger.LogTicket("ADVANCE", ticketID, fmt.Sprintf("%s -> %s by %s", previous, newStatus, actorID))
	err = r.Events.PublishTicketStatusChanged(kafka.TicketStatusChangedEvent{
		TicketID:       ticket.TicketID,
		OrderID:        ticket.OrderID,
		OrderItemID:    ticket.OrderItemID,
		Destination:    ticket.Destination,
		PreviousStatus: previous,
		NewStatus:      newStatus,
		ChangedBy:      actorID,
		OccurredAt:     time.Now(),
	})
	if err != nil {
		r.Logger.Error("KAFKA", fmt.Sprintf("ticket status publish failed: %v", err))
	}

	return ticket, nil
}

// Cancel marks a ticket cancelled. Only pending and preparing tickets
// can be cancelled; tickets past that are kept as history and flagged
// by CancelForOrder.
func (r *Router) Cancel(ctx context.Context, ticketID, actorID string) error {
	ticket, err := r.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("ticket %s not found: %w", ticketID, err)
	}

	if ticket.Status != models.TicketStatusPending && ticket.Status != models.TicketStatusPreparing {
		return &models.InvalidStateTransitionError{
			Entity: "ticket", Current: ticket.Status, Attempted: models.TicketStatusCancelled,
		}
	}

	previous := ticket.Status
	ticket.Status = models.TicketStatusCancelled
	if err := r.DB.UpdateTicket(ctx, *ticket); err != nil {
		return fmt.Errorf("failed to cancel ticket %s: %w", ticketID, err)
	}

	r.Logger.LogTicket("CANCEL", ticketID, fmt.Sprintf("%s -> cancelled by %s", previous, actorID))
	err = r.Events.PublishTicketStatusChanged(kafka.TicketStatusChangedEvent{
		TicketID:       ticket.TicketID,
		OrderID:        ticket.OrderID,
		OrderItemID:    ticket.OrderItemID,
		Destination:    ticket.Destination,
		PreviousStatus: previous,
		NewStatus:      models.TicketStatusCancelled,
		ChangedBy:      actorID,
		OccurredAt:     time.Now(),
	})
	if err != nil {
		r.Logger.Error("KAFKA", fmt.Sprintf("ticket status publish failed: %v", err))
	}
	return nil
}

// CancelForOrder compensates an order void: pending and preparing
// tickets are cancelled, later-stage tickets are flagged and kept as
// historical records.
func (r *Router) CancelForOrder(ctx context.Context, orderID, actorID string) error {
	tickets, err := r.DB.GetTicketsByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load tickets for order %s: %w", orderID, err)
	}

	for _, t := range tickets {
		switch t.Status {
		case models.TicketStatusPending, models.TicketStatusPreparing:
			if err := r.Cancel(ctx, t.TicketID, actorID); err != nil {
				return err
			}
		case models.TicketStatusReady, models.TicketStatusServed:
			t.Flagged = true
			if err := r.DB.UpdateTicket(ctx, t); err != nil {
				return fmt.Errorf("failed to flag ticket %s: %w", t.TicketID, err)
			}
			r.Logger.LogTicket("FLAG", t.TicketID, "kept as history after order void")
		}
	}
	return nil
}

// TicketsByStation returns a station's active queue.
func (r *Router) TicketsByStation(ctx context.Context, station string) ([]models.KitchenTicket, error) {
	if station != models.DestinationKitchen && station != models.DestinationBar {
		return nil, fmt.Errorf("unknown station %q", station)
	}
	return r.DB.GetTicketsByStation(ctx, station)
}

// GetTicketsByItem and GetTicketsByOrder satisfy the order service's
// ticket layer.
func (r *Router) GetTicketsByItem(ctx context.Context, itemID string) ([]models.KitchenTicket, error) {
	return r.DB.GetTicketsByItem(ctx, itemID)
}

func (r *Router) GetTicketsByOrder(ctx context.Context, orderID string) ([]models.KitchenTicket, error) {
	return r.DB.GetTicketsByOrder(ctx, orderID)
}
