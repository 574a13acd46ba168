package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ms-pos/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateTicket(ctx context.Context, ticket models.KitchenTicket) error {
	_, err := d.Bun.NewInsert().Model(&ticket).Exec(ctx)
	return err
}

func (d *DB) GetTicketByID(ctx context.Context, id string) (*models.KitchenTicket, error) {
	var ticket models.KitchenTicket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) UpdateTicket(ctx context.Context, ticket models.KitchenTicket) error {
	ticket.UpdatedAt = time.Now()
	_, err := d.Bun.NewUpdate().
		Model(&ticket).
		Column("status", "assigned_to", "flagged", "updated_at").
		Where("ticket_id = ?", ticket.TicketID).
		Exec(ctx)
	return err
}

func (d *DB) GetTicketsByOrder(ctx context.Context, orderID string) ([]models.KitchenTicket, error) {
	var tickets []models.KitchenTicket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("order_id = ?", orderID).
		Order("created_at", "ticket_id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) GetTicketsByItem(ctx context.Context, itemID string) ([]models.KitchenTicket, error) {
	var tickets []models.KitchenTicket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("order_item_id = ?", itemID).
		Order("created_at", "ticket_id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// GetTicketsByStation returns the active queue for one prep station.
func (d *DB) GetTicketsByStation(ctx context.Context, station string) ([]models.KitchenTicket, error) {
	var tickets []models.KitchenTicket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("destination = ?", station).
		Where("status IN (?)", bun.In([]string{
			models.TicketStatusPending,
			models.TicketStatusPreparing,
			models.TicketStatusReady,
		})).
		Order("created_at", "ticket_id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
