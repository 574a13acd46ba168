package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-pos/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

func (d *DB) CreateOrder(ctx context.Context, order models.Order) error {
	_, err := d.Bun.NewInsert().Model(&order).Exec(ctx)
	return err
}

func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("order_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder writes back every mutable order column. Items are managed
// through the item methods below; totals always arrive recomputed.
func (d *DB) UpdateOrder(ctx context.Context, order models.Order) error {
	_, err := d.Bun.NewUpdate().
		Model(&order).
		Column("status", "tab_session_id", "subtotal", "discount_amount", "total_amount",
			"voided_by", "void_reason", "confirmed_at").
		Where("order_id = ?", order.OrderID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteOrder(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Order)(nil)).
		Where("order_id = ?", id).
		Exec(ctx)
	return err
}

// ListOrdersBySession returns the orders attached to a tab session.
func (d *DB) ListOrdersBySession(ctx context.Context, sessionID string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("tab_session_id = ?", sessionID).
		Order("created_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ---------------- ITEMS ----------------

func (d *DB) CreateItem(ctx context.Context, item models.OrderItem) error {
	_, err := d.Bun.NewInsert().Model(&item).Exec(ctx)
	return err
}

func (d *DB) GetItemByID(ctx context.Context, id string) (*models.OrderItem, error) {
	var item models.OrderItem
	err := d.Bun.NewSelect().
		Model(&item).
		Where("item_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (d *DB) UpdateItem(ctx context.Context, item models.OrderItem) error {
	_, err := d.Bun.NewUpdate().
		Model(&item).
		Column("quantity", "unit_price", "discount_percent",
			"line_subtotal", "line_discount", "line_total", "complimentary").
		Where("item_id = ?", item.ItemID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteItem(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.OrderItem)(nil)).
		Where("item_id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) GetItemsByOrder(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := d.Bun.NewSelect().
		Model(&items).
		Where("order_id = ?", orderID).
		Order("created_at", "item_id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}
