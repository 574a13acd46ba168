package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-pos/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateSession(ctx context.Context, session models.TabSession) error {
	_, err := d.Bun.NewInsert().Model(&session).Exec(ctx)
	return err
}

func (d *DB) GetSessionByID(ctx context.Context, id string) (*models.TabSession, error) {
	var session models.TabSession
	err := d.Bun.NewSelect().
		Model(&session).
		Where("session_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (d *DB) UpdateSession(ctx context.Context, session models.TabSession) error {
	_, err := d.Bun.NewUpdate().
		Model(&session).
		Column("status", "closed_by", "payment_method", "payment_reference", "amount_paid", "closed_at").
		Where("session_id = ?", session.SessionID).
		Exec(ctx)
	return err
}

// GetOpenSessionByTable is the authoritative occupancy check behind the
// Redis fast path. Returns (nil, nil) when the table is free.
func (d *DB) GetOpenSessionByTable(ctx context.Context, tableID string) (*models.TabSession, error) {
	var session models.TabSession
	err := d.Bun.NewSelect().
		Model(&session).
		Where("table_id = ?", tableID).
		Where("status = ?", models.SessionStatusOpen).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
