package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	SessionStatusOpen   = "open"
	SessionStatusClosed = "closed"
)

// TabSession is one table visit. It references its orders by id only;
// orders carry the optional back-reference via TabSessionID. The
// cumulative total is always derived from the non-voided orders.
type TabSession struct {
	bun.BaseModel `bun:"table:tab_sessions"`

	SessionID        string    `bun:"session_id,pk" json:"session_id"`
	TableID          string    `bun:"table_id" json:"table_id"`
	Status           string    `bun:"status" json:"status"`
	OpenedBy         string    `bun:"opened_by" json:"opened_by"`
	ClosedBy         string    `bun:"closed_by,nullzero" json:"closed_by,omitempty"`
	PaymentMethod    string    `bun:"payment_method,nullzero" json:"payment_method,omitempty"`
	PaymentReference string    `bun:"payment_reference,nullzero" json:"payment_reference,omitempty"`
	AmountPaid       float64   `bun:"amount_paid" json:"amount_paid"`
	OpenedAt         time.Time `bun:"opened_at" json:"opened_at"`
	ClosedAt         time.Time `bun:"closed_at,nullzero" json:"closed_at,omitempty"`
}

type SessionWithOrders struct {
	TabSession
	OrderIDs        []string `json:"order_ids"`
	CumulativeTotal float64  `json:"cumulative_total"`
}

type PaymentDetails struct {
	Method    string  `json:"method"`
	Reference string  `json:"reference,omitempty"`
	Amount    float64 `json:"amount"`
}

type OpenSessionRequest struct {
	TableID string `json:"table_id"`
}
