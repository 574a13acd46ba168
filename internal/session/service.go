package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-pos/internal/kafka"
	"ms-pos/internal/logger"
	"ms-pos/internal/models"
)

type DBLayer interface {
	CreateSession(ctx context.Context, session models.TabSession) error
	GetSessionByID(ctx context.Context, id string) (*models.TabSession, error)
	UpdateSession(ctx context.Context, session models.TabSession) error
	GetOpenSessionByTable(ctx context.Context, tableID string) (*models.TabSession, error)
}

type OrderStore interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	UpdateOrder(ctx context.Context, order models.Order) error
	ListOrdersBySession(ctx context.Context, sessionID string) ([]models.Order, error)
}

type TableLock interface {
	LockTable(tableID, sessionID string) (bool, error)
	UnlockTable(tableID, sessionID string) error
}

type EventPublisher interface {
	PublishSessionClosed(event kafka.SessionClosedEvent) error
}

// SessionService owns table visits: one open session per table, orders
// attached by id, a cumulative total that is always re-derived, and a
// close that settles payment without touching inventory.
type SessionService struct {
	DB     DBLayer
	Orders OrderStore
	Lock   TableLock
	Events EventPublisher
	Logger *logger.Logger
}

func NewSessionService(db DBLayer, orders OrderStore, lock TableLock, events EventPublisher, log *logger.Logger) *SessionService {
	return &SessionService{DB: db, Orders: orders, Lock: lock, Events: events, Logger: log}
}

// Open claims the table and starts a session. Fails when the table
// already has an open one.
func (s *SessionService) Open(ctx context.Context, tableID, actorID string) (*models.TabSession, error) {
	existing, err := s.DB.GetOpenSessionByTable(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to check table %s: %w", tableID, err)
	}
	if existing != nil {
		return nil, models.ErrTableOccupied
	}

	session := models.TabSession{
		SessionID: uuid.NewString(),
		TableID:   tableID,
		Status:    models.SessionStatusOpen,
		OpenedBy:  actorID,
		OpenedAt:  time.Now(),
	}

	ok, err := s.Lock.LockTable(tableID, session.SessionID)
	if err != nil {
		return nil, fmt.Errorf("table lock error: %w", err)
	}
	if !ok {
		return nil, models.ErrTableOccupied
	}

	if err := s.DB.CreateSession(ctx, session); err != nil {
		// Roll the claim back so the table is not stranded.
		_ = s.Lock.UnlockTable(tableID, session.SessionID)
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	s.Logger.LogSession("OPEN", session.SessionID, fmt.Sprintf("table %s opened by %s", tableID, actorID))
	return &session, nil
}

// AttachOrder links an order to the session. The session keeps no
// owning list; the order carries the back-reference.
func (s *SessionService) AttachOrder(ctx context.Context, sessionID, orderID string) error {
	session, err := s.DB.GetSessionByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("session %s not found: %w", sessionID, err)
	}
	if session.Status != models.SessionStatusOpen {
		return &models.InvalidStateTransitionError{
			Entity: "session", Current: session.Status, Attempted: "attach_order",
		}
	}

	order, err := s.Orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("order %s not found: %w", orderID, err)
	}

	order.TabSessionID = sessionID
	if err := s.Orders.UpdateOrder(ctx, *order); err != nil {
		return fmt.Errorf("failed to attach order %s to session %s: %w", orderID, sessionID, err)
	}

	s.Logger.LogSession("ATTACH", sessionID, "order "+orderID+" attached")
	return nil
}

// ComputeTotal sums the non-voided attached orders. Always recomputed,
// never cached.
func (s *SessionService) ComputeTotal(ctx context.Context, sessionID string) (*models.SessionWithOrders, error) {
	session, err := s.DB.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s not found: %w", sessionID, err)
	}

	orders, err := s.Orders.ListOrdersBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for session %s: %w", sessionID, err)
	}

	result := &models.SessionWithOrders{TabSession: *session, OrderIDs: []string{}}
	for _, o := range orders {
		result.OrderIDs = append(result.OrderIDs, o.OrderID)
		if o.Status != models.OrderStatusVoided {
			result.CumulativeTotal = models.RoundCentavos(result.CumulativeTotal + o.TotalAmount)
		}
	}
	return result, nil
}

// Close settles the tab and releases the table. No attached order may
// still be draft; zero attached orders is a valid (walk-in, no sale)
// close. Closing moves no inventory; every confirmed order already
// holds its reservations.
func (s *SessionService) Close(ctx context.Context, sessionID string, payment models.PaymentDetails, actorID string) (*models.SessionWithOrders, error) {
	session, err := s.DB.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s not found: %w", sessionID, err)
	}
	if session.Status != models.SessionStatusOpen {
		return nil, &models.InvalidStateTransitionError{
			Entity: "session", Current: session.Status, Attempted: models.SessionStatusClosed,
		}
	}

	orders, err := s.Orders.ListOrdersBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for session %s: %w", sessionID, err)
	}
	for _, o := range orders {
		if o.Status == models.OrderStatusDraft {
			return nil, models.ErrSessionHasDraftOrders
		}
	}

	total := 0.0
	orderIDs := make([]string, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.OrderID)
		if o.Status != models.OrderStatusVoided {
			total = models.RoundCentavos(total + o.TotalAmount)
		}
	}

	session.Status = models.SessionStatusClosed
	session.ClosedBy = actorID
	session.PaymentMethod = payment.Method
	session.PaymentReference = payment.Reference
	session.AmountPaid = payment.Amount
	session.ClosedAt = time.Now()

	if err := s.DB.UpdateSession(ctx, *session); err != nil {
		return nil, fmt.Errorf("failed to close session %s: %w", sessionID, err)
	}

	if err := s.Lock.UnlockTable(session.TableID, sessionID); err != nil {
		s.Logger.Error("SESSION", fmt.Sprintf("failed to release table %s: %v", session.TableID, err))
	}

	s.Logger.LogSession("CLOSE", sessionID,
		fmt.Sprintf("table %s closed by %s, total %.2f via %s", session.TableID, actorID, total, payment.Method))

	err = s.Events.PublishSessionClosed(kafka.SessionClosedEvent{
		SessionID:       sessionID,
		TableID:         session.TableID,
		OrderIDs:        orderIDs,
		CumulativeTotal: total,
		PaymentMethod:   payment.Method,
		ClosedBy:        actorID,
		ClosedAt:        session.ClosedAt,
	})
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("session closed publish failed: %v", err))
	}

	return &models.SessionWithOrders{
		TabSession:      *session,
		OrderIDs:        orderIDs,
		CumulativeTotal: total,
	}, nil
}
