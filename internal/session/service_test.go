package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-pos/internal/kafka"
	"ms-pos/internal/logger"
	"ms-pos/internal/models"
	"ms-pos/internal/session"
)

// Mock implementations

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateSession(ctx context.Context, s models.TabSession) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockDBLayer) GetSessionByID(ctx context.Context, id string) (*models.TabSession, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TabSession), args.Error(1)
}

func (m *MockDBLayer) UpdateSession(ctx context.Context, s models.TabSession) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockDBLayer) GetOpenSessionByTable(ctx context.Context, tableID string) (*models.TabSession, error) {
	args := m.Called(tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TabSession), args.Error(1)
}

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderStore) UpdateOrder(ctx context.Context, order models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderStore) ListOrdersBySession(ctx context.Context, sessionID string) ([]models.Order, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

type MockTableLock struct {
	mock.Mock
}

func (m *MockTableLock) LockTable(tableID, sessionID string) (bool, error) {
	args := m.Called(tableID, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTableLock) UnlockTable(tableID, sessionID string) error {
	args := m.Called(tableID, sessionID)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishSessionClosed(event kafka.SessionClosedEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func openSession(id, tableID string) *models.TabSession {
	return &models.TabSession{
		SessionID: id,
		TableID:   tableID,
		Status:    models.SessionStatusOpen,
		OpenedBy:  "waiter-1",
		OpenedAt:  time.Now(),
	}
}

func newService(db *MockDBLayer, orders *MockOrderStore, lock *MockTableLock, pub *MockPublisher) *session.SessionService {
	return session.NewSessionService(db, orders, lock, pub, logger.NewLogger())
}

func TestOpenClaimsTable(t *testing.T) {
	db := new(MockDBLayer)
	lock := new(MockTableLock)

	db.On("GetOpenSessionByTable", "table-7").Return(nil, nil)
	lock.On("LockTable", "table-7", mock.Anything).Return(true, nil)
	db.On("CreateSession", mock.MatchedBy(func(s models.TabSession) bool {
		return s.TableID == "table-7" && s.Status == models.SessionStatusOpen
	})).Return(nil)

	svc := newService(db, new(MockOrderStore), lock, new(MockPublisher))
	sess, err := svc.Open(context.Background(), "table-7", "waiter-1")

	assert.NoError(t, err)
	assert.Equal(t, "table-7", sess.TableID)
	assert.Equal(t, "waiter-1", sess.OpenedBy)
	db.AssertExpectations(t)
	lock.AssertExpectations(t)
}

func TestOpenRejectsOccupiedTable(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetOpenSessionByTable", "table-7").Return(openSession("session-1", "table-7"), nil)

	svc := newService(db, new(MockOrderStore), new(MockTableLock), new(MockPublisher))
	_, err := svc.Open(context.Background(), "table-7", "waiter-1")

	assert.ErrorIs(t, err, models.ErrTableOccupied)
	db.AssertNotCalled(t, "CreateSession", mock.Anything)
}

func TestOpenRollsBackLockOnStorageFailure(t *testing.T) {
	db := new(MockDBLayer)
	lock := new(MockTableLock)

	db.On("GetOpenSessionByTable", "table-7").Return(nil, nil)
	lock.On("LockTable", "table-7", mock.Anything).Return(true, nil)
	db.On("CreateSession", mock.Anything).Return(errors.New("db down"))
	lock.On("UnlockTable", "table-7", mock.Anything).Return(nil)

	svc := newService(db, new(MockOrderStore), lock, new(MockPublisher))
	_, err := svc.Open(context.Background(), "table-7", "waiter-1")

	assert.Error(t, err)
	lock.AssertCalled(t, "UnlockTable", "table-7", mock.Anything)
}

func TestAttachOrderSetsBackReference(t *testing.T) {
	db := new(MockDBLayer)
	orders := new(MockOrderStore)

	db.On("GetSessionByID", "session-1").Return(openSession("session-1", "table-7"), nil)
	orders.On("GetOrderByID", "order-1").Return(&models.Order{
		OrderID: "order-1", Status: models.OrderStatusDraft,
	}, nil)
	orders.On("UpdateOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.TabSessionID == "session-1"
	})).Return(nil)

	svc := newService(db, orders, new(MockTableLock), new(MockPublisher))
	assert.NoError(t, svc.AttachOrder(context.Background(), "session-1", "order-1"))
	orders.AssertExpectations(t)
}

func TestAttachOrderRejectsClosedSession(t *testing.T) {
	db := new(MockDBLayer)
	closed := openSession("session-1", "table-7")
	closed.Status = models.SessionStatusClosed
	db.On("GetSessionByID", "session-1").Return(closed, nil)

	svc := newService(db, new(MockOrderStore), new(MockTableLock), new(MockPublisher))
	err := svc.AttachOrder(context.Background(), "session-1", "order-1")

	var stateErr *models.InvalidStateTransitionError
	assert.True(t, errors.As(err, &stateErr))
}

func TestComputeTotalSkipsVoidedOrders(t *testing.T) {
	// Scenario: three orders on the tab worth 250, 640 and 120; the 120
	// one is voided. The running total reads 890.
	db := new(MockDBLayer)
	orders := new(MockOrderStore)

	db.On("GetSessionByID", "session-1").Return(openSession("session-1", "table-7"), nil)
	orders.On("ListOrdersBySession", "session-1").Return([]models.Order{
		{OrderID: "order-1", Status: models.OrderStatusConfirmed, TotalAmount: 250},
		{OrderID: "order-2", Status: models.OrderStatusConfirmed, TotalAmount: 640},
		{OrderID: "order-3", Status: models.OrderStatusVoided, TotalAmount: 120},
	}, nil)

	svc := newService(db, orders, new(MockTableLock), new(MockPublisher))
	result, err := svc.ComputeTotal(context.Background(), "session-1")

	assert.NoError(t, err)
	assert.Equal(t, 890.00, result.CumulativeTotal)
	assert.Equal(t, []string{"order-1", "order-2", "order-3"}, result.OrderIDs)
}

func TestCloseSettlesAndReleasesTable(t *testing.T) {
	db := new(MockDBLayer)
	orders := new(MockOrderStore)
	lock := new(MockTableLock)
	pub := new(MockPublisher)

	db.On("GetSessionByID", "session-1").Return(openSession("session-1", "table-7"), nil)
	orders.On("ListOrdersBySession", "session-1").Return([]models.Order{
		{OrderID: "order-1", Status: models.OrderStatusCompleted, TotalAmount: 250},
		{OrderID: "order-2", Status: models.OrderStatusCompleted, TotalAmount: 640},
	}, nil)
	db.On("UpdateSession", mock.MatchedBy(func(s models.TabSession) bool {
		return s.Status == models.SessionStatusClosed &&
			s.PaymentMethod == "cash" &&
			s.AmountPaid == 900
	})).Return(nil)
	lock.On("UnlockTable", "table-7", "session-1").Return(nil)
	pub.On("PublishSessionClosed", mock.MatchedBy(func(e kafka.SessionClosedEvent) bool {
		return e.CumulativeTotal == 890.00 && len(e.OrderIDs) == 2
	})).Return(nil)

	svc := newService(db, orders, lock, pub)
	result, err := svc.Close(context.Background(), "session-1",
		models.PaymentDetails{Method: "cash", Amount: 900}, "cashier-1")

	assert.NoError(t, err)
	assert.Equal(t, 890.00, result.CumulativeTotal)
	assert.Equal(t, models.SessionStatusClosed, result.Status)
	lock.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCloseBlockedByDraftOrder(t *testing.T) {
	db := new(MockDBLayer)
	orders := new(MockOrderStore)
	lock := new(MockTableLock)

	db.On("GetSessionByID", "session-1").Return(openSession("session-1", "table-7"), nil)
	orders.On("ListOrdersBySession", "session-1").Return([]models.Order{
		{OrderID: "order-1", Status: models.OrderStatusCompleted, TotalAmount: 250},
		{OrderID: "order-2", Status: models.OrderStatusDraft},
	}, nil)

	svc := newService(db, orders, lock, new(MockPublisher))
	_, err := svc.Close(context.Background(), "session-1",
		models.PaymentDetails{Method: "cash", Amount: 250}, "cashier-1")

	assert.ErrorIs(t, err, models.ErrSessionHasDraftOrders)
	db.AssertNotCalled(t, "UpdateSession", mock.Anything)
	lock.AssertNotCalled(t, "UnlockTable", mock.Anything, mock.Anything)
}

func TestCloseWithZeroOrdersIsValid(t *testing.T) {
	db := new(MockDBLayer)
	orders := new(MockOrderStore)
	lock := new(MockTableLock)
	pub := new(MockPublisher)

	db.On("GetSessionByID", "session-1").Return(openSession("session-1", "table-7"), nil)
	orders.On("ListOrdersBySession", "session-1").Return([]models.Order{}, nil)
	db.On("UpdateSession", mock.Anything).Return(nil)
	lock.On("UnlockTable", "table-7", "session-1").Return(nil)
	pub.On("PublishSessionClosed", mock.Anything).Return(nil)

	svc := newService(db, orders, lock, pub)
	result, err := svc.Close(context.Background(), "session-1",
		models.PaymentDetails{Method: "cash", Amount: 0}, "cashier-1")

	assert.NoError(t, err)
	assert.Equal(t, 0.00, result.CumulativeTotal)
	assert.Empty(t, result.OrderIDs)
}

func TestCloseRejectsAlreadyClosedSession(t *testing.T) {
	db := new(MockDBLayer)
	closed := openSession("session-1", "table-7")
	closed.Status = models.SessionStatusClosed
	db.On("GetSessionByID", "session-1").Return(closed, nil)

	svc := newService(db, new(MockOrderStore), new(MockTableLock), new(MockPublisher))
	_, err := svc.Close(context.Background(), "session-1",
		models.PaymentDetails{Method: "cash"}, "cashier-1")

	var stateErr *models.InvalidStateTransitionError
	assert.True(t, errors.As(err, &stateErr))
}
