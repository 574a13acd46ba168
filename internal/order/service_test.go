package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-pos/internal/logger"
	"ms-pos/internal/models"
	"ms-pos/internal/order"
)

// Mock implementations

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateOrder(ctx context.Context, o models.Order) error {
	args := m.Called(o)
	return args.Error(0)
}

func (m *MockDBLayer) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockDBLayer) UpdateOrder(ctx context.Context, o models.Order) error {
	args := m.Called(o)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteOrder(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockDBLayer) CreateItem(ctx context.Context, item models.OrderItem) error {
	args := m.Called(item)
	return args.Error(0)
}

func (m *MockDBLayer) GetItemByID(ctx context.Context, id string) (*models.OrderItem, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderItem), args.Error(1)
}

func (m *MockDBLayer) UpdateItem(ctx context.Context, item models.OrderItem) error {
	args := m.Called(item)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteItem(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockDBLayer) GetItemsByOrder(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderItem), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Reserve(ctx context.Context, productID string, qty int, actorID, causeOrderID string) (string, error) {
	args := m.Called(productID, qty, actorID, causeOrderID)
	return args.String(0), args.Error(1)
}

func (m *MockLedger) Release(ctx context.Context, productID string, qty int, actorID, causeOrderID string) (string, error) {
	args := m.Called(productID, qty, actorID, causeOrderID)
	return args.String(0), args.Error(1)
}

type MockTickets struct {
	mock.Mock
}

func (m *MockTickets) GetTicketsByItem(ctx context.Context, itemID string) ([]models.KitchenTicket, error) {
	args := m.Called(itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.KitchenTicket), args.Error(1)
}

func (m *MockTickets) GetTicketsByOrder(ctx context.Context, orderID string) ([]models.KitchenTicket, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.KitchenTicket), args.Error(1)
}

func (m *MockTickets) Cancel(ctx context.Context, ticketID, actorID string) error {
	args := m.Called(ticketID, actorID)
	return args.Error(0)
}

func newService(db *MockDBLayer, catalog *MockCatalog, ledger *MockLedger, tickets *MockTickets) *order.OrderService {
	return order.NewOrderService(db, catalog, ledger, tickets, logger.NewLogger())
}

func testOrder(id, status string) *models.Order {
	return &models.Order{OrderID: id, Status: status, CreatedAt: time.Now()}
}

func testItem(orderID, productID string, qty int, price, discountPct float64) models.OrderItem {
	item := models.OrderItem{
		ItemID:          uuid.NewString(),
		OrderID:         orderID,
		ProductID:       productID,
		Quantity:        qty,
		UnitPrice:       price,
		DiscountPercent: discountPct,
		CreatedAt:       time.Now(),
	}
	item.Recalculate()
	return item
}

func TestCreateDraftHasNoTotals(t *testing.T) {
	db := new(MockDBLayer)
	db.On("CreateOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.Status == models.OrderStatusDraft && o.TotalAmount == 0
	})).Return(nil)

	svc := newService(db, new(MockCatalog), new(MockLedger), new(MockTickets))
	draft, err := svc.CreateDraft(context.Background(), "waiter-1", "")

	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusDraft, draft.Status)
	assert.Equal(t, "waiter-1", draft.CreatedBy)
	db.AssertExpectations(t)
}

func TestAddItemPricesFromCatalogAndRecomputesTotals(t *testing.T) {
	db := new(MockDBLayer)
	catalog := new(MockCatalog)

	draft := testOrder("order-1", models.OrderStatusDraft)
	db.On("GetOrderByID", "order-1").Return(draft, nil)
	catalog.On("GetProductByID", "prod-1").Return(&models.Product{
		ProductID: "prod-1", Name: "Sisig", Category: models.DestinationKitchen, Price: 185.50,
	}, nil)

	db.On("CreateItem", mock.MatchedBy(func(item models.OrderItem) bool {
		// Catalog price wins over anything the caller sent.
		return item.UnitPrice == 185.50 && item.LineTotal == 371.00
	})).Return(nil)
	stored := testItem("order-1", "prod-1", 2, 185.50, 0)
	db.On("GetItemsByOrder", "order-1").Return([]models.OrderItem{stored}, nil)
	db.On("UpdateOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.TotalAmount == 371.00
	})).Return(nil)

	svc := newService(db, catalog, new(MockLedger), new(MockTickets))
	item, err := svc.AddItem(context.Background(), "order-1", models.AddItemRequest{
		ProductID: "prod-1",
		Quantity:  2,
		UnitPrice: 1.00, // ignored for product lines
	})

	assert.NoError(t, err)
	assert.Equal(t, 185.50, item.UnitPrice)
	assert.Equal(t, 371.00, item.LineSubtotal)
	db.AssertExpectations(t)
	catalog.AssertExpectations(t)
}

func TestAddItemRequiresExactlyOneOfProductOrPackage(t *testing.T) {
	db := new(MockDBLayer)
	draft := testOrder("order-1", models.OrderStatusDraft)
	db.On("GetOrderByID", "order-1").Return(draft, nil)

	svc := newService(db, new(MockCatalog), new(MockLedger), new(MockTickets))

	_, err := svc.AddItem(context.Background(), "order-1", models.AddItemRequest{Quantity: 1})
	assert.Error(t, err)

	_, err = svc.AddItem(context.Background(), "order-1", models.AddItemRequest{
		ProductID: "prod-1", PackageID: "pkg-1", Quantity: 1,
	})
	assert.Error(t, err)

	db.AssertNotCalled(t, "CreateItem", mock.Anything)
}

func TestAddItemRejectedOnConfirmedOrder(t *testing.T) {
	db := new(MockDBLayer)
	confirmed := testOrder("order-1", models.OrderStatusConfirmed)
	db.On("GetOrderByID", "order-1").Return(confirmed, nil)

	svc := newService(db, new(MockCatalog), new(MockLedger), new(MockTickets))
	_, err := svc.AddItem(context.Background(), "order-1", models.AddItemRequest{
		ProductID: "prod-1", Quantity: 1,
	})

	var stateErr *models.InvalidStateTransitionError
	assert.True(t, errors.As(err, &stateErr))
	assert.Equal(t, models.OrderStatusConfirmed, stateErr.Current)
}

func TestPerLineDiscountRounding(t *testing.T) {
	// 3 x 99.99 at 10% and 1 x 0.05 at 50%. Per-line rounding keeps the
	// order total equal to the sum of the printed lines.
	a := testItem("order-1", "prod-a", 3, 99.99, 10)
	b := testItem("order-1", "prod-b", 1, 0.05, 50)

	assert.Equal(t, 299.97, a.LineSubtotal)
	assert.Equal(t, 30.00, a.LineDiscount)
	assert.Equal(t, 269.97, a.LineTotal)

	assert.Equal(t, 0.05, b.LineSubtotal)
	assert.Equal(t, 0.03, b.LineDiscount)
	assert.Equal(t, 0.02, b.LineTotal)

	var o models.Order
	o.RecomputeTotals([]models.OrderItem{a, b})
	assert.Equal(t, 300.02, o.Subtotal)
	assert.Equal(t, 30.03, o.DiscountAmount)
	assert.Equal(t, 269.99, o.TotalAmount)
}

func TestComplimentaryLineTotalsZero(t *testing.T) {
	item := models.OrderItem{Quantity: 2, UnitPrice: 120, Complimentary: true}
	item.Recalculate()

	assert.Equal(t, 240.00, item.LineSubtotal)
	assert.Equal(t, 240.00, item.LineDiscount)
	assert.Equal(t, 0.00, item.LineTotal)
}

func TestDeleteDraftOnlyWhenEmpty(t *testing.T) {
	db := new(MockDBLayer)
	draft := testOrder("order-1", models.OrderStatusDraft)
	db.On("GetOrderByID", "order-1").Return(draft, nil)
	db.On("GetItemsByOrder", "order-1").Return([]models.OrderItem{
		testItem("order-1", "prod-1", 1, 50, 0),
	}, nil).Once()

	svc := newService(db, new(MockCatalog), new(MockLedger), new(MockTickets))
	err := svc.DeleteDraft(context.Background(), "order-1")
	assert.ErrorIs(t, err, models.ErrDraftNotEmpty)
	db.AssertNotCalled(t, "DeleteOrder", mock.Anything)

	db.On("GetItemsByOrder", "order-1").Return([]models.OrderItem{}, nil).Once()
	db.On("DeleteOrder", "order-1").Return(nil)
	assert.NoError(t, svc.DeleteDraft(context.Background(), "order-1"))
	db.AssertExpectations(t)
}

func TestDeleteRejectsConfirmedOrder(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetOrderByID", "order-1").Return(testOrder("order-1", models.OrderStatusConfirmed), nil)

	svc := newService(db, new(MockCatalog), new(MockLedger), new(MockTickets))
	err := svc.DeleteDraft(context.Background(), "order-1")

	var stateErr *models.InvalidStateTransitionError
	assert.True(t, errors.As(err, &stateErr))
}

func TestCompleteRequiresEveryTicketSettled(t *testing.T) {
	db := new(MockDBLayer)
	tickets := new(MockTickets)
	db.On("GetOrderByID", "order-1").Return(testOrder("order-1", models.OrderStatusConfirmed), nil)
	tickets.On("GetTicketsByOrder", "order-1").Return([]models.KitchenTicket{
		{TicketID: "t1", Status: models.TicketStatusServed},
		{TicketID: "t2", Status: models.TicketStatusPreparing},
	}, nil).Once()

	svc := newService(db, new(MockCatalog), new(MockLedger), tickets)
	_, err := svc.Complete(context.Background(), "order-1", "cashier-1")

	var stateErr *models.InvalidStateTransitionError
	assert.True(t, errors.As(err, &stateErr))
	db.AssertNotCalled(t, "UpdateOrder", mock.Anything)

	tickets.On("GetTicketsByOrder", "order-1").Return([]models.KitchenTicket{
		{TicketID: "t1", Status: models.TicketStatusServed},
		{TicketID: "t2", Status: models.TicketStatusCancelled},
	}, nil).Once()
	db.On("UpdateOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.Status == models.OrderStatusCompleted
	})).Return(nil)

	completed, err := svc.Complete(context.Background(), "order-1", "cashier-1")
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, completed.Status)
}

func TestCompleteRejectsDraft(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetOrderByID", "order-1").Return(testOrder("order-1", models.OrderStatusDraft), nil)

	svc := newService(db, new(MockCatalog), new(MockLedger), new(MockTickets))
	_, err := svc.Complete(context.Background(), "order-1", "cashier-1")

	var stateErr *models.InvalidStateTransitionError
	assert.True(t, errors.As(err, &stateErr))
}
