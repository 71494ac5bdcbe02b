package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"minicrm/internal/apperror"
	"minicrm/internal/metrics"
	"minicrm/internal/models"
	"minicrm/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(eventType string, body []byte) error {
	return m.Called(eventType, body).Error(0)
}

func newOrderService(t *testing.T) (*services.OrderService, *MockPublisher) {
	t.Helper()
	store, _ := setupStore(t)
	publisher := new(MockPublisher)
	return services.NewOrderService(store, publisher, 0, testLogger(), metrics.NewWithRegisterer(prometheus.NewRegistry())), publisher
}

func TestCreateOrder_InlineCustomerAndItems(t *testing.T) {
	store, _ := setupStore(t)
	publisher := new(MockPublisher)
	svc := services.NewOrderService(store, publisher, 0, testLogger(), nil)
	ctx := context.Background()

	product := seedProduct(t, store, "TV-1", 10, "250.00", true)
	publisher.On("Publish", services.EventOrderCreated, mock.Anything).Return(nil).Once()

	order, err := svc.CreateOrder(ctx, services.CreateOrderInput{
		Customer: services.NewCustomer{Customer: models.Customer{
			FirstName: "Can",
			Phone:     strPtr("0532 765 43 21"),
			Email:     strPtr("can@example.com"),
		}},
		Contents: services.ItemizedContents{Items: []services.ItemInput{{ProductID: product.ID, Quantity: 2}}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, dec("500.00").Equal(order.TotalAmount), "total %s", order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.True(t, dec("250.00").Equal(order.Items[0].UnitPrice))
	assert.Equal(t, 2, order.Items[0].Quantity)
	require.NotNil(t, order.Customer)
	assert.Equal(t, "5327654321", *order.Customer.Phone)
	require.NotNil(t, order.Customer.IsActive)
	assert.True(t, *order.Customer.IsActive)

	reloaded, err := store.Products().GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, reloaded.Stock)

	stored, err := svc.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, dec("500.00").Equal(stored.TotalAmount))
	require.Len(t, stored.Items, 1)
	require.NotNil(t, stored.Items[0].Product)
	assert.Equal(t, "TV-1", stored.Items[0].Product.SKU)

	publisher.AssertExpectations(t)
}

func TestCreateOrder_InsufficientStockRollsBackEverything(t *testing.T) {
	store, db := setupStore(t)
	publisher := new(MockPublisher)
	svc := services.NewOrderService(store, publisher, 0, testLogger(), nil)
	ctx := context.Background()

	plenty := seedProduct(t, store, "PLENTY", 100, "1.00", true)
	scarce := seedProduct(t, store, "SCARCE", 1, "5.00", true)

	_, err := svc.CreateOrder(ctx, services.CreateOrderInput{
		Customer: services.NewCustomer{Customer: models.Customer{
			FirstName: "Rollback",
			Email:     strPtr("rollback@example.com"),
		}},
		Contents: services.ItemizedContents{Items: []services.ItemInput{
			{ProductID: plenty.ID, Quantity: 3},
			{ProductID: scarce.ID, Quantity: 5},
		}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))

	found, err := store.Customers().FindByPhoneOrEmail(ctx, nil, strPtr("rollback@example.com"), "")
	require.NoError(t, err)
	assert.Nil(t, found)

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
	var items int64
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items)

	p1, err := store.Products().GetByID(ctx, plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, p1.Stock)
	p2, err := store.Products().GetByID(ctx, scarce.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p2.Stock)

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreateOrder_CallerPriceOverridesProductPrice(t *testing.T) {
	store, _ := setupStore(t)
	svc := services.NewOrderService(store, nil, 0, testLogger(), nil)
	ctx := context.Background()

	a := seedProduct(t, store, "A", 10, "100.00", true)
	b := seedProduct(t, store, "B", 10, "20.00", true)
	customer := seedCustomer(t, store, "", "price@example.com")
	discounted := dec("80.00")

	order, err := svc.CreateOrder(ctx, services.CreateOrderInput{
		Customer: services.ExistingCustomer{ID: customer.ID},
		Contents: services.ItemizedContents{Items: []services.ItemInput{
			{ProductID: a.ID, Quantity: 2, UnitPrice: &discounted},
			{ProductID: b.ID, Quantity: 3},
		}},
		Status: models.OrderStatusPreparing,
	})
	require.NoError(t, err)

	// 2 x 80.00 + 3 x 20.00
	assert.True(t, dec("220.00").Equal(order.TotalAmount), "total %s", order.TotalAmount)
	assert.Equal(t, models.OrderStatusPreparing, order.Status)

	sum := decimal.Zero
	for _, item := range order.Items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	assert.True(t, sum.Equal(order.TotalAmount))
}

func TestCreateOrder_UntrackedProductIgnoresStock(t *testing.T) {
	store, _ := setupStore(t)
	svc := services.NewOrderService(store, nil, 0, testLogger(), nil)
	ctx := context.Background()

	service := seedProduct(t, store, "INSTALL", 0, "40.00", false)
	customer := seedCustomer(t, store, "", "untracked@example.com")

	order, err := svc.CreateOrder(ctx, services.CreateOrderInput{
		Customer: services.ExistingCustomer{ID: customer.ID},
		Contents: services.ItemizedContents{Items: []services.ItemInput{{ProductID: service.ID, Quantity: 3}}},
	})
	require.NoError(t, err)
	assert.True(t, dec("120.00").Equal(order.TotalAmount))

	reloaded, err := store.Products().GetByID(ctx, service.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)
}

func TestCreateOrder_CustomerErrors(t *testing.T) {
	store, db := setupStore(t)
	svc := services.NewOrderService(store, nil, 0, testLogger(), nil)
	ctx := context.Background()
	existing := seedCustomer(t, store, "5321234567", "taken@example.com")

	_, err := svc.CreateOrder(ctx, services.CreateOrderInput{})
	assert.True(t, apperror.IsKind(err, apperror.KindCustomerRequired))

	_, err = svc.CreateOrder(ctx, services.CreateOrderInput{Customer: services.ExistingCustomer{ID: "missing"}})
	assert.True(t, apperror.IsKind(err, apperror.KindCustomerNotFound))

	_, err = svc.CreateOrder(ctx, services.CreateOrderInput{
		Customer: services.NewCustomer{Customer: models.Customer{FirstName: "Dup", Email: strPtr("taken@example.com")}},
		Contents: services.FlatTotal{Amount: dec("10")},
	})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindCustomerAlreadyExists, appErr.Kind)
	assert.Equal(t, existing.ID, appErr.Details["existingCustomerId"])

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	store, _ := setupStore(t)
	svc := services.NewOrderService(store, nil, 0, testLogger(), nil)
	customer := seedCustomer(t, store, "", "nf@example.com")

	_, err := svc.CreateOrder(context.Background(), services.CreateOrderInput{
		Customer: services.ExistingCustomer{ID: customer.ID},
		Contents: services.ItemizedContents{Items: []services.ItemInput{{ProductID: "missing", Quantity: 1}}},
	})
	assert.True(t, apperror.IsKind(err, apperror.KindProductNotFound))
}

func TestCreateOrder_FlatTotalAndEmptyOrder(t *testing.T) {
	store, _ := setupStore(t)
	svc := services.NewOrderService(store, nil, 0, testLogger(), nil)
	ctx := context.Background()
	customer := seedCustomer(t, store, "", "flat@example.com")

	flat, err := svc.CreateOrder(ctx, services.CreateOrderInput{
		Customer: services.ExistingCustomer{ID: customer.ID},
		Contents: services.FlatTotal{Amount: dec("99.99")},
	})
	require.NoError(t, err)
	assert.True(t, dec("99.99").Equal(flat.TotalAmount))
	assert.Empty(t, flat.Items)

	empty, err := svc.CreateOrder(ctx, services.CreateOrderInput{
		Customer: services.ExistingCustomer{ID: customer.ID},
	})
	require.NoError(t, err)
	assert.True(t, empty.TotalAmount.IsZero())
	assert.NotNil(t, empty.Items)
}

func TestCreateOrder_InputValidation(t *testing.T) {
	svc, _ := newOrderService(t)
	ctx := context.Background()
	customer := services.ExistingCustomer{ID: "any"}

	_, err := svc.CreateOrder(ctx, services.CreateOrderInput{Customer: customer, Status: "LOST"})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidStatus))

	_, err = svc.CreateOrder(ctx, services.CreateOrderInput{
		Customer: customer,
		Contents: services.ItemizedContents{Items: []services.ItemInput{{ProductID: "p", Quantity: 0}}},
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.CreateOrder(ctx, services.CreateOrderInput{Customer: customer, Contents: services.FlatTotal{Amount: dec("-1")}})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestOrderQueries_StatusFilter(t *testing.T) {
	store, _ := setupStore(t)
	publisher := new(MockPublisher)
	svc := services.NewOrderService(store, publisher, 0, testLogger(), nil)
	ctx := context.Background()
	customer := seedCustomer(t, store, "", "filter@example.com")
	publisher.On("Publish", services.EventOrderCreated, mock.Anything).Return(nil)

	shipped, err := svc.CreateOrder(ctx, services.CreateOrderInput{Customer: services.ExistingCustomer{ID: customer.ID}})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, services.CreateOrderInput{Customer: services.ExistingCustomer{ID: customer.ID}})
	require.NoError(t, err)

	var event services.OrderEvent
	publisher.On("Publish", services.EventOrderStatusChanged, mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, json.Unmarshal(args.Get(1).([]byte), &event))
		}).
		Return(nil).Once()

	status := string(models.OrderStatusShipped)
	updated, err := svc.UpdateOrder(ctx, shipped.ID, services.OrderUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)
	assert.Equal(t, models.OrderStatusPending, event.PreviousStatus)
	assert.Equal(t, models.OrderStatusShipped, event.Status)

	list, err := svc.ListOrders(ctx, services.OrderQuery{Status: "SHIPPED"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, shipped.ID, list[0].ID)
	require.NotNil(t, list[0].Customer)

	pending, err := svc.ListOrders(ctx, services.OrderQuery{Status: "PENDING"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEqual(t, shipped.ID, pending[0].ID)

	byCustomer, err := svc.ListOrders(ctx, services.OrderQuery{CustomerID: customer.ID})
	require.NoError(t, err)
	assert.Len(t, byCustomer, 2)

	_, err = svc.ListOrders(ctx, services.OrderQuery{Status: "shipped-ish"})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidStatus))

	publisher.AssertExpectations(t)
}

func TestUpdateOrder_Errors(t *testing.T) {
	svc, _ := newOrderService(t)
	ctx := context.Background()

	bad := "LOST"
	_, err := svc.UpdateOrder(ctx, "missing", services.OrderUpdate{Status: &bad})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidStatus))

	good := "DELIVERED"
	_, err = svc.UpdateOrder(ctx, "missing", services.OrderUpdate{Status: &good})
	assert.True(t, apperror.IsKind(err, apperror.KindOrderNotFound))

	_, err = svc.UpdateOrder(ctx, "missing", services.OrderUpdate{})
	assert.True(t, apperror.IsKind(err, apperror.KindOrderNotFound))
}

func TestDeleteOrder_RemovesItems(t *testing.T) {
	store, _ := setupStore(t)
	svc := services.NewOrderService(store, nil, 0, testLogger(), nil)
	ctx := context.Background()
	product := seedProduct(t, store, "DEL", 10, "3.00", true)
	customer := seedCustomer(t, store, "", "del@example.com")

	order, err := svc.CreateOrder(ctx, services.CreateOrderInput{
		Customer: services.ExistingCustomer{ID: customer.ID},
		Contents: services.ItemizedContents{Items: []services.ItemInput{{ProductID: product.ID, Quantity: 2}}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))
	count, err := store.Orders().CountItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	err = svc.DeleteOrder(ctx, order.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindOrderNotFound))
}

func TestCreateOrder_PublishFailureDoesNotFailOrder(t *testing.T) {
	svc, publisher := newOrderService(t)
	publisher.On("Publish", services.EventOrderCreated, mock.Anything).Return(errors.New("broker down")).Once()

	order, err := svc.CreateOrder(context.Background(), services.CreateOrderInput{
		Customer: services.NewCustomer{Customer: models.Customer{FirstName: "Broker"}},
		Contents: services.FlatTotal{Amount: dec("1.00")},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	publisher.AssertExpectations(t)
}

func TestCreateOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	store, db := setupStore(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// SQLite allows one writer; serialize transactions at the pool.
	sqlDB.SetMaxOpenConns(1)

	svc := services.NewOrderService(store, nil, 0, testLogger(), nil)
	ctx := context.Background()
	product := seedProduct(t, store, "LAST-ONE", 1, "10.00", true)
	customer := seedCustomer(t, store, "", "race@example.com")

	const buyers = 8
	errs := make([]error, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateOrder(ctx, services.CreateOrderInput{
				Customer: services.ExistingCustomer{ID: customer.ID},
				Contents: services.ItemizedContents{Items: []services.ItemInput{{ProductID: product.ID, Quantity: 1}}},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	reloaded, err := store.Products().GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)
}

func TestCreateOrder_ItemsKeepSubmittedOrder(t *testing.T) {
	store, _ := setupStore(t)
	svc := services.NewOrderService(store, nil, 0, testLogger(), nil)
	ctx := context.Background()
	customer := seedCustomer(t, store, "", "lines@example.com")

	skus := []string{"LINE-C", "LINE-A", "LINE-B", "LINE-E", "LINE-D"}
	items := make([]services.ItemInput, len(skus))
	for i, sku := range skus {
		items[i] = services.ItemInput{ProductID: seedProduct(t, store, sku, 10, "1.00", true).ID, Quantity: 1}
	}

	order, err := svc.CreateOrder(ctx, services.CreateOrderInput{
		Customer: services.ExistingCustomer{ID: customer.ID},
		Contents: services.ItemizedContents{Items: items},
	})
	require.NoError(t, err)

	stored, err := svc.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, len(skus))
	for i, item := range stored.Items {
		assert.Equal(t, i+1, item.LineNo)
		assert.Equal(t, items[i].ProductID, item.ProductID)
	}
}
