package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"minicrm/internal/apperror"
	"minicrm/internal/metrics"
	"minicrm/internal/models"
	"minicrm/internal/repositories"
)

// OrderQuery filters ListOrders. Empty fields are ignored.
type OrderQuery struct {
	Status     string
	CustomerID string
}

// OrderUpdate carries the mutable fields of an order.
type OrderUpdate struct {
	Status *string
}

// OrderService handles business logic related to orders.
type OrderService struct {
	store     repositories.Store
	publisher EventPublisher
	listLimit int
	log       *logrus.Entry
	metrics   *metrics.Metrics
}

// NewOrderService creates a new OrderService. publisher and m may be nil.
func NewOrderService(store repositories.Store, publisher EventPublisher, listLimit int, log *logrus.Entry, m *metrics.Metrics) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		listLimit: listLimit,
		log:       log.WithField("component", "order_service"),
		metrics:   m,
	}
}

// CreateOrder resolves the customer, takes the items out of stock and stores
// the order with its items, all in one transaction. Any failure leaves no
// trace: no customer, order, item or stock change survives.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := in.Validate(); err != nil {
		s.recordFailure(err)
		return nil, err
	}

	var created *models.Order
	err := s.store.Do(ctx, func(repos repositories.Repositories) error {
		customer, err := s.resolveCustomer(ctx, repos.Customers(), in.Customer)
		if err != nil {
			return err
		}

		order := &models.Order{
			ID:          uuid.New().String(),
			CustomerID:  customer.ID,
			Status:      in.status(),
			TotalAmount: decimal.Zero,
		}
		items := []models.OrderItem{}

		switch contents := in.Contents.(type) {
		case ItemizedContents:
			stock := NewStockService(repos.Products(), s.log, s.metrics)
			for _, req := range contents.Items {
				product, err := stock.DecreaseStock(ctx, req.ProductID, req.Quantity)
				if err != nil {
					return err
				}
				price := product.Price
				if req.UnitPrice != nil {
					price = *req.UnitPrice
				}
				order.TotalAmount = order.TotalAmount.Add(price.Mul(decimal.NewFromInt(int64(req.Quantity))))
				items = append(items, models.OrderItem{
					ID:        uuid.New().String(),
					OrderID:   order.ID,
					LineNo:    len(items) + 1,
					ProductID: product.ID,
					Product:   product,
					Quantity:  req.Quantity,
					UnitPrice: price,
				})
			}
		case FlatTotal:
			order.TotalAmount = contents.Amount
		}

		if err := repos.Orders().Create(ctx, order); err != nil {
			return wrapUnexpected(err, "failed to create order")
		}
		if err := repos.Orders().CreateItems(ctx, items); err != nil {
			return wrapUnexpected(err, "failed to create order items")
		}

		order.Customer = customer
		order.Items = items
		created = order
		return nil
	})
	if err != nil {
		err = wrapUnexpected(err, "failed to create order")
		s.recordFailure(err)
		return nil, err
	}

	s.metrics.RecordOrderCreated()
	s.log.WithFields(logrus.Fields{
		"order_id":     created.ID,
		"customer_id":  created.CustomerID,
		"items":        len(created.Items),
		"total_amount": created.TotalAmount.StringFixed(2),
	}).Info("order created")
	publishEvent(s.publisher, s.log, EventOrderCreated, newOrderEvent(created))
	return created, nil
}

func (s *OrderService) resolveCustomer(ctx context.Context, repo repositories.CustomerRepository, source CustomerSource) (*models.Customer, error) {
	switch src := source.(type) {
	case ExistingCustomer:
		customer, err := repo.GetByID(ctx, src.ID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.Newf(apperror.KindCustomerNotFound, "customer %s not found", src.ID).
				WithDetail("customerId", src.ID)
		}
		if err != nil {
			return nil, wrapUnexpected(err, "failed to load customer")
		}
		return customer, nil
	case NewCustomer:
		customer := src.Customer
		if err := createCustomer(ctx, repo, &customer); err != nil {
			return nil, err
		}
		return &customer, nil
	default:
		return nil, apperror.New(apperror.KindCustomerRequired, "customerId or customer is required")
	}
}

// ListOrders returns orders newest first, each with its customer and items.
func (s *OrderService) ListOrders(ctx context.Context, query OrderQuery) ([]models.Order, error) {
	status := models.OrderStatus(query.Status)
	if status != "" && !status.Valid() {
		return nil, invalidStatus(query.Status)
	}
	orders, err := s.store.Orders().GetAll(ctx, repositories.OrderFilter{
		Status:     status,
		CustomerID: query.CustomerID,
		Limit:      s.listLimit,
	})
	if err != nil {
		return nil, wrapUnexpected(err, "failed to list orders")
	}
	return orders, nil
}

// GetOrderByID retrieves a single order with its customer and items.
func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.store.Orders().GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, orderNotFound(id)
	}
	if err != nil {
		return nil, wrapUnexpected(err, "failed to load order")
	}
	return order, nil
}

// UpdateOrder changes the order's status when one is given. Other fields of
// an order are immutable.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, update OrderUpdate) (*models.Order, error) {
	if update.Status == nil {
		return s.GetOrderByID(ctx, id)
	}
	status := models.OrderStatus(*update.Status)
	if !status.Valid() {
		return nil, invalidStatus(*update.Status)
	}

	var (
		updated  *models.Order
		previous models.OrderStatus
	)
	err := s.store.Do(ctx, func(repos repositories.Repositories) error {
		current, err := repos.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		previous = current.Status
		if previous != status {
			if err := repos.Orders().UpdateStatus(ctx, id, status); err != nil {
				return err
			}
		}
		updated, err = repos.Orders().GetByID(ctx, id)
		return err
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, orderNotFound(id)
	}
	if err != nil {
		return nil, wrapUnexpected(err, "failed to update order")
	}

	if previous != status {
		s.log.WithFields(logrus.Fields{
			"order_id": id,
			"from":     previous,
			"to":       status,
		}).Info("order status changed")
		event := newOrderEvent(updated)
		event.PreviousStatus = previous
		publishEvent(s.publisher, s.log, EventOrderStatusChanged, event)
	}
	return updated, nil
}

// DeleteOrder removes the order and its items.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	err := s.store.Do(ctx, func(repos repositories.Repositories) error {
		return repos.Orders().Delete(ctx, id)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return orderNotFound(id)
	}
	if err != nil {
		return wrapUnexpected(err, "failed to delete order")
	}
	s.log.WithField("order_id", id).Info("order deleted")
	return nil
}

func (s *OrderService) recordFailure(err error) {
	kind := apperror.KindOf(err)
	s.metrics.RecordOrderFailed(string(kind))
	entry := s.log.WithField("kind", kind)
	if apperror.IsExpected(err) {
		entry.WithError(err).Info("order rejected")
		return
	}
	entry.WithError(err).Error("order creation failed")
}

func orderNotFound(id string) *apperror.Error {
	return apperror.Newf(apperror.KindOrderNotFound, "order %s not found", id).WithDetail("orderId", id)
}
