package repositories

import (
	"context"

	"minicrm/internal/models"
)

// OrderFilter narrows GetAll. Zero values mean "no filter"; Limit 0 is unlimited.
type OrderFilter struct {
	Status     models.OrderStatus
	CustomerID string
	Limit      int
}

// OrderRepository defines the interface for order data access. Reads
// eagerly load the customer, the items and each item's product.
type OrderRepository interface {
	GetAll(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// Create inserts the order row only; items are stored with CreateItems.
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	// Delete removes the order and its items.
	Delete(ctx context.Context, id string) error
	CountItems(ctx context.Context, orderID string) (int64, error)
}
