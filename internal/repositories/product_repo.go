package repositories

import (
	"context"

	"minicrm/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context, limit int) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	// DecrementStock subtracts quantity from the product's stock only when
	// enough stock is left. It reports false when the guard did not match.
	DecrementStock(ctx context.Context, id string, quantity int) (bool, error)
	// IsReferenced reports whether any order item points at the product.
	IsReferenced(ctx context.Context, id string) (bool, error)
}
