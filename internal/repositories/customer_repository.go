package repositories

import (
	"context"

	"minicrm/internal/models"
)

// CustomerRepository defines the interface for customer data access.
type CustomerRepository interface {
	GetAll(ctx context.Context, limit int) ([]models.Customer, error)
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	// FindByPhoneOrEmail returns the first customer whose phone OR email
	// matches. Nil arguments are ignored; excludeID skips one customer.
	FindByPhoneOrEmail(ctx context.Context, phone, email *string, excludeID string) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
	// Delete removes the customer together with its orders and their items.
	Delete(ctx context.Context, id string) error
}
