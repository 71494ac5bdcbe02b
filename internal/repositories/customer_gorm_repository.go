package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"minicrm/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCustomerRepository is a GORM implementation of CustomerRepository.
type GORMCustomerRepository struct {
	db *gorm.DB
}

// NewGORMCustomerRepository creates a new instance of GORMCustomerRepository.
func NewGORMCustomerRepository(db *gorm.DB) *GORMCustomerRepository {
	return &GORMCustomerRepository{
		db: db,
	}
}

// GetAll retrieves customers, newest first.
func (r *GORMCustomerRepository) GetAll(ctx context.Context, limit int) ([]models.Customer, error) {
	var customers []models.Customer
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("failed to get all customers: %w", err)
	}
	return customers, nil
}

// GetByID retrieves a customer by their ID from the database.
func (r *GORMCustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get customer by ID %s: %w", id, err)
	}
	return &customer, nil
}

// FindByPhoneOrEmail returns nil, nil when nothing matches or both keys are nil.
func (r *GORMCustomerRepository) FindByPhoneOrEmail(ctx context.Context, phone, email *string, excludeID string) (*models.Customer, error) {
	var (
		conds []string
		args  []any
	)
	if phone != nil {
		conds = append(conds, "phone = ?")
		args = append(args, *phone)
	}
	if email != nil {
		conds = append(conds, "email = ?")
		args = append(args, *email)
	}
	if len(conds) == 0 {
		return nil, nil
	}

	q := r.db.WithContext(ctx).Where("("+strings.Join(conds, " OR ")+")", args...)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var customers []models.Customer
	if err := q.Limit(1).Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("failed to look up customer by phone or email: %w", err)
	}
	if len(customers) == 0 {
		return nil, nil
	}
	return &customers[0], nil
}

// Create creates a new customer in the database.
func (r *GORMCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// Update writes every column of an existing customer.
func (r *GORMCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	res := r.db.WithContext(ctx).Model(customer).Select("*").Omit("id", "created_at").Updates(customer)
	if res.Error != nil {
		return fmt.Errorf("failed to update customer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("customer with ID %s: %w", customer.ID, ErrNotFound)
	}
	return nil
}

// Delete removes the customer's order items, orders and finally the customer.
// The foreign keys cascade as well; the explicit deletes keep the behaviour
// when the database does not enforce them.
func (r *GORMCustomerRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	orderIDs := db.Model(&models.Order{}).Select("id").Where("customer_id = ?", id)
	if err := db.Where("order_id IN (?)", orderIDs).Delete(&models.OrderItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete order items of customer %s: %w", id, err)
	}
	if err := db.Where("customer_id = ?", id).Delete(&models.Order{}).Error; err != nil {
		return fmt.Errorf("failed to delete orders of customer %s: %w", id, err)
	}
	res := db.Delete(&models.Customer{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete customer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("customer with ID %s: %w", id, ErrNotFound)
	}
	return nil
}
