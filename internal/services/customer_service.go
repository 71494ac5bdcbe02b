package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"minicrm/internal/apperror"
	"minicrm/internal/models"
	"minicrm/internal/repositories"
)

// CustomerPatch carries the fields of a partial customer update. Nil fields
// are left untouched.
type CustomerPatch struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Email     *string
	Address   *string
	IsActive  *bool
}

// CustomerService handles business logic related to customers.
type CustomerService struct {
	store     repositories.Store
	listLimit int
	log       *logrus.Entry
}

// NewCustomerService creates a new CustomerService. listLimit caps the
// number of customers returned by ListCustomers; 0 means no cap.
func NewCustomerService(store repositories.Store, listLimit int, log *logrus.Entry) *CustomerService {
	return &CustomerService{
		store:     store,
		listLimit: listLimit,
		log:       log.WithField("component", "customer_service"),
	}
}

// ListCustomers returns the newest customers first.
func (s *CustomerService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	customers, err := s.store.Customers().GetAll(ctx, s.listLimit)
	if err != nil {
		return nil, wrapUnexpected(err, "failed to list customers")
	}
	return customers, nil
}

// GetCustomerByID retrieves a single customer.
func (s *CustomerService) GetCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	customer, err := s.store.Customers().GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Newf(apperror.KindCustomerNotFound, "customer %s not found", id).WithDetail("customerId", id)
	}
	if err != nil {
		return nil, wrapUnexpected(err, "failed to load customer")
	}
	return customer, nil
}

// CreateCustomer validates, normalizes and stores a new customer.
func (s *CustomerService) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if err := createCustomer(ctx, s.store.Customers(), customer); err != nil {
		return err
	}
	s.log.WithField("customer_id", customer.ID).Info("customer created")
	return nil
}

// UpdateCustomer applies patch to the customer with the given id. Phone and
// email stay unique across all other customers.
func (s *CustomerService) UpdateCustomer(ctx context.Context, id string, patch CustomerPatch) (*models.Customer, error) {
	var updated *models.Customer
	err := s.store.Do(ctx, func(repos repositories.Repositories) error {
		customer, err := repos.Customers().GetByID(ctx, id)
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.Newf(apperror.KindCustomerNotFound, "customer %s not found", id).WithDetail("customerId", id)
		}
		if err != nil {
			return err
		}

		if patch.FirstName != nil {
			customer.FirstName = *patch.FirstName
		}
		if patch.LastName != nil {
			customer.LastName = patch.LastName
		}
		if patch.Phone != nil {
			customer.Phone = patch.Phone
		}
		if patch.Email != nil {
			customer.Email = patch.Email
		}
		if patch.Address != nil {
			customer.Address = patch.Address
		}
		if patch.IsActive != nil {
			customer.IsActive = patch.IsActive
		}
		if err := prepareCustomer(customer); err != nil {
			return err
		}
		if err := ensureUniqueContact(ctx, repos.Customers(), customer, id); err != nil {
			return err
		}
		if err := repos.Customers().Update(ctx, customer); err != nil {
			return translateCustomerWriteError(err)
		}
		updated = customer
		return nil
	})
	if err != nil {
		return nil, wrapUnexpected(err, "failed to update customer")
	}
	return updated, nil
}

// DeleteCustomer removes the customer together with its orders and their
// items.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id string) error {
	err := s.store.Do(ctx, func(repos repositories.Repositories) error {
		return repos.Customers().Delete(ctx, id)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.Newf(apperror.KindCustomerNotFound, "customer %s not found", id).WithDetail("customerId", id)
	}
	if err != nil {
		return wrapUnexpected(err, "failed to delete customer")
	}
	s.log.WithField("customer_id", id).Info("customer deleted")
	return nil
}

// createCustomer is shared by the customer API and the order workflow, which
// calls it with a transaction-scoped repository.
func createCustomer(ctx context.Context, repo repositories.CustomerRepository, customer *models.Customer) error {
	if err := prepareCustomer(customer); err != nil {
		return err
	}
	if err := ensureUniqueContact(ctx, repo, customer, ""); err != nil {
		return err
	}
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	if err := repo.Create(ctx, customer); err != nil {
		return translateCustomerWriteError(err)
	}
	return nil
}

// prepareCustomer trims text fields, normalizes the phone, validates the
// email and defaults IsActive to true.
// Empty optional strings become NULL.
func prepareCustomer(customer *models.Customer) error {
	customer.FirstName = strings.TrimSpace(customer.FirstName)
	if customer.FirstName == "" {
		return apperror.Validation("firstName is required").WithDetail("field", "firstName")
	}
	if customer.IsActive == nil {
		active := true
		customer.IsActive = &active
	}
	customer.LastName = trimmedOrNil(customer.LastName)
	customer.Address = trimmedOrNil(customer.Address)

	// Numbers that cannot be normalized are dropped rather than rejected.
	if phone := trimmedOrNil(customer.Phone); phone != nil {
		customer.Phone = NormalizePhone(*phone)
	} else {
		customer.Phone = nil
	}

	customer.Email = trimmedOrNil(customer.Email)
	if customer.Email != nil && !validEmail(*customer.Email) {
		return apperror.Validation("email is not a valid address").WithDetail("field", "email")
	}
	return nil
}

func ensureUniqueContact(ctx context.Context, repo repositories.CustomerRepository, customer *models.Customer, excludeID string) error {
	if customer.Phone == nil && customer.Email == nil {
		return nil
	}
	existing, err := repo.FindByPhoneOrEmail(ctx, customer.Phone, customer.Email, excludeID)
	if err != nil {
		return err
	}
	if existing != nil {
		return customerExists(existing.ID)
	}
	return nil
}

func translateCustomerWriteError(err error) error {
	if errors.Is(err, repositories.ErrDuplicate) {
		return apperror.Wrap(apperror.KindCustomerAlreadyExists, err, "a customer with this phone or email already exists")
	}
	return err
}

func customerExists(existingID string) *apperror.Error {
	return apperror.Newf(apperror.KindCustomerAlreadyExists, "a customer with this phone or email already exists (id: %s)", existingID).
		WithDetail("existingCustomerId", existingID)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
