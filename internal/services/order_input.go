package services

import (
	"github.com/shopspring/decimal"

	"minicrm/internal/apperror"
	"minicrm/internal/models"
)

// CustomerSource says who an order is for: either ExistingCustomer or
// NewCustomer.
type CustomerSource interface {
	customerSource()
}

// ExistingCustomer references a stored customer by id.
type ExistingCustomer struct {
	ID string
}

// NewCustomer is created in the same transaction as the order.
type NewCustomer struct {
	Customer models.Customer
}

func (ExistingCustomer) customerSource() {}
func (NewCustomer) customerSource()      {}

// OrderContents says what is being bought: either ItemizedContents or
// FlatTotal. A nil OrderContents is an empty order with a zero total.
type OrderContents interface {
	orderContents()
}

// ItemInput is one requested line. UnitPrice overrides the product's
// current price when set.
type ItemInput struct {
	ProductID string
	Quantity  int
	UnitPrice *decimal.Decimal
}

// ItemizedContents orders concrete products; the total is computed.
type ItemizedContents struct {
	Items []ItemInput
}

// FlatTotal records an order amount without any items.
type FlatTotal struct {
	Amount decimal.Decimal
}

func (ItemizedContents) orderContents() {}
func (FlatTotal) orderContents()        {}

// CreateOrderInput is the validated shape of an order creation request.
// An empty Status means PENDING.
type CreateOrderInput struct {
	Customer CustomerSource
	Contents OrderContents
	Status   models.OrderStatus
}

// Validate checks the input before any database work starts.
func (in CreateOrderInput) Validate() error {
	switch c := in.Customer.(type) {
	case ExistingCustomer:
		if c.ID == "" {
			return apperror.New(apperror.KindCustomerRequired, "customerId or customer is required")
		}
	case NewCustomer:
	default:
		return apperror.New(apperror.KindCustomerRequired, "customerId or customer is required")
	}

	switch c := in.Contents.(type) {
	case ItemizedContents:
		for i, item := range c.Items {
			if item.ProductID == "" {
				return apperror.Validation("productId is required").WithDetail("item", i)
			}
			if item.Quantity <= 0 {
				return apperror.Validation("quantity must be a positive integer").
					WithDetail("item", i).
					WithDetail("productId", item.ProductID)
			}
			if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
				return apperror.Validation("unitPrice must not be negative").
					WithDetail("item", i).
					WithDetail("productId", item.ProductID)
			}
		}
	case FlatTotal:
		if c.Amount.IsNegative() {
			return apperror.Validation("totalAmount must not be negative")
		}
	}

	if in.Status != "" && !in.Status.Valid() {
		return invalidStatus(string(in.Status))
	}
	return nil
}

func (in CreateOrderInput) status() models.OrderStatus {
	if in.Status == "" {
		return models.OrderStatusPending
	}
	return in.Status
}

func invalidStatus(status string) *apperror.Error {
	return apperror.Newf(apperror.KindInvalidStatus, "invalid order status %q", status).
		WithDetail("status", status).
		WithDetail("allowed", models.OrderStatuses)
}
