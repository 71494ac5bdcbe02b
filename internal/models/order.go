package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderStatuses lists every valid status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is one of the enumerated statuses.
func (s OrderStatus) Valid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// OrderItem represents a single line of an order.
type OrderItem struct {
	ID        string   `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string   `json:"orderId" gorm:"type:varchar(36);not null;index"`
	// LineNo is the 1-based position of the item in the order as submitted.
	LineNo    int      `json:"lineNo" gorm:"not null;default:0"`
	ProductID string   `json:"productId" gorm:"type:varchar(36);not null;index"`
	Product   *Product `json:"product,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Quantity  int      `json:"quantity" gorm:"not null"`
	// UnitPrice is the price charged at order time, independent of later product changes.
	UnitPrice decimal.Decimal `json:"unitPrice" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Order represents a customer order. It owns its items.
type Order struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID  string          `json:"customerId" gorm:"type:varchar(36);not null;index:idx_orders_customer_id"`
	Customer    *Customer       `json:"customer,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Status      OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index:idx_orders_status"`
	TotalAmount decimal.Decimal `json:"totalAmount" gorm:"type:decimal(10,2);not null"`
	Items       []OrderItem     `json:"items" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
