package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Product represents a product in the store.
type Product struct {
	ID    string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name  string          `json:"name" gorm:"type:varchar(255);not null;index:idx_products_name"`
	SKU   string          `json:"sku" gorm:"type:varchar(100);not null;uniqueIndex:idx_products_sku"`
	Stock int             `json:"stock" gorm:"not null"`
	Price decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	// IsStockTracking false means the product never runs out (services, digital goods).
	IsStockTracking bool `json:"isStockTracking" gorm:"not null"`
	// PriceMetadata holds auxiliary price variants, e.g. {"wholesale": 80.5, "currency": "USD"}.
	PriceMetadata datatypes.JSONMap `json:"priceMetadata"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
