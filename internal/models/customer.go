package models

import "time"

// Customer represents a buyer. Phone and email are nullable so that the
// unique indexes only apply to customers that actually have them.
type Customer struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FirstName string    `json:"firstName" gorm:"type:varchar(255);not null"`
	LastName  *string   `json:"lastName" gorm:"type:varchar(255)"`
	Phone     *string   `json:"phone" gorm:"type:varchar(20);uniqueIndex:idx_customers_phone"`
	Email     *string   `json:"email" gorm:"type:varchar(255);uniqueIndex:idx_customers_email"`
	Address   *string   `json:"address" gorm:"type:text"`
	IsActive  *bool     `json:"isActive" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
