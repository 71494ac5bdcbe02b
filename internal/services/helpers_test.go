package services_test

import (
	"context"
	"io"
	"testing"

	"minicrm/internal/database"
	"minicrm/internal/models"
	"minicrm/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func setupStore(t *testing.T) (*repositories.GORMStore, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(database.InMemoryDSN(uuid.NewString())), database.GormConfig())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return repositories.NewGORMStore(db), db
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedProduct(t *testing.T, store *repositories.GORMStore, sku string, stock int, price string, tracking bool) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:            "Product " + sku,
		SKU:             sku,
		Stock:           stock,
		Price:           dec(price),
		IsStockTracking: tracking,
	}
	require.NoError(t, store.Products().Create(context.Background(), p))
	return p
}

func seedCustomer(t *testing.T, store *repositories.GORMStore, phone, email string) *models.Customer {
	t.Helper()
	c := &models.Customer{FirstName: "Mehmet"}
	if phone != "" {
		c.Phone = strPtr(phone)
	}
	if email != "" {
		c.Email = strPtr(email)
	}
	require.NoError(t, store.Customers().Create(context.Background(), c))
	return c
}
