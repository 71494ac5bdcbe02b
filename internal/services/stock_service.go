package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"minicrm/internal/apperror"
	"minicrm/internal/metrics"
	"minicrm/internal/models"
	"minicrm/internal/repositories"
)

// StockService adjusts product stock. It works on whatever repository it is
// given, so the order workflow hands it a transaction-scoped one.
type StockService struct {
	products repositories.ProductRepository
	log      *logrus.Entry
	metrics  *metrics.Metrics
}

// NewStockService creates a new StockService. m may be nil.
func NewStockService(products repositories.ProductRepository, log *logrus.Entry, m *metrics.Metrics) *StockService {
	return &StockService{
		products: products,
		log:      log.WithField("component", "stock_service"),
		metrics:  m,
	}
}

// DecreaseStock takes quantity units of the product out of stock and returns
// the product as it is after the change. Products that do not track stock
// are returned unchanged. The decrement is a single guarded UPDATE, so two
// concurrent callers can never drive stock below zero.
func (s *StockService) DecreaseStock(ctx context.Context, productID string, quantity int) (*models.Product, error) {
	if quantity <= 0 {
		return nil, apperror.Validation("quantity must be a positive integer").
			WithDetail("productId", productID).
			WithDetail("quantity", quantity)
	}

	product, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, productNotFound(productID)
	}
	if err != nil {
		return nil, wrapUnexpected(err, "failed to load product")
	}

	if !product.IsStockTracking {
		return product, nil
	}

	ok, err := s.products.DecrementStock(ctx, productID, quantity)
	if err != nil {
		return nil, wrapUnexpected(err, "failed to decrement stock")
	}
	if !ok {
		// Re-read so the reported availability reflects concurrent decrements.
		available := product.Stock
		if current, err := s.products.GetByID(ctx, productID); err == nil {
			available = current.Stock
		}
		return nil, apperror.Newf(apperror.KindInsufficientStock,
			"insufficient stock for product %s (requested: %d, available: %d)", product.Name, quantity, available).
			WithDetail("productId", productID).
			WithDetail("requested", quantity).
			WithDetail("available", available)
	}

	updated, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, wrapUnexpected(err, "failed to reload product")
	}
	s.metrics.RecordStockDecrement()
	s.log.WithFields(logrus.Fields{
		"product_id": productID,
		"quantity":   quantity,
		"stock":      updated.Stock,
	}).Debug("stock decreased")
	return updated, nil
}
