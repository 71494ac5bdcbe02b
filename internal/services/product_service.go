package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"minicrm/internal/apperror"
	"minicrm/internal/models"
	"minicrm/internal/repositories"
)

// ProductInput is the data needed to create a product. IsStockTracking
// defaults to true when nil.
type ProductInput struct {
	Name            string
	SKU             string
	Stock           int
	Price           decimal.Decimal
	IsStockTracking *bool
	PriceMetadata   map[string]any
}

// ProductPatch carries the fields of a partial product update.
type ProductPatch struct {
	Name            *string
	SKU             *string
	Stock           *int
	Price           *decimal.Decimal
	IsStockTracking *bool
	PriceMetadata   map[string]any
}

// ProductService handles business logic related to products.
type ProductService struct {
	store     repositories.Store
	listLimit int
	log       *logrus.Entry
}

// NewProductService creates a new ProductService.
func NewProductService(store repositories.Store, listLimit int, log *logrus.Entry) *ProductService {
	return &ProductService{
		store:     store,
		listLimit: listLimit,
		log:       log.WithField("component", "product_service"),
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.Products().GetAll(ctx, s.listLimit)
	if err != nil {
		return nil, wrapUnexpected(err, "failed to list products")
	}
	return products, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.store.Products().GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, productNotFound(id)
	}
	if err != nil {
		return nil, wrapUnexpected(err, "failed to load product")
	}
	return product, nil
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	tracking := true
	if in.IsStockTracking != nil {
		tracking = *in.IsStockTracking
	}
	metadata := datatypes.JSONMap{}
	for k, v := range in.PriceMetadata {
		metadata[k] = v
	}

	product := &models.Product{
		ID:              uuid.New().String(),
		Name:            strings.TrimSpace(in.Name),
		SKU:             strings.TrimSpace(in.SKU),
		Stock:           in.Stock,
		Price:           in.Price,
		IsStockTracking: tracking,
		PriceMetadata:   metadata,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, translateProductWriteError(err, product.SKU)
	}
	s.log.WithFields(logrus.Fields{"product_id": product.ID, "sku": product.SKU}).Info("product created")
	return product, nil
}

// UpdateProduct applies patch to an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*models.Product, error) {
	var updated *models.Product
	err := s.store.Do(ctx, func(repos repositories.Repositories) error {
		product, err := repos.Products().GetByID(ctx, id)
		if errors.Is(err, repositories.ErrNotFound) {
			return productNotFound(id)
		}
		if err != nil {
			return err
		}

		if patch.Name != nil {
			product.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.SKU != nil {
			product.SKU = strings.TrimSpace(*patch.SKU)
		}
		if patch.Stock != nil {
			product.Stock = *patch.Stock
		}
		if patch.Price != nil {
			product.Price = *patch.Price
		}
		if patch.IsStockTracking != nil {
			product.IsStockTracking = *patch.IsStockTracking
		}
		if patch.PriceMetadata != nil {
			product.PriceMetadata = datatypes.JSONMap(patch.PriceMetadata)
		}
		if err := validateProduct(product); err != nil {
			return err
		}
		if err := repos.Products().Update(ctx, product); err != nil {
			return translateProductWriteError(err, product.SKU)
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, wrapUnexpected(err, "failed to update product")
	}
	return updated, nil
}

// DeleteProduct deletes a product by its ID. Products still referenced by
// order items cannot be deleted.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	err := s.store.Do(ctx, func(repos repositories.Repositories) error {
		referenced, err := repos.Products().IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return productInUse(id)
		}
		return repos.Products().Delete(ctx, id)
	})
	switch {
	case err == nil:
		s.log.WithField("product_id", id).Info("product deleted")
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return productNotFound(id)
	case errors.Is(err, repositories.ErrReferenced):
		return productInUse(id)
	default:
		return wrapUnexpected(err, "failed to delete product")
	}
}

func validateProduct(p *models.Product) error {
	switch {
	case p.Name == "":
		return apperror.Validation("name is required").WithDetail("field", "name")
	case p.SKU == "":
		return apperror.Validation("sku is required").WithDetail("field", "sku")
	case p.Price.IsNegative():
		return apperror.Validation("price must not be negative").WithDetail("field", "price")
	case p.Stock < 0:
		return apperror.Validation("stock must not be negative").WithDetail("field", "stock")
	}
	return nil
}

func translateProductWriteError(err error, sku string) error {
	if errors.Is(err, repositories.ErrDuplicate) {
		return apperror.Wrap(apperror.KindProductAlreadyExists, err, "a product with this sku already exists").
			WithDetail("sku", sku)
	}
	return wrapUnexpected(err, "failed to save product")
}

func productNotFound(id string) *apperror.Error {
	return apperror.Newf(apperror.KindProductNotFound, "product %s not found", id).WithDetail("productId", id)
}

func productInUse(id string) *apperror.Error {
	return apperror.Newf(apperror.KindProductInUse, "product %s is referenced by existing orders", id).
		WithDetail("productId", id)
}
