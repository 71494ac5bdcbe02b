package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"minicrm/internal/services"
)

// ProductRequest is the body of POST /products.
type ProductRequest struct {
	Name            string           `json:"name" validate:"required"`
	SKU             string           `json:"sku" validate:"required"`
	Stock           int              `json:"stock" validate:"gte=0"`
	Price           *decimal.Decimal `json:"price" validate:"required"`
	IsStockTracking *bool            `json:"isStockTracking"`
	PriceMetadata   map[string]any   `json:"priceMetadata"`
}

// ProductUpdateRequest is the body of PUT /products/:id.
type ProductUpdateRequest struct {
	Name            *string          `json:"name"`
	SKU             *string          `json:"sku"`
	Stock           *int             `json:"stock" validate:"omitempty,gte=0"`
	Price           *decimal.Decimal `json:"price"`
	IsStockTracking *bool            `json:"isStockTracking"`
	PriceMetadata   map[string]any   `json:"priceMetadata"`
}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	log     *logrus.Entry
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log *logrus.Entry) *ProductHandler {
	return &ProductHandler{
		service: service,
		log:     log.WithField("component", "product_handler"),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	product, err := h.service.CreateProduct(c.UserContext(), services.ProductInput{
		Name:            req.Name,
		SKU:             req.SKU,
		Stock:           req.Stock,
		Price:           *req.Price,
		IsStockTracking: req.IsStockTracking,
		PriceMetadata:   req.PriceMetadata,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update to a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req ProductUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), services.ProductPatch{
		Name:            req.Name,
		SKU:             req.SKU,
		Stock:           req.Stock,
		Price:           req.Price,
		IsStockTracking: req.IsStockTracking,
		PriceMetadata:   req.PriceMetadata,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
