package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"minicrm/internal/apperror"
	"minicrm/internal/models"
	"minicrm/internal/services"
)

// OrderItemRequest is one line of CreateOrderRequest.
type OrderItemRequest struct {
	ProductID string           `json:"productId" validate:"required"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
}

// CreateOrderRequest is the body of POST /orders. Exactly one of CustomerID
// and Customer is expected; Items take precedence over TotalAmount.
type CreateOrderRequest struct {
	CustomerID  *string            `json:"customerId"`
	Customer    *CustomerRequest   `json:"customer"`
	Items       []OrderItemRequest `json:"items" validate:"dive"`
	TotalAmount *decimal.Decimal   `json:"totalAmount"`
	Status      *string            `json:"status"`
}

// toInput turns the request into the workflow's tagged input.
func (r CreateOrderRequest) toInput() (services.CreateOrderInput, error) {
	var in services.CreateOrderInput

	hasID := r.CustomerID != nil && *r.CustomerID != ""
	switch {
	case hasID && r.Customer != nil:
		return in, apperror.Validation("customerId and customer are mutually exclusive")
	case hasID:
		in.Customer = services.ExistingCustomer{ID: *r.CustomerID}
	case r.Customer != nil:
		in.Customer = services.NewCustomer{Customer: r.Customer.toModel()}
	}

	switch {
	case len(r.Items) > 0:
		items := make([]services.ItemInput, len(r.Items))
		for i, item := range r.Items {
			items[i] = services.ItemInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			}
		}
		in.Contents = services.ItemizedContents{Items: items}
	case r.TotalAmount != nil:
		in.Contents = services.FlatTotal{Amount: *r.TotalAmount}
	}

	if r.Status != nil {
		in.Status = models.OrderStatus(*r.Status)
	}
	return in, nil
}

// UpdateOrderRequest is the body of PUT /orders/:id.
type UpdateOrderRequest struct {
	Status *string `json:"status"`
}

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
	log     *logrus.Entry
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, log *logrus.Entry) *OrderHandler {
	return &OrderHandler{
		service: service,
		log:     log.WithField("component", "order_handler"),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Put("/:id", h.HandleUpdateOrder)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrder)
	orderRoutes.Delete("/:id", h.HandleDeleteOrder)
}

// HandleGetOrders lists orders, optionally filtered by status and customerId.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.UserContext(), services.OrderQuery{
		Status:     c.Query("status"),
		CustomerID: c.Query("customerId"),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(order)
}

// HandleCreateOrder runs the order creation workflow.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	in, err := req.toInput()
	if err != nil {
		return writeError(c, h.log, err)
	}

	order, err := h.service.CreateOrder(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleUpdateOrder changes the status of an existing order.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	var req UpdateOrderRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	order, err := h.service.UpdateOrder(c.UserContext(), c.Params("id"), services.OrderUpdate{Status: req.Status})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(order)
}

// HandleDeleteOrder deletes an order and its items.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	if err := h.service.DeleteOrder(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
