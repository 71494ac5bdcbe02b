package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"minicrm/internal/models"
	"minicrm/internal/services"
)

// CustomerRequest is the body of POST /customers and of an inline customer
// in an order. A missing isActive is stored as true.
type CustomerRequest struct {
	FirstName string  `json:"firstName" validate:"required"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Address   *string `json:"address"`
	IsActive  *bool   `json:"isActive"`
}

func (r CustomerRequest) toModel() models.Customer {
	return models.Customer{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Email:     r.Email,
		Address:   r.Address,
		IsActive:  r.IsActive,
	}
}

// CustomerUpdateRequest is the body of PUT /customers/:id.
type CustomerUpdateRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Address   *string `json:"address"`
	IsActive  *bool   `json:"isActive"`
}

// CustomerHandler handles HTTP requests for customers.
type CustomerHandler struct {
	service *services.CustomerService
	log     *logrus.Entry
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(service *services.CustomerService, log *logrus.Entry) *CustomerHandler {
	return &CustomerHandler{
		service: service,
		log:     log.WithField("component", "customer_handler"),
	}
}

// RegisterRoutes registers the customer routes with the Fiber app.
func (h *CustomerHandler) RegisterRoutes(router fiber.Router) {
	customerRoutes := router.Group("/customers")
	customerRoutes.Get("/", h.HandleGetCustomers)
	customerRoutes.Get("/:id", h.HandleGetCustomerByID)
	customerRoutes.Post("/", h.HandleCreateCustomer)
	customerRoutes.Put("/:id", h.HandleUpdateCustomer)
	customerRoutes.Delete("/:id", h.HandleDeleteCustomer)
}

// HandleGetCustomers lists customers, newest first.
func (h *CustomerHandler) HandleGetCustomers(c *fiber.Ctx) error {
	customers, err := h.service.ListCustomers(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(customers)
}

// HandleGetCustomerByID retrieves a single customer by its ID.
func (h *CustomerHandler) HandleGetCustomerByID(c *fiber.Ctx) error {
	customer, err := h.service.GetCustomerByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(customer)
}

// HandleCreateCustomer creates a new customer.
func (h *CustomerHandler) HandleCreateCustomer(c *fiber.Ctx) error {
	var req CustomerRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	customer := req.toModel()
	if err := h.service.CreateCustomer(c.UserContext(), &customer); err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

// HandleUpdateCustomer applies a partial update to a customer.
func (h *CustomerHandler) HandleUpdateCustomer(c *fiber.Ctx) error {
	var req CustomerUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}

	customer, err := h.service.UpdateCustomer(c.UserContext(), c.Params("id"), services.CustomerPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		IsActive:  req.IsActive,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(customer)
}

// HandleDeleteCustomer deletes a customer along with their orders.
func (h *CustomerHandler) HandleDeleteCustomer(c *fiber.Ctx) error {
	if err := h.service.DeleteCustomer(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
