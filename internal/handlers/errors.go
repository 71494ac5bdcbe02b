package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"minicrm/internal/apperror"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

var validate = newValidator()

// newValidator reports field names as they appear in JSON.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindCustomerRequired, apperror.KindInvalidStatus:
		return fiber.StatusBadRequest
	case apperror.KindCustomerNotFound, apperror.KindProductNotFound, apperror.KindOrderNotFound:
		return fiber.StatusNotFound
	case apperror.KindCustomerAlreadyExists, apperror.KindProductAlreadyExists, apperror.KindProductInUse:
		return fiber.StatusConflict
	case apperror.KindInsufficientStock:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError sends err as an ErrorResponse. Unexpected errors are logged and
// replaced by a generic message.
func writeError(c *fiber.Ctx, log *logrus.Entry, err error) error {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Unexpected(err, "unexpected error")
	}

	status := StatusFor(appErr.Kind)
	if status == fiber.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("request failed")
		return c.Status(status).JSON(ErrorResponse{
			Error:   string(apperror.KindUnexpected),
			Message: "An unexpected error occurred",
		})
	}

	return c.Status(status).JSON(ErrorResponse{
		Error:   string(appErr.Kind),
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// parseBody decodes the JSON body into dst and validates it.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.Wrap(apperror.KindValidation, err, "invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return validationFailed(err)
	}
	return nil
}

func validationFailed(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperror.Wrap(apperror.KindValidation, err, "validation failed")
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		// Drop the struct name: "CreateOrderRequest.items[0].quantity" -> "items[0].quantity".
		field := e.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		fields[field] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return apperror.New(apperror.KindValidation, "validation failed").WithDetail("fields", fields)
}
