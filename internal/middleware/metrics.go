package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"minicrm/internal/metrics"
)

// Metrics observes the duration of every request. The route label is the
// matched route pattern, so ids do not blow up label cardinality.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		m.ObserveHTTPRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
