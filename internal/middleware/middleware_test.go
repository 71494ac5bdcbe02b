package middleware_test

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"minicrm/internal/metrics"
	"minicrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	app := fiber.New()
	app.Use(middleware.RequestLogger(logrus.NewEntry(logger)))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "req-123", resp.Header.Get(middleware.RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"path":"/ping"`)
}

func TestRequestLoggerGeneratesID(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	app := fiber.New()
	app.Use(middleware.RequestLogger(logrus.NewEntry(logger)))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegisterer(registry)

	app := fiber.New()
	app.Use(middleware.Metrics(m))
	app.Get("/orders/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })

	for _, id := range []string{"a", "b", "c"} {
		_, err := app.Test(httptest.NewRequest("GET", "/orders/"+id, nil))
		require.NoError(t, err)
	}

	// One series for the pattern, not one per id.
	count, err := testutil.GatherAndCount(registry, "minicrm_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
