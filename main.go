package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"minicrm/internal/config"
	"minicrm/internal/database"
	"minicrm/internal/handlers"
	"minicrm/internal/metrics"
	"minicrm/internal/middleware"
	"minicrm/internal/repositories"
	"minicrm/internal/services"
	"minicrm/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	logger := newLogger(cfg)
	log := logrus.NewEntry(logger).WithField("service", "minicrm")

	// --- Database ---
	db, err := database.Open(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}

	// --- RabbitMQ (optional) ---
	// A nil interface, not a nil *rabbitmq.Client, disables publishing.
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.WithError(err).Fatal("failed to initialize RabbitMQ client")
		}
		defer mqClient.Close()
		publisher = mqClient
		log.WithField("queue", mqClient.Queue()).Info("publishing order events")
	} else {
		log.Warn("RABBITMQ_URL is empty, order events will not be published")
	}

	app := newApp(db, cfg, publisher, log, metrics.New())

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("addr", cfg.AppPort).Info("starting server")
		if err := app.Listen(cfg.AppPort); err != nil {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	<-quit
	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server gracefully stopped")
}

func newLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", cfg.LogLevel).Warn("unknown LOG_LEVEL, using info")
	}
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// newApp wires repositories, services and handlers into a Fiber app.
func newApp(db *gorm.DB, cfg config.Config, publisher services.EventPublisher, log *logrus.Entry, m *metrics.Metrics) *fiber.App {
	store := repositories.NewGORMStore(db)

	customerService := services.NewCustomerService(store, cfg.CustomerListLimit, log)
	productService := services.NewProductService(store, cfg.ProductListLimit, log)
	orderService := services.NewOrderService(store, publisher, cfg.OrderListLimit, log, m)

	app := fiber.New(fiber.Config{
		AppName:      "minicrm",
		ErrorHandler: errorHandler(log),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log.WithField("component", "http")))
	app.Use(middleware.Metrics(m))

	// --- API Routes ---
	api := app.Group("/api")
	handlers.NewCustomerHandler(customerService, log).RegisterRoutes(api)
	handlers.NewProductHandler(productService, log).RegisterRoutes(api)
	handlers.NewOrderHandler(orderService, log).RegisterRoutes(api)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := database.Ping(c.UserContext(), db); err != nil {
			log.WithError(err).Warn("health check failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		}
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app
}

// errorHandler renders errors that escape the handlers, such as unknown
// routes, in the same shape as API errors.
func errorHandler(log *logrus.Entry) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "An unexpected error occurred"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
		}
		return c.Status(code).JSON(handlers.ErrorResponse{
			Error:   utils.StatusMessage(code),
			Message: message,
		})
	}
}
