package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ordersCreated   prometheus.Counter
	orderFailures   *prometheus.CounterVec
	stockDecrements prometheus.Counter
	httpDuration    *prometheus.HistogramVec
}

// New registers the collectors on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors on registerer. Collectors that
// are already registered are reused.
func NewWithRegisterer(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Metrics{
		ordersCreated: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minicrm_orders_created_total",
			Help: "Total number of orders committed",
		})),
		orderFailures: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minicrm_order_failures_total",
			Help: "Total number of rolled back order creations by error kind",
		}, []string{"kind"})),
		stockDecrements: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minicrm_stock_decrements_total",
			Help: "Total number of stock decrements applied to tracked products",
		})),
		httpDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minicrm_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"})),
	}
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(T)
			if !ok {
				panic(fmt.Sprintf("collector already registered with unexpected type %T", alreadyRegistered.ExistingCollector))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return collector
}

// RecordOrderCreated counts a committed order.
func (m *Metrics) RecordOrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// RecordOrderFailed counts a rolled back order creation.
func (m *Metrics) RecordOrderFailed(kind string) {
	if m == nil {
		return
	}
	m.orderFailures.WithLabelValues(kind).Inc()
}

// RecordStockDecrement counts one applied decrement.
func (m *Metrics) RecordStockDecrement() {
	if m == nil {
		return
	}
	m.stockDecrements.Inc()
}

// ObserveHTTPRequest records the latency of a finished request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
