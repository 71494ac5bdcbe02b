package services

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"minicrm/internal/models"
)

// Event types published after a successful commit.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// EventPublisher delivers an encoded event. *rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(eventType string, body []byte) error
}

// OrderEvent is the JSON body of every order event.
type OrderEvent struct {
	OrderID        string             `json:"orderId"`
	CustomerID     string             `json:"customerId"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previousStatus,omitempty"`
	TotalAmount    decimal.Decimal    `json:"totalAmount"`
	Items          []OrderEventItem   `json:"items,omitempty"`
	OccurredAt     time.Time          `json:"occurredAt"`
}

// OrderEventItem is one order line inside an OrderEvent.
type OrderEventItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func newOrderEvent(order *models.Order) OrderEvent {
	event := OrderEvent{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, OrderEventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return event
}

// publishEvent is best effort: the order is already committed, so failures
// are logged and swallowed.
func publishEvent(publisher EventPublisher, log *logrus.Entry, eventType string, event OrderEvent) {
	entry := log.WithFields(logrus.Fields{"event": eventType, "order_id": event.OrderID})
	if publisher == nil {
		entry.Debug("no event publisher configured, skipping")
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		entry.WithError(err).Warn("failed to encode event")
		return
	}
	if err := publisher.Publish(eventType, body); err != nil {
		entry.WithError(err).Warn("failed to publish event")
		return
	}
	entry.Debug("event published")
}
