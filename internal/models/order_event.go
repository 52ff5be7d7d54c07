package models

import "time"

type OrderEventType string

const (
	OrderEventCreated     OrderEventType = "order.created"
	OrderEventBomAppended OrderEventType = "order.bom_appended"
	OrderEventCompleted   OrderEventType = "order.completed"
	OrderEventTerminated  OrderEventType = "order.terminated"
)

// OrderEvent is published to Kafka and pushed to SSE subscribers whenever an
// order changes.
type OrderEvent struct {
	Type        OrderEventType `json:"type"`
	OrderID     int64          `json:"orderId"`
	UserID      int64          `json:"userId"`
	OrderNumber string         `json:"orderNumber"`
	Status      OrderStatus    `json:"status"`
	Version     int            `json:"version,omitempty"`
	TotalCost   float64        `json:"totalCost,omitempty"`
	OccurredAt  time.Time      `json:"occurredAt"`
}

// NewOrderEvent snapshots the order fields relevant to subscribers.
func NewOrderEvent(eventType OrderEventType, order Order) OrderEvent {
	event := OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		UserID:      order.UserID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		OccurredAt:  time.Now().UTC(),
	}
	if latest := order.LatestVersion(); latest != nil && eventType == OrderEventBomAppended {
		event.Version = latest.Version
		event.TotalCost = latest.TotalCost
	}
	return event
}

// EventTypeForStatus maps a terminal status to its event type.
func EventTypeForStatus(status OrderStatus) OrderEventType {
	if status == OrderStatusTerminated {
		return OrderEventTerminated
	}
	return OrderEventCompleted
}
