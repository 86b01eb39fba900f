package messaging

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	OrderCreatedEvent EventType = "order.created"
	OrderUpdatedEvent EventType = "order.updated"
)

// OrderEvent is published after an order mutation commits. Consumers key on
// the routing pattern "orders.<service>.<event_type>".
type OrderEvent struct {
	ID            uuid.UUID   `json:"id"`
	OrderID       int64       `json:"order_id"`
	EventType     EventType   `json:"event_type"`
	Service       string      `json:"service"`
	CorrelationID uuid.UUID   `json:"correlation_id"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload,omitempty"`
}

// OrderItemPayload mirrors the committed item set in the event body.
type OrderItemPayload struct {
	ProductID int64 `json:"product_id"`
	Count     int   `json:"count"`
}

type OrderMutatedPayload struct {
	Customer    string             `json:"customer"`
	WarehouseID int64              `json:"warehouse_id"`
	Items       []OrderItemPayload `json:"items,omitempty"`
}
