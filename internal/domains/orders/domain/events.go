package domain

import "time"

// Event is the base interface for order domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	AggregateID() int64
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderCreated is raised once a new order has been persisted.
type OrderCreated struct {
	BaseEvent
	OrderID      int64
	OrderTableID int64
	OrderStatus  OrderStatus
	MenuIDs      []int64
}

// EventName returns the event type identifier.
func (e OrderCreated) EventName() string {
	return "orders.order.created"
}

func (e OrderCreated) AggregateID() int64 { return e.OrderID }

// OrderStatusChanged is raised after a status transition has been persisted.
type OrderStatusChanged struct {
	BaseEvent
	OrderID    int64
	FromStatus OrderStatus
	ToStatus   OrderStatus
}

// EventName returns the event type identifier.
func (e OrderStatusChanged) EventName() string {
	return "orders.order.status_changed"
}

func (e OrderStatusChanged) AggregateID() int64 { return e.OrderID }
