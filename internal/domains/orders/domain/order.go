package domain

import (
	"errors"
	"strings"
	"time"
)

// OrderStatus enumerates the lifecycle of a table order.
type OrderStatus string

const (
	OrderStatusCooking    OrderStatus = "COOKING"
	OrderStatusMeal       OrderStatus = "MEAL"
	OrderStatusCompletion OrderStatus = "COMPLETION"
)

var (
	ErrInvalidOrderTableID = errors.New("order table id must be greater than zero")
	ErrInvalidMenuID       = errors.New("menu id must be greater than zero")
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrEmptyOrderLineItems = errors.New("order must contain at least one line item")
	ErrInvalidOrderStatus  = errors.New("order status is invalid")
	ErrOrderCompleted      = errors.New("completed order status cannot be changed")
)

// ParseOrderStatus resolves a raw status name into the enumeration.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.IsValid() {
		return "", ErrInvalidOrderStatus
	}
	return status, nil
}

// String returns the wire name of the status.
func (s OrderStatus) String() string { return string(s) }

// IsValid reports whether s is one of the known statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusCooking, OrderStatusMeal, OrderStatusCompletion:
		return true
	default:
		return false
	}
}

// Order models a table order aggregate.
type Order struct {
	ID             int64
	OrderTableID   int64
	OrderStatus    OrderStatus
	OrderedTime    time.Time
	OrderLineItems OrderLineItems
	// Version is bumped by the store on every update and guards concurrent status changes.
	Version int64
}

// NewOrder constructs a freshly placed order. The store assigns identity on save.
func NewOrder(orderTableID int64, lineItems OrderLineItems, orderedTime time.Time) (*Order, error) {
	if orderTableID <= 0 {
		return nil, ErrInvalidOrderTableID
	}
	if lineItems.Len() == 0 {
		return nil, ErrEmptyOrderLineItems
	}
	return &Order{
		OrderTableID:   orderTableID,
		OrderStatus:    OrderStatusCooking,
		OrderedTime:    orderedTime,
		OrderLineItems: lineItems,
	}, nil
}

// ChangeOrderStatus moves the order to the target status. Completed orders are final.
func (o *Order) ChangeOrderStatus(status OrderStatus) error {
	if !status.IsValid() {
		return ErrInvalidOrderStatus
	}
	if o.IsCompleted() {
		return ErrOrderCompleted
	}
	o.OrderStatus = status
	return nil
}

// IsCompleted reports whether the order reached COMPLETION and can no longer change.
func (o *Order) IsCompleted() bool {
	return o.OrderStatus == OrderStatusCompletion
}
