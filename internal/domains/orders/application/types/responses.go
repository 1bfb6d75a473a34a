package types

import "time"

// OrderLineItemResponse is the read model of a persisted line item.
type OrderLineItemResponse struct {
	Seq      int64
	OrderID  int64
	MenuID   int64
	Quantity int64
}

// OrderResponse is the read model of a persisted order.
type OrderResponse struct {
	ID             int64
	OrderTableID   int64
	OrderStatus    string
	OrderedTime    time.Time
	OrderLineItems []OrderLineItemResponse
}
