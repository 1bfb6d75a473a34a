package mapper

import (
	"time"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application/types"
)

// OrderLineItemCreate is one requested line of an inbound order.
type OrderLineItemCreate struct {
	MenuID   int64 `json:"menuId"`
	Quantity int64 `json:"quantity"`
}

// OrderCreate captures the inbound payload of POST /api/orders.
type OrderCreate struct {
	OrderTableID   int64                 `json:"orderTableId"`
	OrderLineItems []OrderLineItemCreate `json:"orderLineItems" binding:"required"`
}

// OrderStatusChange captures the inbound payload of PUT /api/orders/:orderId/order-status.
type OrderStatusChange struct {
	OrderStatus string `json:"orderStatus" binding:"required"`
}

// OrderLineItem is the HTTP representation of a persisted line item.
type OrderLineItem struct {
	Seq      int64 `json:"seq"`
	OrderID  int64 `json:"orderId"`
	MenuID   int64 `json:"menuId"`
	Quantity int64 `json:"quantity"`
}

// Order is the HTTP representation of a persisted order.
type Order struct {
	ID             int64           `json:"id"`
	OrderTableID   int64           `json:"orderTableId"`
	OrderStatus    string          `json:"orderStatus"`
	OrderedTime    time.Time       `json:"orderedTime"`
	OrderLineItems []OrderLineItem `json:"orderLineItems"`
}

// ToCreateRequest maps the transport payload into the application request.
func ToCreateRequest(payload OrderCreate, idempotencyKey string) types.OrderCreateRequest {
	items := make([]types.OrderLineItemRequest, 0, len(payload.OrderLineItems))
	for _, item := range payload.OrderLineItems {
		items = append(items, types.OrderLineItemRequest{MenuID: item.MenuID, Quantity: item.Quantity})
	}
	return types.OrderCreateRequest{
		OrderTableID:   payload.OrderTableID,
		OrderLineItems: items,
		IdempotencyKey: idempotencyKey,
	}
}

func ToStatusChangeRequest(payload OrderStatusChange) types.OrderStatusChangeRequest {
	return types.OrderStatusChangeRequest{OrderStatus: payload.OrderStatus}
}

// FromResponse maps an application response into the transport model.
func FromResponse(response *types.OrderResponse) Order {
	if response == nil {
		return Order{OrderLineItems: []OrderLineItem{}}
	}
	items := make([]OrderLineItem, 0, len(response.OrderLineItems))
	for _, item := range response.OrderLineItems {
		items = append(items, OrderLineItem{
			Seq:      item.Seq,
			OrderID:  item.OrderID,
			MenuID:   item.MenuID,
			Quantity: item.Quantity,
		})
	}
	return Order{
		ID:             response.ID,
		OrderTableID:   response.OrderTableID,
		OrderStatus:    response.OrderStatus,
		OrderedTime:    response.OrderedTime,
		OrderLineItems: items,
	}
}

// FromResponseList maps a list, never returning nil so empty lists encode as [].
func FromResponseList(responses []*types.OrderResponse) []Order {
	result := make([]Order, 0, len(responses))
	for _, response := range responses {
		result = append(result, FromResponse(response))
	}
	return result
}
