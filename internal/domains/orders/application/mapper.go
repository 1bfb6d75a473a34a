package application

import (
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application/types"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/domain"
)

// MapToResponse converts a persisted order into its read model.
func MapToResponse(order *domain.Order) *types.OrderResponse {
	if order == nil {
		return nil
	}
	items := order.OrderLineItems.Items()
	lineItems := make([]types.OrderLineItemResponse, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, types.OrderLineItemResponse{
			Seq:      item.Seq,
			OrderID:  order.ID,
			MenuID:   item.MenuID,
			Quantity: item.Quantity,
		})
	}
	return &types.OrderResponse{
		ID:             order.ID,
		OrderTableID:   order.OrderTableID,
		OrderStatus:    order.OrderStatus.String(),
		OrderedTime:    order.OrderedTime,
		OrderLineItems: lineItems,
	}
}

// MapToResponses maps orders preserving their order.
func MapToResponses(orders []*domain.Order) []*types.OrderResponse {
	responses := make([]*types.OrderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, MapToResponse(order))
	}
	return responses
}

// MapToOrderStatus translates a status change request into the enumeration.
func MapToOrderStatus(request types.OrderStatusChangeRequest) (domain.OrderStatus, error) {
	return domain.ParseOrderStatus(request.OrderStatus)
}
