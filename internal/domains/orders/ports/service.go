package ports

import (
	"context"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application/types"
)

// Service exposes order use cases to adapters (inbound/driving port).
type Service interface {
	Create(ctx context.Context, request types.OrderCreateRequest) (*types.OrderResponse, error)
	List(ctx context.Context) ([]*types.OrderResponse, error)
	ChangeOrderStatus(ctx context.Context, orderID int64, request types.OrderStatusChangeRequest) (*types.OrderResponse, error)
}
