package ports

import (
	"context"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application/types"
)

// WorkflowOrchestrator exposes durable workflow operations required by the orders bounded context.
type WorkflowOrchestrator interface {
	CreateOrder(ctx context.Context, request types.OrderCreateRequest) (*types.OrderResponse, error)
}
