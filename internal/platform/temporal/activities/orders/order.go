package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application/types"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
)

const (
	// CreateOrderActivityName persists a new order through the orders service.
	CreateOrderActivityName = "orders.activities.CreateOrder"
)

// Application error types carried across the Temporal boundary.
const (
	ErrorTypeInvalidInput = "OrderInvalidInput"
	ErrorTypeNotFound     = "OrderNotFound"
	ErrorTypeDomainRule   = "OrderDomainRule"
	ErrorTypeConflict     = "OrderConflict"
)

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ports.Service
}

// NewActivities wires the orders service into the Temporal activities bundle.
func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// CreateOrder places the order and returns its response.
// Business failures are returned as non-retryable application errors typed by kind.
func (a *Activities) CreateOrder(ctx context.Context, request types.OrderCreateRequest) (*types.OrderResponse, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("create order activity not initialized", "orderTableId", request.OrderTableID)
		return nil, errors.New("create order activity not initialized")
	}
	logger.Info("CreateOrder activity started", "orderTableId", request.OrderTableID)
	response, err := a.service.Create(ctx, request)
	if err != nil {
		logger.Error("CreateOrder activity failed", "orderTableId", request.OrderTableID, "error", err)
		return nil, toActivityError(err)
	}
	logger.Info("CreateOrder activity completed", "orderId", response.ID)
	return response, nil
}

func toActivityError(err error) error {
	if errType := ErrorType(err); errType != "" {
		return temporal.NewNonRetryableApplicationError(err.Error(), errType, err)
	}
	return err
}

// ErrorType names the application error kind of err, or "" for infrastructure failures.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		return ErrorTypeInvalidInput
	case errors.Is(err, application.ErrNotFound):
		return ErrorTypeNotFound
	case errors.Is(err, application.ErrDomainRule):
		return ErrorTypeDomainRule
	case errors.Is(err, application.ErrConflict):
		return ErrorTypeConflict
	}
	return ""
}
