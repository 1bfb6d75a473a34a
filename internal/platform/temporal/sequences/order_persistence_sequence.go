package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/kitchenpos-api/internal/platform/temporal/activities/orders"
)

// RunOrderPersistenceSequence executes the activities needed to persist a new order.
func RunOrderPersistenceSequence(ctx workflow.Context, request types.OrderCreateRequest) (*types.OrderResponse, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order persistence sequence started", "orderTableId", request.OrderTableID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
			NonRetryableErrorTypes: []string{
				orderactivities.ErrorTypeInvalidInput,
				orderactivities.ErrorTypeNotFound,
				orderactivities.ErrorTypeDomainRule,
				orderactivities.ErrorTypeConflict,
			},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var response types.OrderResponse
	err := workflow.ExecuteActivity(ctx, orderactivities.CreateOrderActivityName, request).Get(ctx, &response)
	if err != nil {
		logger.Error("order persistence sequence failed", "orderTableId", request.OrderTableID, "error", err)
		return nil, err
	}
	logger.Info("order persistence sequence completed", "orderId", response.ID)
	return &response, nil
}
