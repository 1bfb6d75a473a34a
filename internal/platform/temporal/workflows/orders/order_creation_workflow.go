package orders

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application/types"
	"github.com/Apurer/kitchenpos-api/internal/platform/temporal/sequences"
)

const (
	// OrderCreationWorkflowName is the public identifier for registering the workflow.
	OrderCreationWorkflowName = "orders.workflows.Creation"
	// OrderCreationTaskQueue is the queue consumed by the worker processing order workflows.
	OrderCreationTaskQueue = "ORDER_CREATION"
)

// OrderCreationWorkflowInput captures the payload required to place an order.
type OrderCreationWorkflowInput struct {
	Command types.OrderCreateRequest
	TraceID string
}

// OrderCreationWorkflow orchestrates the activities needed to persist an order.
func OrderCreationWorkflow(ctx workflow.Context, input OrderCreationWorkflowInput) (*types.OrderResponse, error) {
	logger := workflow.GetLogger(ctx)
	tableID := input.Command.OrderTableID
	logger.Info("OrderCreationWorkflow started", withTraceID(input.TraceID, "orderTableId", tableID)...)
	response, err := sequences.RunOrderPersistenceSequence(ctx, input.Command)
	if err != nil {
		logger.Error("OrderCreationWorkflow failed", withTraceID(input.TraceID, "orderTableId", tableID, "error", err)...)
		return nil, err
	}
	logger.Info("OrderCreationWorkflow completed", withTraceID(input.TraceID, "orderId", response.ID)...)
	return response, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
