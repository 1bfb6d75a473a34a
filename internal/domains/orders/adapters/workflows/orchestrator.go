package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application/types"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/kitchenpos-api/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/kitchenpos-api/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalOrderWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineOrderWorkflows)(nil)
)

// TemporalOrderWorkflows starts order workflows on a Temporal cluster.
type TemporalOrderWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalOrderWorkflows wires a Temporal client into the orchestrator.
func NewTemporalOrderWorkflows(c client.Client) *TemporalOrderWorkflows {
	return &TemporalOrderWorkflows{client: c, taskQueue: orderworkflows.OrderCreationTaskQueue}
}

// RequestHashMemo is the memo field carrying the create fingerprint of keyed workflows.
const RequestHashMemo = "requestHash"

// CreateOrder starts the Temporal workflow that persists an order and waits for its result.
// A keyed request that finds its workflow already running joins that run only when the
// running request carries the same fingerprint.
func (o *TemporalOrderWorkflows) CreateOrder(ctx context.Context, request types.OrderCreateRequest) (*types.OrderResponse, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal order workflows not configured")
	}
	keyed := strings.TrimSpace(request.IdempotencyKey) != ""
	workflowID := buildOrderCreationWorkflowID(request)
	options := client.StartWorkflowOptions{
		ID:                                       workflowID,
		TaskQueue:                                o.taskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	var hash string
	if keyed {
		fingerprint, err := application.FingerprintCreateOrder(request)
		if err != nil {
			return nil, err
		}
		hash = fingerprint
		options.Memo = map[string]interface{}{RequestHashMemo: hash}
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.OrderCreationWorkflowName,
		orderworkflows.OrderCreationWorkflowInput{Command: request, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !keyed || !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		running, err := o.runningRequestHash(ctx, workflowID, alreadyStarted.RunId)
		if err != nil {
			return nil, err
		}
		if running != hash {
			return nil, fmt.Errorf("%w: %w: key %q is in use by a different request", application.ErrConflict, ports.ErrIdempotencyConflict, request.IdempotencyKey)
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var response types.OrderResponse
	if err := run.Get(ctx, &response); err != nil {
		return nil, fromWorkflowError(err)
	}
	return &response, nil
}

// runningRequestHash reads the fingerprint memo of a running workflow. Runs without one yield "".
func (o *TemporalOrderWorkflows) runningRequestHash(ctx context.Context, workflowID, runID string) (string, error) {
	described, err := o.client.DescribeWorkflowExecution(ctx, workflowID, runID)
	if err != nil {
		return "", fmt.Errorf("describe workflow %s: %w", workflowID, err)
	}
	payload, ok := described.GetWorkflowExecutionInfo().GetMemo().GetFields()[RequestHashMemo]
	if !ok {
		return "", nil
	}
	var hash string
	if err := converter.GetDefaultDataConverter().FromPayload(payload, &hash); err != nil {
		return "", fmt.Errorf("decode %s memo: %w", RequestHashMemo, err)
	}
	return hash, nil
}

// fromWorkflowError restores the application error kind carried by a failed activity.
func fromWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	var kind error
	switch appErr.Type() {
	case orderactivities.ErrorTypeInvalidInput:
		kind = application.ErrInvalidInput
	case orderactivities.ErrorTypeNotFound:
		kind = application.ErrNotFound
	case orderactivities.ErrorTypeDomainRule:
		kind = application.ErrDomainRule
	case orderactivities.ErrorTypeConflict:
		kind = application.ErrConflict
	default:
		return err
	}
	return fmt.Errorf("%w: %s", kind, appErr.Message())
}

// InlineOrderWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineOrderWorkflows struct {
	service ports.Service
}

// NewInlineOrderWorkflows wraps the orders service for synchronous execution.
func NewInlineOrderWorkflows(service ports.Service) *InlineOrderWorkflows {
	return &InlineOrderWorkflows{service: service}
}

// CreateOrder delegates to the application service without durable orchestration.
func (o *InlineOrderWorkflows) CreateOrder(ctx context.Context, request types.OrderCreateRequest) (*types.OrderResponse, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline order workflows not configured")
	}
	return o.service.Create(ctx, request)
}

func buildOrderCreationWorkflowID(request types.OrderCreateRequest) string {
	if key := strings.TrimSpace(request.IdempotencyKey); key != "" {
		return fmt.Sprintf("order-creation-idem-%s", hashIdempotencyKey(key))
	}
	return fmt.Sprintf("order-creation-%d-%s", request.OrderTableID, uuid.NewString())
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	// First 16 hex chars keep workflow IDs readable.
	return hex.EncodeToString(sum[:8])
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
