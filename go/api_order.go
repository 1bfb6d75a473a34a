package kitchenposserver

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/kitchenpos-api/internal/domains/orders/adapters/http/mapper"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application/types"
	ordersports "github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
	apierrors "github.com/Apurer/kitchenpos-api/internal/shared/errors"
)

// IdempotencyKeyHeader lets clients retry order creation safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderAPI wires HTTP transport with the orders bounded context service and workflows.
type OrderAPI struct {
	service   ordersports.Service
	workflows ordersports.WorkflowOrchestrator
}

// NewOrderAPI creates an OrderAPI. A nil orchestrator creates orders through the service directly.
func NewOrderAPI(service ordersports.Service, workflows ordersports.WorkflowOrchestrator) OrderAPI {
	return OrderAPI{service: service, workflows: workflows}
}

// Post /api/orders
// Places a new order for a table
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload orderhttpmapper.OrderCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	created, err := api.createOrder(c.Request.Context(), orderhttpmapper.ToCreateRequest(payload, key))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Location", "/api/orders/"+strconv.FormatInt(created.ID, 10))
	c.JSON(http.StatusCreated, orderhttpmapper.FromResponse(created))
}

func (api *OrderAPI) createOrder(ctx context.Context, request types.OrderCreateRequest) (*types.OrderResponse, error) {
	if api.workflows != nil {
		return api.workflows.CreateOrder(ctx, request)
	}
	return api.service.Create(ctx, request)
}

// Get /api/orders
// Lists every order
func (api *OrderAPI) ListOrders(c *gin.Context) {
	orders, err := api.service.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromResponseList(orders))
}

// Put /api/orders/:orderId/order-status
// Changes the status of an order
func (api *OrderAPI) ChangeOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload orderhttpmapper.OrderStatusChange
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	updated, err := api.service.ChangeOrderStatus(c.Request.Context(), id, orderhttpmapper.ToStatusChangeRequest(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromResponse(updated))
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	value := c.Param(name)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		apierrors.Respond(c, apierrors.ErrBadRequest.WithDetail(name+" must be an integer"))
		return 0, false
	}
	return id, true
}
