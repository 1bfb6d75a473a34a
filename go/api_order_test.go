package kitchenposserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderhttpmapper "github.com/Apurer/kitchenpos-api/internal/domains/orders/adapters/http/mapper"
	ordersmemory "github.com/Apurer/kitchenpos-api/internal/domains/orders/adapters/memory"
	ordersworkflows "github.com/Apurer/kitchenpos-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/kitchenpos-api/internal/domains/orders/application"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application/types"
	apierrors "github.com/Apurer/kitchenpos-api/internal/shared/errors"
)

var fixedNow = time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := ordersmemory.NewRepository()
	keys := ordersmemory.NewIdempotencyStore()
	service := ordersapp.NewService(
		repo,
		ordersmemory.NewMenuRepository(10, 11),
		ordersmemory.NewOrderTableRepository(5),
		ordersmemory.NewTxManager(repo, keys),
		ordersapp.WithIdempotencyStore(keys),
		ordersapp.WithClock(func() time.Time { return fixedNow }),
	)
	return NewRouter(ApiHandleFunctions{
		OrderAPI: NewOrderAPI(service, ordersworkflows.NewInlineOrderWorkflows(service)),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) orderhttpmapper.Order {
	t.Helper()
	var order orderhttpmapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	return order
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) apierrors.ProblemDetail {
	t.Helper()
	assert.Contains(t, rec.Header().Get("Content-Type"), apierrors.ContentTypeProblemJSON)
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

const validOrder = `{"orderTableId":5,"orderLineItems":[{"menuId":10,"quantity":2},{"menuId":11,"quantity":1}]}`

func TestOrderAPI_CreateOrder(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/orders", validOrder)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/orders/1", rec.Header().Get("Location"))

	order := decodeOrder(t, rec)
	assert.Equal(t, int64(1), order.ID)
	assert.Equal(t, int64(5), order.OrderTableID)
	assert.Equal(t, "COOKING", order.OrderStatus)
	assert.True(t, fixedNow.Equal(order.OrderedTime))
	require.Len(t, order.OrderLineItems, 2)
	assert.Equal(t, int64(10), order.OrderLineItems[0].MenuID)
	assert.Equal(t, int64(1), order.OrderLineItems[0].OrderID)
	assert.NotZero(t, order.OrderLineItems[0].Seq)
}

func TestOrderAPI_CreateOrderRejectsInvalidInput(t *testing.T) {
	router := newTestRouter(t)
	cases := map[string]string{
		"unknown table":   `{"orderTableId":99,"orderLineItems":[{"menuId":10,"quantity":1}]}`,
		"unknown menu":    `{"orderTableId":5,"orderLineItems":[{"menuId":99,"quantity":1}]}`,
		"empty items":     `{"orderTableId":5,"orderLineItems":[]}`,
		"missing items":   `{"orderTableId":5}`,
		"malformed json":  `{"orderTableId":`,
		"wrong item type": `{"orderTableId":5,"orderLineItems":"x"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/orders", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			problem := decodeProblem(t, rec)
			assert.Equal(t, http.StatusBadRequest, problem.Status)
		})
	}

	list := doJSON(t, router, http.MethodGet, "/api/orders", "")
	assert.JSONEq(t, `[]`, list.Body.String())
}

func TestOrderAPI_CreateOrderIsIdempotent(t *testing.T) {
	router := newTestRouter(t)

	first := doJSON(t, router, http.MethodPost, "/api/orders", validOrder, IdempotencyKeyHeader, "retry-1")
	require.Equal(t, http.StatusCreated, first.Code)
	second := doJSON(t, router, http.MethodPost, "/api/orders", validOrder, IdempotencyKeyHeader, "retry-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, decodeOrder(t, first).ID, decodeOrder(t, second).ID)

	other := `{"orderTableId":5,"orderLineItems":[{"menuId":10,"quantity":9}]}`
	conflict := doJSON(t, router, http.MethodPost, "/api/orders", other, IdempotencyKeyHeader, "retry-1")
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, apierrors.TypeConflict, decodeProblem(t, conflict).Type)

	var orders []orderhttpmapper.Order
	list := doJSON(t, router, http.MethodGet, "/api/orders", "")
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)
}

func TestOrderAPI_ListOrders(t *testing.T) {
	router := newTestRouter(t)
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/orders", validOrder).Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []orderhttpmapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 2)
	assert.Equal(t, int64(1), orders[0].ID)
	assert.Equal(t, int64(2), orders[1].ID)
}

func TestOrderAPI_ChangeOrderStatus(t *testing.T) {
	router := newTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/orders", validOrder).Code)

	rec := doJSON(t, router, http.MethodPut, "/api/orders/1/order-status", `{"orderStatus":"MEAL"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	order := decodeOrder(t, rec)
	assert.Equal(t, "MEAL", order.OrderStatus)
	assert.Len(t, order.OrderLineItems, 2)

	rec = doJSON(t, router, http.MethodPut, "/api/orders/1/order-status", `{"orderStatus":"COMPLETION"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/orders/1/order-status", `{"orderStatus":"COOKING"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apierrors.TypeDomainRule, decodeProblem(t, rec).Type)
}

func TestOrderAPI_ChangeOrderStatusErrors(t *testing.T) {
	router := newTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/orders", validOrder).Code)

	rec := doJSON(t, router, http.MethodPut, "/api/orders/42/order-status", `{"orderStatus":"MEAL"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/api/orders/42/order-status", decodeProblem(t, rec).Instance)

	rec = doJSON(t, router, http.MethodPut, "/api/orders/abc/order-status", `{"orderStatus":"MEAL"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/orders/1/order-status", `{"orderStatus":"EATING"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/orders/1/order-status", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.TypeValidation, decodeProblem(t, rec).Type)
}

type failingOrchestrator struct{ err error }

func (f failingOrchestrator) CreateOrder(context.Context, types.OrderCreateRequest) (*types.OrderResponse, error) {
	return nil, f.err
}

func TestOrderAPI_CreateOrderInfrastructureFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := ordersapp.NewService(ordersmemory.NewRepository(), ordersmemory.NewMenuRepository(), ordersmemory.NewOrderTableRepository(), nil)
	router := NewRouter(ApiHandleFunctions{
		OrderAPI: NewOrderAPI(service, failingOrchestrator{err: errors.New("temporal unavailable")}),
	})

	rec := doJSON(t, router, http.MethodPost, "/api/orders", validOrder)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apierrors.TypeInternal, decodeProblem(t, rec).Type)
}

func TestHealthz(t *testing.T) {
	rec := doJSON(t, newTestRouter(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
