//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/kitchenpos-api/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type orderLineItemPayload struct {
	Seq      int64 `json:"seq,omitempty"`
	OrderID  int64 `json:"orderId,omitempty"`
	MenuID   int64 `json:"menuId"`
	Quantity int64 `json:"quantity"`
}

type orderPayload struct {
	ID             int64                  `json:"id,omitempty"`
	OrderTableID   int64                  `json:"orderTableId"`
	OrderStatus    string                 `json:"orderStatus,omitempty"`
	OrderedTime    string                 `json:"orderedTime,omitempty"`
	OrderLineItems []orderLineItemPayload `json:"orderLineItems"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type apiError struct {
	status int
	title  string
	detail string
}

func (e apiError) Error() string {
	msg := e.title
	if msg == "" {
		msg = "api error"
	}
	if e.detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.detail)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func (e apiError) Status() int {
	return e.status
}

func orderMatcher(status string) matchers.Map {
	example := pacttest.ExampleOrderPayload(status)
	return matchers.Map{
		"id":           matchers.Like(example["id"]),
		"orderTableId": matchers.Like(example["orderTableId"]),
		"orderStatus":  matchers.Term(status, "COOKING|MEAL|COMPLETION"),
		"orderedTime":  matchers.Like(example["orderedTime"]),
		"orderLineItems": matchers.EachLike(matchers.Map{
			"seq":      matchers.Like(1),
			"orderId":  matchers.Like(pacttest.ExistingOrderID),
			"menuId":   matchers.Like(pacttest.FirstMenuID),
			"quantity": matchers.Like(2),
		}, 1),
	}
}

func problemMatcher(problemType, title string, status int) matchers.Map {
	return matchers.Map{
		"type":   matchers.S(problemType),
		"title":  matchers.S(title),
		"status": matchers.Like(status),
	}
}

func TestPOSTerminalContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	statusPath := func(id int64) string { return fmt.Sprintf("/api/orders/%d/order-status", id) }

	pact.AddInteraction().
		Given(pacttest.StateMenusAndTableSeeded).
		UponReceiving("a request to place an order").
		WithRequest("POST", "/api/orders", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{
				"orderTableId": matchers.Like(pacttest.ExistingTableID),
				"orderLineItems": matchers.EachLike(matchers.Map{
					"menuId":   matchers.Like(pacttest.FirstMenuID),
					"quantity": matchers.Like(2),
				}, 1),
			})
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(orderMatcher("COOKING"))
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderExists).
		UponReceiving("a request to list orders").
		WithRequest("GET", "/api/orders").
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.EachLike(orderMatcher("COOKING"), 1))
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderExists).
		UponReceiving("a request to serve the meal of an order").
		WithRequest("PUT", statusPath(pacttest.ExistingOrderID), func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{"orderStatus": matchers.S("MEAL")})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(orderMatcher("MEAL"))
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderMissing).
		UponReceiving("a status change for a missing order").
		WithRequest("PUT", statusPath(pacttest.MissingOrderID), func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{"orderStatus": matchers.S("MEAL")})
		}).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(problemMatcher("/problems/not-found", "Resource Not Found", http.StatusNotFound))
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderCompleted).
		UponReceiving("a status change for a completed order").
		WithRequest("PUT", statusPath(pacttest.ExistingOrderID), func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{"orderStatus": matchers.S("COOKING")})
		}).
		WillRespondWith(http.StatusUnprocessableEntity, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(problemMatcher("/problems/domain-rule-violation", "Domain Rule Violation", http.StatusUnprocessableEntity))
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newOrderClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		created, err := client.CreateOrder(ctx, orderPayload{
			OrderTableID: pacttest.ExistingTableID,
			OrderLineItems: []orderLineItemPayload{
				{MenuID: pacttest.FirstMenuID, Quantity: 2},
				{MenuID: pacttest.SecondMenuID, Quantity: 1},
			},
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if created.ID == 0 || created.OrderStatus != "COOKING" {
			return fmt.Errorf("expected a cooking order with an id, got %+v", created)
		}

		orders, err := client.ListOrders(ctx)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		if len(orders) == 0 {
			return fmt.Errorf("expected at least one order")
		}

		served, err := client.ChangeOrderStatus(ctx, pacttest.ExistingOrderID, "MEAL")
		if err != nil {
			return fmt.Errorf("change status: %w", err)
		}
		if served.OrderStatus != "MEAL" {
			return fmt.Errorf("expected MEAL, got %s", served.OrderStatus)
		}

		if status := statusOf(client.ChangeOrderStatus(ctx, pacttest.MissingOrderID, "MEAL")); status != http.StatusNotFound {
			return fmt.Errorf("expected 404 for order %d, got %d", pacttest.MissingOrderID, status)
		}
		if status := statusOf(client.ChangeOrderStatus(ctx, pacttest.ExistingOrderID, "COOKING")); status != http.StatusUnprocessableEntity {
			return fmt.Errorf("expected 422 for completed order, got %d", status)
		}
		return nil
	})
	require.NoError(t, err)
}

// statusOf returns the HTTP status carried by an apiError, or 0.
func statusOf(_ *orderPayload, err error) int {
	if apiErr, ok := err.(apiError); ok {
		return apiErr.Status()
	}
	return 0
}

type orderClient struct {
	baseURL    string
	httpClient *http.Client
}

func newOrderClient(config pactconsumer.MockServerConfig) *orderClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}
	return &orderClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: client,
	}
}

func (c *orderClient) CreateOrder(ctx context.Context, order orderPayload) (*orderPayload, error) {
	var created orderPayload
	if err := c.do(ctx, http.MethodPost, "/api/orders", order, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *orderClient) ListOrders(ctx context.Context) ([]orderPayload, error) {
	var orders []orderPayload
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *orderClient) ChangeOrderStatus(ctx context.Context, id int64, status string) (*orderPayload, error) {
	var updated orderPayload
	path := fmt.Sprintf("/api/orders/%d/order-status", id)
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"orderStatus": status}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *orderClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(res)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	return apiError{
		status: status,
		title:  problem.Title,
		detail: problem.Detail,
	}
}
