package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application/types"
)

type normalizedCreateOrder struct {
	OrderTableID   int64                     `json:"orderTableId"`
	OrderLineItems []normalizedOrderLineItem `json:"orderLineItems"`
}

type normalizedOrderLineItem struct {
	MenuID   int64 `json:"menuId"`
	Quantity int64 `json:"quantity"`
}

// FingerprintCreateOrder builds a deterministic hash of the create payload (excluding the idempotency key).
// Line item order is significant because it is preserved in the persisted order.
func FingerprintCreateOrder(request types.OrderCreateRequest) (string, error) {
	normalized := normalizedCreateOrder{
		OrderTableID:   request.OrderTableID,
		OrderLineItems: make([]normalizedOrderLineItem, 0, len(request.OrderLineItems)),
	}
	for _, item := range request.OrderLineItems {
		normalized.OrderLineItems = append(normalized.OrderLineItems, normalizedOrderLineItem{
			MenuID:   item.MenuID,
			Quantity: item.Quantity,
		})
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
