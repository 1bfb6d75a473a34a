package types

// OrderLineItemRequest is one requested (menu, quantity) pair.
type OrderLineItemRequest struct {
	MenuID   int64
	Quantity int64
}

// OrderCreateRequest carries the data needed to place an order for a table.
type OrderCreateRequest struct {
	OrderTableID   int64
	OrderLineItems []OrderLineItemRequest
	// IdempotencyKey is optional; retries with the same key and payload replay the first result.
	IdempotencyKey string
}

// MenuIDs lists the requested menu ids in request order, duplicates included.
func (r OrderCreateRequest) MenuIDs() []int64 {
	ids := make([]int64, 0, len(r.OrderLineItems))
	for _, item := range r.OrderLineItems {
		ids = append(ids, item.MenuID)
	}
	return ids
}

// OrderStatusChangeRequest carries the raw target status name.
type OrderStatusChangeRequest struct {
	OrderStatus string
}
