package domain

// OrderLineItem references a menu and the quantity ordered.
type OrderLineItem struct {
	// Seq is assigned by the store; zero until persisted.
	Seq      int64
	MenuID   int64
	Quantity int64
}

// NewOrderLineItem validates and constructs a line item.
func NewOrderLineItem(menuID, quantity int64) (OrderLineItem, error) {
	if menuID <= 0 {
		return OrderLineItem{}, ErrInvalidMenuID
	}
	if quantity <= 0 {
		return OrderLineItem{}, ErrInvalidQuantity
	}
	return OrderLineItem{MenuID: menuID, Quantity: quantity}, nil
}

// OrderLineItems is the ordered, non-empty collection owned by an order.
type OrderLineItems struct {
	items []OrderLineItem
}

// NewOrderLineItems copies items into a collection. An empty slice is rejected.
func NewOrderLineItems(items []OrderLineItem) (OrderLineItems, error) {
	if len(items) == 0 {
		return OrderLineItems{}, ErrEmptyOrderLineItems
	}
	return OrderLineItems{items: append([]OrderLineItem(nil), items...)}, nil
}

// Items returns a copy of the line items in insertion order.
func (l OrderLineItems) Items() []OrderLineItem {
	return append([]OrderLineItem(nil), l.items...)
}

// MenuIDs lists referenced menu ids in order. Duplicates are kept.
func (l OrderLineItems) MenuIDs() []int64 {
	ids := make([]int64, 0, len(l.items))
	for _, item := range l.items {
		ids = append(ids, item.MenuID)
	}
	return ids
}

// Len returns the number of line items.
func (l OrderLineItems) Len() int {
	return len(l.items)
}
