package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/domain"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
)

var _ ports.OrderRepository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter.
type Repository struct {
	mu      sync.RWMutex
	orders  map[int64]*domain.Order
	ids     []int64
	nextID  int64
	nextSeq int64
}

// NewRepository constructs an empty repository. Identities and line item seqs start at 1.
func NewRepository() *Repository {
	return &Repository{orders: map[int64]*domain.Order{}}
}

// snapshot copies the index; stored orders are replaced on save, never mutated.
func (r *Repository) snapshot() func() {
	r.mu.RLock()
	orders := make(map[int64]*domain.Order, len(r.orders))
	for id, order := range r.orders {
		orders[id] = order
	}
	ids := append([]int64(nil), r.ids...)
	nextID, nextSeq := r.nextID, r.nextSeq
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.orders = orders
		r.ids = ids
		r.nextID = nextID
		r.nextSeq = nextSeq
	}
}

func (r *Repository) Save(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *order
	if clone.ID == 0 {
		items := clone.OrderLineItems.Items()
		for i := range items {
			r.nextSeq++
			items[i].Seq = r.nextSeq
		}
		lineItems, err := domain.NewOrderLineItems(items)
		if err != nil {
			return nil, err
		}
		r.nextID++
		clone.ID = r.nextID
		clone.OrderLineItems = lineItems
		clone.Version = 1
		r.ids = append(r.ids, clone.ID)
	} else {
		stored, ok := r.orders[clone.ID]
		if !ok {
			return nil, ports.ErrNotFound
		}
		if stored.Version != clone.Version {
			return nil, ports.ErrVersionConflict
		}
		// Line items are immutable once placed.
		clone.OrderLineItems = stored.OrderLineItems
		clone.Version++
	}
	r.orders[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *Repository) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (r *Repository) FindAll(_ context.Context) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Order, 0, len(r.ids))
	for _, id := range r.ids {
		clone := *r.orders[id]
		list = append(list, &clone)
	}
	return list, nil
}
