package memory

import (
	"context"
	"sync"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
)

var (
	_ ports.MenuRepository    = (*MenuRepository)(nil)
	_ ports.OrderTableService = (*OrderTableRepository)(nil)
)

// MenuRepository keeps a set of known menu ids.
type MenuRepository struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

func NewMenuRepository(ids ...int64) *MenuRepository {
	r := &MenuRepository{ids: map[int64]struct{}{}}
	r.Add(ids...)
	return r
}

// Add registers menu ids as existing.
func (r *MenuRepository) Add(ids ...int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.ids[id] = struct{}{}
	}
}

func (r *MenuRepository) ExistsAllByIDIn(_ context.Context, ids []int64) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range ids {
		if _, ok := r.ids[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// OrderTableRepository keeps a set of known dining table ids.
type OrderTableRepository struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

func NewOrderTableRepository(ids ...int64) *OrderTableRepository {
	r := &OrderTableRepository{ids: map[int64]struct{}{}}
	r.Add(ids...)
	return r
}

// Add registers table ids as existing.
func (r *OrderTableRepository) Add(ids ...int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.ids[id] = struct{}{}
	}
}

func (r *OrderTableRepository) IsOrderTableNotExist(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[id]
	return !ok, nil
}
