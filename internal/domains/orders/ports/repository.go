package ports

import (
	"context"
	"errors"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/domain"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrVersionConflict = errors.New("order was modified concurrently")
)

// OrderRepository is the system of record for orders.
type OrderRepository interface {
	// Save inserts an order when ID is zero, otherwise updates it guarded by Version.
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// FindAll returns every persisted order in store order.
	FindAll(ctx context.Context) ([]*domain.Order, error)
	// FindByID returns ErrNotFound when the order is absent.
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
}
