package ports

import "context"

// MenuRepository answers existence questions about menus.
type MenuRepository interface {
	// ExistsAllByIDIn reports whether every id exists. Duplicate ids are allowed; an empty list is false.
	ExistsAllByIDIn(ctx context.Context, ids []int64) (bool, error)
}

// OrderTableService answers existence questions about dining tables.
type OrderTableService interface {
	IsOrderTableNotExist(ctx context.Context, id int64) (bool, error)
}
