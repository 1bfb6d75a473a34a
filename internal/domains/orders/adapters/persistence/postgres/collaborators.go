package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
	platformpostgres "github.com/Apurer/kitchenpos-api/internal/platform/postgres"
)

var (
	_ ports.MenuRepository    = (*MenuRepository)(nil)
	_ ports.OrderTableService = (*OrderTableRepository)(nil)
)

// menuRecord is the read-only view of the menus table owned by the menu context.
type menuRecord struct {
	ID          int64     `gorm:"primaryKey;column:id"`
	Name        string    `gorm:"column:name"`
	Price       int64     `gorm:"column:price"`
	MenuGroupID int64     `gorm:"column:menu_group_id;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (menuRecord) TableName() string { return "menus" }

// orderTableRecord is the read-only view of the order_tables table owned by the table context.
type orderTableRecord struct {
	ID             int64     `gorm:"primaryKey;column:id"`
	NumberOfGuests int32     `gorm:"column:number_of_guests"`
	Empty          bool      `gorm:"column:empty"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (orderTableRecord) TableName() string { return "order_tables" }

// MenuRepository checks menu existence in PostgreSQL.
type MenuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

// ExistsAllByIDIn counts distinct matches with a single ANY(bigint[]) query.
func (r *MenuRepository) ExistsAllByIDIn(ctx context.Context, ids []int64) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("postgres menu repository not configured")
	}
	distinct := uniqueIDs(ids)
	if len(distinct) == 0 {
		return false, nil
	}
	var count int64
	err := platformpostgres.DBFromContext(ctx, r.db).
		Raw("SELECT COUNT(*) FROM menus WHERE id = ANY(?::bigint[])", pq.Int64Array(distinct)).
		Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count == int64(len(distinct)), nil
}

// OrderTableRepository checks dining table existence in PostgreSQL.
type OrderTableRepository struct {
	db *gorm.DB
}

func NewOrderTableRepository(db *gorm.DB) *OrderTableRepository {
	return &OrderTableRepository{db: db}
}

func (r *OrderTableRepository) IsOrderTableNotExist(ctx context.Context, id int64) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("postgres order table repository not configured")
	}
	var count int64
	if err := platformpostgres.DBFromContext(ctx, r.db).Model(&orderTableRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
