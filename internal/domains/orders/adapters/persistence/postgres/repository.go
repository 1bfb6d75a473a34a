package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/domain"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
	platformpostgres "github.com/Apurer/kitchenpos-api/internal/platform/postgres"
)

var _ ports.OrderRepository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and schema.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// orderRecord maps the order aggregate to a relational table.
type orderRecord struct {
	ID           int64                 `gorm:"primaryKey;column:id;autoIncrement"`
	OrderTableID int64                 `gorm:"column:order_table_id;index"`
	OrderStatus  string                `gorm:"column:order_status;type:varchar(32);index"`
	OrderedTime  time.Time             `gorm:"column:ordered_time"`
	Version      int64                 `gorm:"column:version;not null;default:1"`
	LineItems    []orderLineItemRecord `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time             `gorm:"column:created_at;index"`
	UpdatedAt    time.Time             `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineItemRecord struct {
	Seq      int64 `gorm:"primaryKey;column:seq;autoIncrement"`
	OrderID  int64 `gorm:"column:order_id;index;not null"`
	MenuID   int64 `gorm:"column:menu_id;not null"`
	Quantity int64 `gorm:"column:quantity;not null"`
}

func (orderLineItemRecord) TableName() string { return "order_line_items" }

// Save inserts a new order with its line items, or applies a version-checked update.
func (r *Repository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	db := platformpostgres.DBFromContext(ctx, r.db)
	if order.ID == 0 {
		record := toRecord(order)
		record.Version = 1
		if err := db.Create(&record).Error; err != nil {
			return nil, err
		}
		return record.toDomain(), nil
	}

	// Line items are immutable once placed; only order-level state is updated.
	result := db.Model(&orderRecord{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]any{
			"order_table_id": order.OrderTableID,
			"order_status":   string(order.OrderStatus),
			"ordered_time":   order.OrderedTime,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&orderRecord{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ports.ErrNotFound
		}
		return nil, ports.ErrVersionConflict
	}
	return r.FindByID(ctx, order.ID)
}

// FindByID fetches an order with its line items.
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	err := withLineItems(platformpostgres.DBFromContext(ctx, r.db)).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// FindAll returns all orders ordered by identity.
func (r *Repository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := withLineItems(platformpostgres.DBFromContext(ctx, r.db)).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func withLineItems(db *gorm.DB) *gorm.DB {
	return db.Preload("LineItems", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("seq")
	})
}

func toRecord(order *domain.Order) orderRecord {
	items := order.OrderLineItems.Items()
	lineItems := make([]orderLineItemRecord, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, orderLineItemRecord{
			Seq:      item.Seq,
			OrderID:  order.ID,
			MenuID:   item.MenuID,
			Quantity: item.Quantity,
		})
	}
	return orderRecord{
		ID:           order.ID,
		OrderTableID: order.OrderTableID,
		OrderStatus:  string(order.OrderStatus),
		OrderedTime:  order.OrderedTime,
		Version:      order.Version,
		LineItems:    lineItems,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	items := make([]domain.OrderLineItem, 0, len(r.LineItems))
	for _, item := range r.LineItems {
		items = append(items, domain.OrderLineItem{
			Seq:      item.Seq,
			MenuID:   item.MenuID,
			Quantity: item.Quantity,
		})
	}
	// Rows without line items cannot be written by Save; an empty container is tolerated on read.
	lineItems, _ := domain.NewOrderLineItems(items)
	return &domain.Order{
		ID:             r.ID,
		OrderTableID:   r.OrderTableID,
		OrderStatus:    domain.OrderStatus(r.OrderStatus),
		OrderedTime:    r.OrderedTime,
		OrderLineItems: lineItems,
		Version:        r.Version,
	}
}
